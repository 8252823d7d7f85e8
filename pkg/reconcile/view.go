package reconcile

// PageLoaded signals that the page finished loading. On a single-item page
// it schedules one view report after the view delay. Later calls do nothing.
func (r *Reconciler) PageLoaded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
	r.scheduleViewLocked()
}

// VisibilityChanged reports a view right away when a single-item page
// becomes hidden. It does not cancel or replace the delayed report.
func (r *Reconciler) VisibilityChanged(hidden bool) {
	if !hidden {
		return
	}
	r.mu.Lock()
	id, closed := r.viewID, r.closed
	r.mu.Unlock()
	if id == "" || closed {
		return
	}
	r.logger.Debug("page hidden, reporting view", "id", id)
	r.remote.ReportView(id)
}

// ViewTarget returns the id views are reported for, if any.
func (r *Reconciler) ViewTarget() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewID, r.viewID != ""
}

func (r *Reconciler) scheduleViewLocked() {
	if r.viewID == "" || !r.loaded || r.closed || r.viewTimer != nil {
		return
	}
	id := r.viewID
	r.viewTimer = r.clock.AfterFunc(r.viewDelay, func() {
		r.logger.Debug("reporting view", "id", id)
		r.remote.ReportView(id)
	})
}
