// Package stats holds the per-item counter model shared by the cache, the
// page binder and the remote client.
package stats
