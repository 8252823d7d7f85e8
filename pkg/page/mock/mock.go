// Package mock provides a pure-data page.Page for exercising reconciliation
// logic without markup.
package mock

import (
	"strconv"
	"sync"

	"github.com/Ratio1/poststats_go/pkg/stats"
)

// Item is the displayed state of one stat container. Empty strings stand for
// fields that are not rendered.
type Item struct {
	ID    string
	Views string
	Likes string
	// HasViews and HasLikes report whether the fields exist at all.
	HasViews bool
	HasLikes bool
}

// Page lists items in order and tracks like controls by id.
type Page struct {
	mu       sync.Mutex
	items    []*Item
	controls map[string]bool
	writes   int
}

// New returns a page with one container per id, each with both fields
// present and empty, and a like control per distinct id.
func New(ids ...string) *Page {
	p := &Page{controls: make(map[string]bool)}
	for _, id := range ids {
		p.items = append(p.items, &Item{ID: id, HasViews: true, HasLikes: true})
		p.controls[id] = true
	}
	return p
}

// AddItem appends a container with explicit field layout.
func (p *Page) AddItem(item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it := item
	p.items = append(p.items, &it)
}

// RemoveControl drops the like control of id.
func (p *Page) RemoveControl(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.controls, id)
}

// Item returns a copy of the first container of id.
func (p *Page) Item(id string) (Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if it := p.first(id); it != nil {
		return *it, true
	}
	return Item{}, false
}

// Writes counts field writes, for asserting that nothing was touched.
func (p *Page) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// CollectIDs implements page.Provider.
func (p *Page) CollectIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.items))
	for _, it := range p.items {
		ids = append(ids, it.ID)
	}
	return ids
}

// RenderStats implements page.Renderer.
func (p *Page) RenderStats(id string, rec stats.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it := p.first(id)
	if it == nil {
		return
	}
	if it.HasViews {
		it.Views = strconv.FormatInt(rec.Views.Int64(), 10)
		p.writes++
	}
	if it.HasLikes {
		it.Likes = strconv.FormatInt(rec.Likes.Int64(), 10)
		p.writes++
	}
}

// DisplayedLikes implements page.Renderer.
func (p *Page) DisplayedLikes(id string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	it := p.first(id)
	if it == nil || !it.HasLikes {
		return 0
	}
	return stats.CoerceString(it.Likes).Int64()
}

// SetDisplayedLikes implements page.Renderer.
func (p *Page) SetDisplayedLikes(id string, n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it := p.first(id)
	if it == nil || !it.HasLikes {
		return
	}
	it.Likes = strconv.FormatInt(n, 10)
	p.writes++
}

// SetLikeEnabled implements page.Renderer.
func (p *Page) SetLikeEnabled(id string, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.controls[id]; ok {
		p.controls[id] = enabled
	}
}

// LikeEnabled implements page.Renderer.
func (p *Page) LikeEnabled(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	enabled, ok := p.controls[id]
	return !ok || enabled
}

func (p *Page) first(id string) *Item {
	for _, it := range p.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}
