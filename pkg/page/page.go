// Package page binds counters to rendered content. A Provider lists the item
// ids present on a page; a Renderer is the only component that touches
// presentation. Document implements both over a parsed HTML tree, and
// package mock implements both over plain data for tests.
package page

import "github.com/Ratio1/poststats_go/pkg/stats"

// Provider lists the item ids on a page in document order. Duplicates are
// preserved.
type Provider interface {
	CollectIDs() []string
}

// Renderer writes counters and like-control state. Every method is a no-op
// for ids, fields or controls that are not present.
type Renderer interface {
	// RenderStats writes both counters into the first container of id.
	RenderStats(id string, rec stats.Record)
	// DisplayedLikes parses the likes number currently shown for id.
	DisplayedLikes(id string) int64
	// SetDisplayedLikes overwrites the likes number shown for id.
	SetDisplayedLikes(id string, n int64)
	// SetLikeEnabled enables or disables the like control of id.
	SetLikeEnabled(id string, enabled bool)
	// LikeEnabled reports whether the like control of id accepts activation.
	// A missing control counts as enabled.
	LikeEnabled(id string) bool
}

// Page is a Provider that is also a Renderer.
type Page interface {
	Provider
	Renderer
}

// Selectors names the markup the binder looks for.
type Selectors struct {
	// IDAttr marks a stat container and carries the item id.
	IDAttr string
	// ViewsClass and LikesClass mark the number fields inside a container.
	ViewsClass string
	LikesClass string
	// LikeClass marks like controls; they carry IDAttr too.
	LikeClass string
}

// DefaultSelectors matches the markup of the blog templates.
var DefaultSelectors = Selectors{
	IDAttr:     "data-post-id",
	ViewsClass: "views",
	LikesClass: "likes",
	LikeClass:  "like-btn",
}

func (s Selectors) withDefaults() Selectors {
	if s.IDAttr == "" {
		s.IDAttr = DefaultSelectors.IDAttr
	}
	if s.ViewsClass == "" {
		s.ViewsClass = DefaultSelectors.ViewsClass
	}
	if s.LikesClass == "" {
		s.LikesClass = DefaultSelectors.LikesClass
	}
	if s.LikeClass == "" {
		s.LikeClass = DefaultSelectors.LikeClass
	}
	return s
}
