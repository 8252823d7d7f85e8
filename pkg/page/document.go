package page

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/Ratio1/poststats_go/pkg/stats"
)

// Document is a parsed HTML page. It is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	root *html.Node
	sel  Selectors
}

// DocumentOption configures a Document.
type DocumentOption func(*Document)

// WithSelectors overrides DefaultSelectors. Empty fields keep the default.
func WithSelectors(sel Selectors) DocumentOption {
	return func(d *Document) { d.sel = sel.withDefaults() }
}

// Parse reads an HTML document.
func Parse(r io.Reader, opts ...DocumentOption) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("page: parse html: %w", err)
	}
	d := &Document{root: root, sel: DefaultSelectors}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ParseString is Parse over a string.
func ParseString(s string, opts ...DocumentOption) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Render writes the current document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// CollectIDs implements Provider. Like controls are not stat containers.
func (d *Document) CollectIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	walk(d.root, func(n *html.Node) bool {
		if d.isContainer(n) {
			id, _ := attr(n, d.sel.IDAttr)
			ids = append(ids, id)
		}
		return false
	})
	return ids
}

// RenderStats implements Renderer.
func (d *Document) RenderStats(id string, rec stats.Record) {
	d.mu.Lock()
	defer d.mu.Unlock()
	box := d.container(id)
	if box == nil {
		return
	}
	if v := findClass(box, d.sel.ViewsClass); v != nil {
		setText(v, strconv.FormatInt(rec.Views.Int64(), 10))
	}
	if l := findClass(box, d.sel.LikesClass); l != nil {
		setText(l, strconv.FormatInt(rec.Likes.Int64(), 10))
	}
}

// DisplayedLikes implements Renderer.
func (d *Document) DisplayedLikes(id string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	box := d.container(id)
	if box == nil {
		return 0
	}
	l := findClass(box, d.sel.LikesClass)
	if l == nil {
		return 0
	}
	return stats.CoerceString(textContent(l)).Int64()
}

// SetDisplayedLikes implements Renderer.
func (d *Document) SetDisplayedLikes(id string, n int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	box := d.container(id)
	if box == nil {
		return
	}
	if l := findClass(box, d.sel.LikesClass); l != nil {
		setText(l, strconv.FormatInt(n, 10))
	}
}

// SetLikeEnabled implements Renderer.
func (d *Document) SetLikeEnabled(id string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	btn := d.likeControl(id)
	if btn == nil {
		return
	}
	if enabled {
		removeAttr(btn, "disabled")
		return
	}
	if _, ok := attr(btn, "disabled"); !ok {
		btn.Attr = append(btn.Attr, html.Attribute{Key: "disabled"})
	}
}

// LikeEnabled implements Renderer.
func (d *Document) LikeEnabled(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	btn := d.likeControl(id)
	if btn == nil {
		return true
	}
	_, disabled := attr(btn, "disabled")
	return !disabled
}

func (d *Document) isContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if _, ok := attr(n, d.sel.IDAttr); !ok {
		return false
	}
	return !hasClass(n, d.sel.LikeClass)
}

func (d *Document) container(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if d.isContainer(n) {
			if v, _ := attr(n, d.sel.IDAttr); v == id {
				found = n
				return true
			}
		}
		return false
	})
	return found
}

func (d *Document) likeControl(id string) *html.Node {
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, d.sel.LikeClass) {
			if v, ok := attr(n, d.sel.IDAttr); ok && v == id {
				found = n
				return true
			}
		}
		return false
	})
	return found
}

// walk visits n and its descendants depth-first in document order until fn
// returns true. It reports whether the walk was stopped.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if fn(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, fn) {
			return true
		}
	}
	return false
}

// findClass returns the first descendant of n carrying class.
func findClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
		walk(c, func(x *html.Node) bool {
			if x.Type == html.ElementNode && hasClass(x, class) {
				found = x
				return true
			}
			return false
		})
	}
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(x *html.Node) bool {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		return false
	})
	return b.String()
}
