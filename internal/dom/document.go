// Package dom renders widgets into HTML node trees. A Document stands in for
// a browser page; each View owns one widget's subtree inside a host element.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/soyeahso/matchat/internal/logging"
)

const blankPage = "<!DOCTYPE html><html><head></head><body></body></html>"

// ErrNoHost is returned when a View has no host element to mount into.
var ErrNoHost = errors.New("dom: no host element")

// Document is an HTML page shared by any number of widget views.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// NewDocument returns an empty page.
func NewDocument() *Document {
	doc, err := ParseDocument(strings.NewReader(blankPage))
	if err != nil {
		panic(err)
	}
	return doc
}

// ParseDocument parses a page from r.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Document{root: root}, nil
}

// Body returns the page body.
func (d *Document) Body() *html.Node {
	return Find(d.root, ByTag("body"))
}

// ByID returns the element with the given id, or nil.
func (d *Document) ByID(id string) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Find(d.root, ByAttr("id", id))
}

// NewView returns a View mounting into host and sharing the page lock.
func (d *Document) NewView(host *html.Node, log *logging.Logger) *View {
	v := NewView(host, log)
	v.mu = &d.mu
	return v
}

// Render serializes the whole page.
func (d *Document) Render() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Render(d.root)
}

// BodyHTML serializes the body's children.
func (d *Document) BodyHTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	body := Find(d.root, ByTag("body"))
	if body == nil {
		return ""
	}
	return InnerHTML(body)
}
