// Package adapters selects the part of a fetched page that carries its
// prose, so navigation, references and boilerplate never reach the backend.
package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Adapter narrows a parsed page to its main content
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(rawURL string, contentType string) bool

	// Content returns the node whose visible text should be extracted.
	// It may detach boilerplate from the tree.
	Content(doc *html.Node) *html.Node
}

// Registry manages domain adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters
func NewRegistry() *Registry {
	registry := &Registry{
		adapters: make([]Adapter, 0),
		generic:  NewGenericAdapter(),
	}

	registry.Register(NewWikipediaAdapter())
	registry.Register(NewLegalAdapter())

	return registry
}

// Register registers a new adapter; earlier registrations win
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter finds the best adapter for the given URL and content type
func (r *Registry) FindAdapter(rawURL string, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(rawURL, contentType) {
			return adapter
		}
	}
	return r.generic
}

// BaseAdapter provides common tree helpers
type BaseAdapter struct{}

// HasClass checks if a node has a specific CSS class
func (b *BaseAdapter) HasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(b.GetAttribute(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

// HasAnyClass checks if a node has one of the classes
func (b *BaseAdapter) HasAnyClass(n *html.Node, classNames ...string) bool {
	for _, c := range classNames {
		if b.HasClass(n, c) {
			return true
		}
	}
	return false
}

// GetAttribute gets an attribute value from a node
func (b *BaseAdapter) GetAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// FindFirst finds the first node matching a predicate, depth first
func (b *BaseAdapter) FindFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := b.FindFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

// RemoveAll detaches every node matching predicate from the tree under n
func (b *BaseAdapter) RemoveAll(n *html.Node, predicate func(*html.Node) bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if predicate(c) {
			n.RemoveChild(c)
		} else {
			b.RemoveAll(c, predicate)
		}
		c = next
	}
}

// mainContent is the generic <main>, then <article>, then <body> fallback
func (b *BaseAdapter) mainContent(doc *html.Node) *html.Node {
	for _, match := range []func(*html.Node) bool{
		func(n *html.Node) bool {
			return n.Type == html.ElementNode && (n.Data == "main" || b.GetAttribute(n, "role") == "main")
		},
		func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "article" },
		func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "body" },
	} {
		if found := b.FindFirst(doc, match); found != nil {
			return found
		}
	}
	return doc
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
