package adapters

import "golang.org/x/net/html"

// GenericAdapter is the fallback adapter for unknown domains
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true
func (a *GenericAdapter) CanHandle(rawURL string, contentType string) bool {
	return true
}

// Content prefers <main>, then <article>, then <body>
func (a *GenericAdapter) Content(doc *html.Node) *html.Node {
	return a.mainContent(doc)
}
