package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// LegalAdapter focuses statute and regulation pages on their provisions
type LegalAdapter struct {
	BaseAdapter
	legalDomains []string
	contentIDs   []string
}

// NewLegalAdapter creates a new legal document adapter
func NewLegalAdapter() *LegalAdapter {
	return &LegalAdapter{
		legalDomains: []string{
			"legislation.gov.uk",
			"law.cornell.edu",
			"justice.gov",
			"eur-lex.europa.eu",
		},
		contentIDs: []string{"viewLegContents", "main-content", "content", "document"},
	}
}

// Name returns the adapter name
func (a *LegalAdapter) Name() string {
	return "legal"
}

// CanHandle checks if this is a legal document URL
func (a *LegalAdapter) CanHandle(rawURL string, contentType string) bool {
	host := hostOf(rawURL)
	for _, domain := range a.legalDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	lowerURL := strings.ToLower(rawURL)
	return strings.Contains(lowerURL, "/statute") ||
		strings.Contains(lowerURL, "/regulation")
}

// Content returns the provisions container, without footnotes and
// breadcrumb navigation
func (a *LegalAdapter) Content(doc *html.Node) *html.Node {
	var content *html.Node
	for _, id := range a.contentIDs {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && a.GetAttribute(n, "id") == id
		})
		if content != nil {
			break
		}
	}
	if content == nil {
		content = a.mainContent(doc)
	}

	a.RemoveAll(content, func(n *html.Node) bool {
		return n.Type == html.ElementNode &&
			(n.Data == "nav" || a.HasAnyClass(n, "footnote", "footnotes", "breadcrumb", "breadcrumbs"))
	})
	return content
}
