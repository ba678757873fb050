package adapters

import (
	"strings"

	"golang.org/x/net/html"
)

// WikipediaAdapter keeps article prose and drops references and navigation
type WikipediaAdapter struct {
	BaseAdapter
	noiseClasses   []string
	stopSectionIDs map[string]bool
}

// NewWikipediaAdapter creates a new Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{
		noiseClasses: []string{
			"infobox", "navbox", "vertical-navbox", "reflist", "references",
			"reference", "mw-editsection", "hatnote", "toc", "sistersitebox",
			"metadata", "ambox", "mw-empty-elt", "thumb", "noprint",
		},
		stopSectionIDs: map[string]bool{
			"see_also": true, "notes": true, "references": true,
			"further_reading": true, "external_links": true, "bibliography": true,
			"sources": true, "citations": true,
		},
	}
}

// Name returns the adapter name
func (a *WikipediaAdapter) Name() string {
	return "wikipedia"
}

// CanHandle checks if this is a Wikipedia URL
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	host := hostOf(rawURL)
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// Content returns the article body without boilerplate or trailing
// reference sections
func (a *WikipediaAdapter) Content(doc *html.Node) *html.Node {
	content := a.FindFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && a.HasClass(n, "mw-parser-output")
	})
	if content == nil {
		content = a.FindFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && a.GetAttribute(n, "id") == "mw-content-text"
		})
	}
	if content == nil {
		return a.mainContent(doc)
	}

	a.RemoveAll(content, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		return n.Data == "sup" || n.Data == "figure" || n.Data == "style" || a.HasAnyClass(n, a.noiseClasses...)
	})
	a.truncateAtStopSection(content)
	return content
}

// truncateAtStopSection drops everything from the first "See also",
// "References" (etc.) heading onwards
func (a *WikipediaAdapter) truncateAtStopSection(content *html.Node) {
	var stop *html.Node
	for c := content.FirstChild; c != nil; c = c.NextSibling {
		if a.isStopHeading(c) {
			stop = c
			break
		}
	}
	for stop != nil {
		next := stop.NextSibling
		content.RemoveChild(stop)
		stop = next
	}
}

func (a *WikipediaAdapter) isStopHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}

	heading := n
	// Newer skins wrap headings in <div class="mw-heading">
	if n.Data == "div" && a.HasClass(n, "mw-heading") {
		heading = a.FindFirst(n, func(c *html.Node) bool {
			return c.Type == html.ElementNode && c.Data == "h2"
		})
	}
	if heading == nil || heading.Data != "h2" {
		return false
	}

	id := a.GetAttribute(heading, "id")
	if id == "" {
		if span := a.FindFirst(heading, func(c *html.Node) bool {
			return c.Type == html.ElementNode && a.HasClass(c, "mw-headline")
		}); span != nil {
			id = a.GetAttribute(span, "id")
		}
	}
	return a.stopSectionIDs[strings.ToLower(id)]
}
