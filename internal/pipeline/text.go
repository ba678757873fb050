package pipeline

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/claimex/internal/pipeline/adapters"
)

// skipped elements never contribute visible text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"template": true, "svg": true, "head": true, "nav": true, "footer": true,
}

// blocks end a line of visible text
var blocks = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true, "table": true,
}

// VisibleText reduces an HTML document to the text a reader would see,
// one block element per line.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return renderText(doc), nil
}

// PageText is VisibleText restricted to the content the matching adapter
// selects for rawURL. It also returns the adapter name.
func PageText(registry *adapters.Registry, rawURL, contentType, htmlContent string) (string, string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	adapter := registry.FindAdapter(rawURL, contentType)
	return renderText(adapter.Content(doc)), adapter.Name(), nil
}

func renderText(root *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blocks[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(root)

	var lines []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
