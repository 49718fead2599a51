package acquire

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are containers whose text is boilerplate, not content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"iframe":   true,
	"noscript": true,
}

// StripTags walks an HTML document and returns its visible text, one line per
// text node, skipping script/style and page chrome.
func StripTags(r io.Reader) string {
	root, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return strings.Join(lines, "\n")
}
