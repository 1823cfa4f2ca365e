package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanText(s *goquery.Selection) string {
	return collapse(s.Text())
}

// ownText is the element's text when it has no element children, else "".
func ownText(s *goquery.Selection) string {
	if s.Children().Length() > 0 {
		return ""
	}
	return cleanText(s)
}

// blockText returns the text under s with one line per text run, the way a
// browser separates paragraphs and list items.
func blockText(s *goquery.Selection) string {
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := collapse(n.Data); t != "" {
				lines = append(lines, t)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "svg":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(lines, "\n")
}

// leaves returns every element under root that has no element children and
// some text, in document order.
func leaves(root *goquery.Selection) []string {
	var out []string
	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		if t := ownText(s); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// ShortDescription collapses whitespace and cuts text to max runes plus "...".
func ShortDescription(text string, max int) string {
	text = collapse(text)
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	return strings.TrimSpace(string(r[:max])) + "..."
}
