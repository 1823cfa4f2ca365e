package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

type query struct {
	raw     string
	matcher cascadia.Selector
}

// Cascade is an ordered list of selectors tried until one yields an
// acceptable element. An empty result is a miss, never an error.
type Cascade []query

// Compile validates and pre-compiles selectors. Goquery would silently match
// nothing on a bad selector; failing here surfaces config typos at startup.
func Compile(selectors []string) (Cascade, error) {
	c := make(Cascade, 0, len(selectors))
	for _, s := range selectors {
		m, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("invalid selector %q: %w", s, err)
		}
		c = append(c, query{raw: s, matcher: m})
	}
	return c, nil
}

func MustCompile(selectors ...string) Cascade {
	c, err := Compile(selectors)
	if err != nil {
		panic(err)
	}
	return c
}

// First returns the first element, in selector priority then document order,
// that accept approves. A nil accept approves any element.
func (c Cascade) First(root *goquery.Selection, accept func(*goquery.Selection) bool) (*goquery.Selection, bool) {
	for _, q := range c {
		var found *goquery.Selection
		root.FindMatcher(q.matcher).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if accept == nil || accept(s) {
				found = s
				return false
			}
			return true
		})
		if found != nil {
			return found, true
		}
	}
	return nil, false
}

// FirstText is First over the element's collapsed text.
func (c Cascade) FirstText(root *goquery.Selection, accept func(string) bool) (string, bool) {
	var text string
	_, ok := c.First(root, func(s *goquery.Selection) bool {
		t := cleanText(s)
		if t == "" || (accept != nil && !accept(t)) {
			return false
		}
		text = t
		return true
	})
	return text, ok
}

// All returns every element matched by any selector, in selector order,
// each element once.
func (c Cascade) All(root *goquery.Selection) []*goquery.Selection {
	seen := make(map[*html.Node]bool)
	var out []*goquery.Selection
	for _, q := range c {
		root.FindMatcher(q.matcher).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			if seen[n] {
				return
			}
			seen[n] = true
			out = append(out, s)
		})
	}
	return out
}

// AllTexts collects the collapsed text of every match across all selectors,
// in order, without duplicates.
func (c Cascade) AllTexts(root *goquery.Selection, accept func(raw, clean string) bool) []string {
	var out []string
	for _, s := range c.All(root) {
		raw := s.Text()
		t := cleanText(s)
		if t != "" && (accept == nil || accept(raw, t)) {
			out = append(out, t)
		}
	}
	return out
}

// Group returns the matches of the first selector that has any member
// approved by plausible, keeping only approved, innermost members.
func (c Cascade) Group(root *goquery.Selection, plausible func(*goquery.Selection) bool) []*goquery.Selection {
	for _, q := range c {
		nodes := innermost(root.FindMatcher(q.matcher).Nodes)
		var out []*goquery.Selection
		for _, n := range nodes {
			s := root.FindNodes(n)
			if plausible == nil || plausible(s) {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// innermost drops nodes that are ancestors of other nodes in the set, so a
// wrapper matching the same selector as its cards is not treated as a card.
func innermost(nodes []*html.Node) []*html.Node {
	in := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}
	ancestor := make(map[*html.Node]bool)
	for _, n := range nodes {
		for p := n.Parent; p != nil; p = p.Parent {
			if in[p] {
				ancestor[p] = true
			}
		}
	}
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if !ancestor[n] {
			out = append(out, n)
		}
	}
	return out
}
