// Package skills turns noisy skill strings scraped from cards and detail pages
// into a small set of canonical tokens.
package skills

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go-jobboard-scraper/internal/classify"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultMaxSkills           = 15
	DefaultCamelSplitThreshold = 20

	whitelistMaxLen     = 15
	similarityThreshold = 0.8
)

var delimiterRegex = regexp.MustCompile(`(?i)\s*(?:[,;|/&\n\r\t•·]|\s+and\s+)\s*`)

type Options struct {
	MaxSkills           int
	CamelSplitThreshold int
}

type Normalizer struct {
	cls       *classify.Classifier
	techs     []string
	maxSkills int
	camelMin  int
}

func New(cls *classify.Classifier, opts Options) *Normalizer {
	if opts.MaxSkills <= 0 {
		opts.MaxSkills = DefaultMaxSkills
	}
	if opts.CamelSplitThreshold <= 0 {
		opts.CamelSplitThreshold = DefaultCamelSplitThreshold
	}
	return &Normalizer{
		cls:       cls,
		techs:     cls.Technologies(),
		maxSkills: opts.MaxSkills,
		camelMin:  opts.CamelSplitThreshold,
	}
}

// Normalize splits every raw string, then dedups, collapses near-duplicates,
// drops concatenations and caps the result. Order follows first appearance.
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw []string) []string {
	var tokens []string
	for _, r := range raw {
		tokens = append(tokens, n.Split(r)...)
	}

	tokens = dedupFold(tokens)
	tokens = collapseNearDuplicates(tokens)
	tokens = dropConcatenations(tokens)

	if len(tokens) > n.maxSkills {
		tokens = tokens[:n.maxSkills]
	}
	if tokens == nil {
		tokens = []string{}
	}
	return tokens
}

// Split breaks one raw string into skill tokens without deduplicating.
func (n *Normalizer) Split(raw string) []string {
	s := cleanToken(raw)
	if s == "" {
		return nil
	}

	if canon, ok := n.cls.Technology(s); ok && len(s) <= whitelistMaxLen && !strings.ContainsFunc(s, unicode.IsDigit) {
		return []string{canon}
	}
	if canon, ok := n.jsAlias(s); ok {
		return []string{canon}
	}

	if delimiterRegex.MatchString(s) {
		var out []string
		for _, part := range delimiterRegex.Split(s, -1) {
			out = append(out, n.Split(part)...)
		}
		return out
	}

	if found, rest := n.extractKnown(s); len(found) > 0 {
		if rest != "" {
			found = append(found, n.splitUnknown(rest)...)
		}
		return found
	}

	return n.splitUnknown(s)
}

// extractKnown removes dictionary matches longest first until none remain.
func (n *Normalizer) extractKnown(s string) ([]string, string) {
	var found []string
	rest := s
	for {
		matched := false
		for _, tech := range n.techs {
			start, end, ok := findTerm(rest, tech)
			if !ok {
				continue
			}
			found = append(found, tech)
			rest = rest[:start] + " " + rest[end:]
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	return found, cleanToken(rest)
}

// splitUnknown handles text with no dictionary terms. Text longer than the
// threshold is split on case transitions; text that does not split is judged
// whole.
func (n *Normalizer) splitUnknown(s string) []string {
	s = cleanToken(s)
	if s == "" {
		return nil
	}
	if len([]rune(s)) > n.camelMin {
		if frags := splitCamel(s); len(frags) > 1 {
			var out []string
			for _, frag := range frags {
				out = append(out, n.keep(frag)...)
			}
			return out
		}
	}
	return n.keep(s)
}

func (n *Normalizer) keep(s string) []string {
	s = cleanToken(s)
	if s == "" || !startsAlnum(s) || !n.cls.LooksLikeSkill(s) {
		return nil
	}
	return []string{n.capitalize(s)}
}

// jsAlias maps "ExpressJS", "Angular.js" and "nodejs" onto dictionary terms.
func (n *Normalizer) jsAlias(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, suffix := range []string{".js", "js"} {
		stem, ok := strings.CutSuffix(lower, suffix)
		if !ok || stem == "" || strings.ContainsRune(stem, ' ') {
			continue
		}
		if canon, ok := n.cls.Technology(stem + ".js"); ok {
			return canon, true
		}
		if canon, ok := n.cls.Technology(stem); ok {
			return canon, true
		}
	}
	return "", false
}

func (n *Normalizer) capitalize(s string) string {
	if strings.ToLower(s) != s {
		return s
	}
	return cases.Title(language.English).String(s)
}

// findTerm does a case-insensitive search for term in s. A match must sit on
// a word or case boundary: "Go" is found in "PythonGo" but not in "Gopher",
// "Excel" is not found in "Excellent".
func findTerm(s, term string) (int, int, bool) {
	lowerS := strings.ToLower(s)
	lowerT := strings.ToLower(term)
	if len(lowerS) != len(s) {
		// non-ASCII case folding changed byte offsets
		return -1, -1, false
	}

	from := 0
	for from <= len(lowerS)-len(lowerT) {
		i := strings.Index(lowerS[from:], lowerT)
		if i < 0 {
			return -1, -1, false
		}
		start := from + i
		end := start + len(lowerT)
		if onBoundary(s, start, end) {
			return start, end, true
		}
		from = start + 1
	}
	return -1, -1, false
}

// A "." between letters joins a word ("React.js", "ASP.NET").
func onBoundary(s string, start, end int) bool {
	startOK := start == 0 || !isLetter(s[start-1]) ||
		(isLower(s[start-1]) && isUpper(s[start]))
	if start >= 2 && s[start-1] == '.' && isLetter(s[start-2]) {
		startOK = false
	}
	endOK := end == len(s) || !isLetter(s[end]) || isUpper(s[end])
	if end+1 < len(s) && s[end] == '.' && isLetter(s[end+1]) {
		endOK = false
	}
	return startOK && endOK
}

func splitCamel(s string) []string {
	runes := []rune(s)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

func cleanToken(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
}

func dedupFold(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// collapseNearDuplicates keeps the shorter of any pair whose similarity
// reaches the threshold, at the position of the first one seen.
func collapseNearDuplicates(tokens []string) []string {
	for {
		out := collapseOnce(tokens)
		if len(out) == len(tokens) {
			return out
		}
		tokens = out
	}
}

func collapseOnce(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		merged := false
		for i, kept := range out {
			if similarity(t, kept) >= similarityThreshold {
				if len(t) < len(kept) {
					out[i] = t
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, t)
		}
	}
	return out
}

// similarity counts shared characters (multiset intersection, case-folded)
// over the length of the longer string.
func similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1
	}
	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	shared := 0
	for _, r := range rb {
		if counts[r] > 0 {
			counts[r]--
			shared++
		}
	}
	return float64(shared) / float64(longer)
}

// dropConcatenations removes tokens that are just other tokens glued
// together. Every token is judged against the full input set.
func dropConcatenations(tokens []string) []string {
	lower := make([]string, len(tokens))
	for i, t := range tokens {
		lower[i] = strings.ToLower(t)
	}

	var out []string
	for i, t := range tokens {
		var contained []int
		for j := range tokens {
			if i != j && len(lower[j]) < len(lower[i]) && strings.Contains(lower[i], lower[j]) {
				contained = append(contained, j)
			}
		}
		if len(contained) >= 2 {
			continue
		}
		if len(contained) == 1 && residualIsToken(lower[i], lower[contained[0]], lower, i) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func residualIsToken(whole, part string, all []string, self int) bool {
	residual := strings.TrimSpace(strings.Replace(whole, part, "", 1))
	if residual == "" {
		return false
	}
	for k, other := range all {
		if k != self && other == residual {
			return true
		}
	}
	return false
}

func startsAlnum(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isLetter(b byte) bool { return isLower(b) || isUpper(b) }
func isLower(b byte) bool  { return b >= 'a' && b <= 'z' }
func isUpper(b byte) bool  { return b >= 'A' && b <= 'Z' }
