// Package classify answers "does this string look like X" questions for the
// extractors: company names, role titles, job-type badges, locations,
// compensation, experience bands and skills.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/rules"
)

var (
	internshipRegex = regexp.MustCompile(`(?i)\bintern(ship)?s?\b`)
	partTimeRegex   = regexp.MustCompile(`(?i)\bpart[\s-]?time\b`)
	contractRegex   = regexp.MustCompile(`(?i)\b(contract(ual|or)?|freelance)\b`)
	fullTimeRegex   = regexp.MustCompile(`(?i)\bfull[\s-]?time\b`)

	remoteRegex = regexp.MustCompile(`(?i)\b(remote|work from home|wfh)\b`)
	onsiteRegex = regexp.MustCompile(`(?i)\bon[\s-]?site\b`)
	hybridRegex = regexp.MustCompile(`(?i)\bhybrid\b`)

	wordSplitRegex = regexp.MustCompile(`[^\p{L}\p{N}+#.©]+`)
)

type band struct {
	re    *regexp.Regexp
	level string
}

// Classifier is immutable once built and safe for concurrent use.
type Classifier struct {
	companyMarkers  []string
	roleRegex       *regexp.Regexp
	badges          map[string]bool
	locationWords   []string
	companyReject   []string
	locationReject  []string
	descReject      []string
	compIndicators  []string
	compUnitRegex   *regexp.Regexp
	bands           []band
	stopWords       map[string]bool
	stopPhrases     []string
	techCanonical   map[string]string
	techLongestFrom []string
}

func New(v rules.Vocabulary) (*Classifier, error) {
	c := &Classifier{
		companyMarkers: upperAll(v.CompanyMarkers),
		badges:         make(map[string]bool),
		locationWords:  lowerAll(v.LocationWords),
		companyReject:  lowerAll(v.CompanyRejectWords),
		locationReject: lowerAll(v.LocationRejectWords),
		descReject:     lowerAll(v.DescriptionRejectWords),
		stopWords:      make(map[string]bool),
		techCanonical:  make(map[string]string),
	}

	// single-letter units like "k" only count right after a number
	var units []string
	for _, ind := range lowerAll(v.CompensationIndicators) {
		r := []rune(ind)
		if len(r) == 1 && unicode.IsLetter(r[0]) {
			units = append(units, regexp.QuoteMeta(ind))
		} else if ind != "" {
			c.compIndicators = append(c.compIndicators, ind)
		}
	}
	if len(units) > 0 {
		c.compUnitRegex = regexp.MustCompile(`\d\s*(` + strings.Join(units, "|") + `)\b`)
	}

	if len(v.RoleKeywords) > 0 {
		quoted := make([]string, 0, len(v.RoleKeywords))
		for _, k := range v.RoleKeywords {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(k)))
		}
		c.roleRegex = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)s?\b`)
	}

	for _, b := range v.JobTypeBadges {
		c.badges[strings.ToLower(strings.TrimSpace(b))] = true
	}

	for _, b := range v.ExperienceBands {
		re, err := regexp.Compile(`(?i)` + b.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid experience band %q: %w", b.Pattern, err)
		}
		c.bands = append(c.bands, band{re: re, level: b.Level})
	}

	for _, w := range v.SkillStopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if strings.ContainsAny(w, " -") {
			c.stopPhrases = append(c.stopPhrases, w)
		} else if w != "" {
			c.stopWords[w] = true
		}
	}

	for _, t := range v.Technologies {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := c.techCanonical[key]; !dup {
			c.techCanonical[key] = t
			c.techLongestFrom = append(c.techLongestFrom, t)
		}
	}
	sort.SliceStable(c.techLongestFrom, func(i, j int) bool {
		return len(c.techLongestFrom[i]) > len(c.techLongestFrom[j])
	})

	return c, nil
}

// MustNew panics on an invalid vocabulary. For tests and package defaults.
func MustNew(v rules.Vocabulary) *Classifier {
	c, err := New(v)
	if err != nil {
		panic(err)
	}
	return c
}

// LooksLikeCompany reports whether text carries a company suffix such as INC or TECH.
func (c *Classifier) LooksLikeCompany(text string) bool {
	upper := strings.ToUpper(text)
	for _, w := range wordSplitRegex.Split(upper, -1) {
		w = strings.Trim(w, ".")
		for _, m := range c.companyMarkers {
			if w == m {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) LooksLikeRole(text string) bool {
	return c.roleRegex != nil && c.roleRegex.MatchString(text)
}

// IsJobTypeBadge is an exact match: "Full Time" is a badge, "Full Time Engineer" is not.
func (c *Classifier) IsJobTypeBadge(text string) bool {
	return c.badges[strings.ToLower(strings.TrimSpace(text))]
}

// JobType finds the first job-type synonym in text. Internship is checked
// first so "Internship (full time)" stays an internship.
func (c *Classifier) JobType(text string) (models.JobType, bool) {
	switch {
	case internshipRegex.MatchString(text):
		return models.JobTypeInternship, true
	case partTimeRegex.MatchString(text):
		return models.JobTypePartTime, true
	case contractRegex.MatchString(text):
		return models.JobTypeContract, true
	case fullTimeRegex.MatchString(text):
		return models.JobTypeFullTime, true
	}
	return "", false
}

func (c *Classifier) IsLocationWord(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range c.locationWords {
		if lower == w {
			return true
		}
	}
	return false
}

// LocationKeyword maps remote/onsite/hybrid mentions to their display form.
func (c *Classifier) LocationKeyword(text string) (string, bool) {
	switch {
	case remoteRegex.MatchString(text):
		return "Remote", true
	case onsiteRegex.MatchString(text):
		return "Onsite", true
	case hybridRegex.MatchString(text):
		return "Hybrid", true
	}
	return "", false
}

func (c *Classifier) HasCompanyRejectWord(text string) bool {
	return containsAny(strings.ToLower(text), c.companyReject)
}

func (c *Classifier) HasLocationRejectWord(text string) bool {
	return containsAny(strings.ToLower(text), c.locationReject)
}

func (c *Classifier) HasDescriptionRejectWord(text string) bool {
	return containsAny(strings.ToLower(text), c.descReject)
}

// LooksLikeCompensation requires a digit plus a currency or unit marker.
func (c *Classifier) LooksLikeCompensation(text string) bool {
	if !strings.ContainsFunc(text, unicode.IsDigit) {
		return false
	}
	lower := strings.ToLower(text)
	if containsAny(lower, c.compIndicators) {
		return true
	}
	return c.compUnitRegex != nil && c.compUnitRegex.MatchString(lower)
}

// ExperienceLevel returns the label of the first matching band.
func (c *Classifier) ExperienceLevel(text string) (string, bool) {
	for _, b := range c.bands {
		if b.re.MatchString(text) {
			return b.level, true
		}
	}
	return "", false
}

// LooksLikeSkill rejects anything containing a stopword, then accepts short
// phrases and anything mentioning a known technology.
func (c *Classifier) LooksLikeSkill(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len([]rune(text)) > 40 || !strings.ContainsFunc(text, unicode.IsLetter) {
		return false
	}
	if c.hasStopword(text) {
		return false
	}
	if len(strings.Fields(text)) <= 3 {
		return true
	}
	return c.ContainsTechnology(text)
}

func (c *Classifier) hasStopword(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range c.stopPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, w := range wordSplitRegex.Split(lower, -1) {
		if c.stopWords[strings.Trim(w, ".")] {
			return true
		}
	}
	return false
}

// Technology returns the canonical spelling when text is exactly a dictionary term.
func (c *Classifier) Technology(text string) (string, bool) {
	canon, ok := c.techCanonical[strings.ToLower(strings.TrimSpace(text))]
	return canon, ok
}

// ContainsTechnology reports a dictionary term appearing as a whole word.
func (c *Classifier) ContainsTechnology(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for key := range c.techCanonical {
		idx := strings.Index(lower, key)
		for idx >= 0 {
			end := idx + len(key)
			if !isWordByte(lower[idx-1]) && !isWordByte(lower[end]) {
				return true
			}
			next := strings.Index(lower[idx+1:], key)
			if next < 0 {
				break
			}
			idx += next + 1
		}
	}
	return false
}

// Technologies returns the dictionary in canonical spelling, longest first.
func (c *Classifier) Technologies() []string {
	out := make([]string, len(c.techLongestFrom))
	copy(out, c.techLongestFrom)
	return out
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}
