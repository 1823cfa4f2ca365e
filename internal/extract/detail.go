package extract

import (
	"strings"

	"go-jobboard-scraper/internal/models"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHeadingLen    = 40
	maxLabelValueLen = 100
	maxDetailTagLen  = 40
	containerHops    = 3
)

var headingTags = "h1, h2, h3, h4, h5, h6, strong"

// Detail holds what a job's own page adds to its card. Empty fields were not found.
type Detail struct {
	Title            string
	Company          string
	Location         string
	JobType          models.JobType
	Compensation     string
	FullDescription  string
	ShortDescription string
	Skills           []string

	// keyword-scan guesses, used when the page has no labelled value
	LocationHint string
	JobTypeHint  models.JobType
}

// Empty reports whether the page contributed nothing.
func (d Detail) Empty() bool {
	return d.Title == "" && d.Company == "" && d.Location == "" && d.JobType == "" &&
		d.Compensation == "" && d.FullDescription == "" && len(d.Skills) == 0 &&
		d.LocationHint == "" && d.JobTypeHint == ""
}

// ExtractDetail reads a job's detail page.
func (e *Extractor) ExtractDetail(doc *goquery.Document) Detail {
	root := doc.Selection
	var d Detail

	if t, ok := e.c.detailTitle.FirstText(root, e.validTitle); ok {
		d.Title = t
	}

	if img, ok := e.c.detailCompany.First(root, func(s *goquery.Selection) bool {
		alt, _ := s.Attr("alt")
		return e.validCompany(d.Title)(collapse(alt))
	}); ok {
		alt, _ := img.Attr("alt")
		d.Company = collapse(alt)
	}

	if full, ok := e.detailDescription(root); ok {
		d.FullDescription = full
		d.ShortDescription = ShortDescription(full, e.opts.ShortDescriptionLen)
	}

	d.Skills = e.detailSkills(root)

	if loc, ok := labelValue(root, e.sel.Detail.LocationLabels, e.validLocation); ok {
		d.Location = loc
	}
	if v, ok := labelValue(root, e.sel.Detail.JobTypeLabels, nil); ok {
		if jt, found := e.cls.JobType(v); found {
			d.JobType = jt
		}
	}
	if v, ok := labelValue(root, e.sel.Detail.CompensationLabels, nil); ok {
		d.Compensation = v
	}

	if d.Location == "" || d.JobType == "" {
		text := pageText(root)
		if d.Location == "" {
			d.LocationHint, _ = e.cls.LocationKeyword(text)
		}
		if d.JobType == "" {
			d.JobTypeHint, _ = e.cls.JobType(text)
		}
	}

	return d
}

// pageText is the visible body text without navigation chrome.
func pageText(root *goquery.Selection) string {
	body := root.Find("body").First()
	if body.Length() == 0 {
		body = root
	}
	body = body.Clone()
	body.Find("nav, header, footer, script, style, noscript").Remove()
	return collapse(body.Text())
}

// detailDescription prefers the container under a "Job Description" heading,
// then generic prose containers. Line breaks between paragraphs are kept.
func (e *Extractor) detailDescription(root *goquery.Selection) (string, bool) {
	if heading, ok := findHeading(root, e.sel.Detail.DescriptionHeadings); ok {
		headingText := cleanText(heading)
		container := heading.Parent()
		for hop := 0; hop < containerHops && container.Length() > 0; hop++ {
			if body, ok := e.c.detailBody.First(container, nil); ok {
				if text := blockText(body); len([]rune(text)) >= minDescriptionLen {
					return text, true
				}
			}
			text := strings.TrimSpace(strings.TrimPrefix(blockText(container), headingText))
			if len([]rune(text)) >= minDescriptionLen {
				return text, true
			}
			container = container.Parent()
		}
	}

	var text string
	_, ok := e.c.detailBodyFallback.First(root, func(s *goquery.Selection) bool {
		t := blockText(s)
		if len([]rune(t)) < minDescriptionLen {
			return false
		}
		text = t
		return true
	})
	return text, ok
}

// detailSkills scans the block under a skills heading for tag-like elements,
// falling back to page-wide tag selectors.
func (e *Extractor) detailSkills(root *goquery.Selection) []string {
	accept := func(raw, clean string) bool {
		return len([]rune(clean)) <= maxDetailTagLen && !strings.Contains(strings.TrimSpace(raw), "\n")
	}

	var raw []string
	if heading, ok := findHeading(root, e.sel.Detail.SkillHeadings); ok {
		headingText := strings.ToLower(cleanText(heading))
		container := heading.Parent()
		for hop := 0; hop < containerHops && container.Length() > 0 && len(raw) == 0; hop++ {
			for _, t := range e.c.detailSkillTags.AllTexts(container, accept) {
				if strings.ToLower(t) != headingText {
					raw = append(raw, t)
				}
			}
			container = container.Parent()
		}
	}
	if len(raw) == 0 {
		raw = e.c.detailSkillsPage.AllTexts(root, accept)
	}

	if e.opts.Normalizer != nil {
		raw = e.opts.Normalizer.Normalize(raw)
	}
	if len(raw) > e.opts.MaxDetailSkills {
		raw = raw[:e.opts.MaxDetailSkills]
	}
	return raw
}

// findHeading returns the first heading-like element whose text matches one
// of phrases, trying phrases in order.
func findHeading(root *goquery.Selection, phrases []string) (*goquery.Selection, bool) {
	headings := root.Find(headingTags)
	for _, p := range phrases {
		p = strings.ToLower(p)
		var found *goquery.Selection
		headings.EachWithBreak(func(_ int, h *goquery.Selection) bool {
			t := strings.ToLower(cleanText(h))
			if len(t) <= maxHeadingLen && strings.Contains(t, p) {
				found = h
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

// labelValue finds a leaf element reading exactly like one of labels ("Location",
// "Location:") and returns the text of the element after it: its next
// sibling, or failing that the parent's next sibling.
func labelValue(root *goquery.Selection, labels []string, accept func(string) bool) (string, bool) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		want[strings.ToLower(strings.TrimSpace(l))] = true
	}

	var value string
	root.Find("div, span, p, dt, label, h3, h4, h5, strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.ToLower(strings.TrimSuffix(ownText(s), ":"))
		if !want[strings.TrimSpace(t)] {
			return true
		}
		for _, cand := range []*goquery.Selection{s.Next(), s.Parent().Next()} {
			v := cleanText(cand)
			if v == "" || len([]rune(v)) > maxLabelValueLen {
				continue
			}
			if accept == nil || accept(v) {
				value = v
				return false
			}
		}
		return true
	})
	return value, value != ""
}
