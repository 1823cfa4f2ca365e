// Package extract pulls job postings out of rendered listing and detail pages.
// Every field follows the same protocol: high-precision selectors, then
// generic class patterns, then a keyword or regex scan of the whole fragment.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"go-jobboard-scraper/internal/classify"
	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/rules"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultMaxCardSkills       = 10
	DefaultMaxDetailSkills     = 15
	DefaultShortDescriptionLen = 200
	DefaultCurrency            = "INR"

	minTitleLen       = 4
	maxTitleLen       = 99
	maxCompanyLen     = 49
	maxLocationLen    = 49
	maxExperienceLen  = 29
	minDescriptionLen = 51
	maxCardSkillLen   = 29
	signatureLen      = 120
)

// SkillNormalizer cleans the raw skill strings found on a detail page.
type SkillNormalizer interface {
	Normalize(raw []string) []string
}

type Options struct {
	BaseURL             string
	MaxCardSkills       int
	MaxDetailSkills     int
	ShortDescriptionLen int
	DefaultCurrency     string
	Normalizer          SkillNormalizer
}

type cascades struct {
	cards                             Cascade
	title, titleFallback              Cascade
	company, companyFallback          Cascade
	badge                             Cascade
	location, locationFallback        Cascade
	experience, experienceFallback    Cascade
	description, descriptionFallback  Cascade
	compensation, cardSkills          Cascade
	detailTitle, detailCompany        Cascade
	detailBody, detailBodyFallback    Cascade
	detailSkillTags, detailSkillsPage Cascade
}

type Extractor struct {
	cls  *classify.Classifier
	sel  rules.Selectors
	c    cascades
	base *url.URL
	opts Options
}

func New(cls *classify.Classifier, sel rules.Selectors, opts Options) (*Extractor, error) {
	if opts.MaxCardSkills <= 0 {
		opts.MaxCardSkills = DefaultMaxCardSkills
	}
	if opts.MaxDetailSkills <= 0 {
		opts.MaxDetailSkills = DefaultMaxDetailSkills
	}
	if opts.ShortDescriptionLen <= 0 {
		opts.ShortDescriptionLen = DefaultShortDescriptionLen
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = DefaultCurrency
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
	}

	e := &Extractor{cls: cls, sel: sel, base: base, opts: opts}

	lists := []struct {
		dst *Cascade
		src []string
	}{
		{&e.c.cards, sel.Cards},
		{&e.c.title, sel.Title},
		{&e.c.titleFallback, sel.TitleFallback},
		{&e.c.company, sel.Company},
		{&e.c.companyFallback, sel.CompanyFallback},
		{&e.c.badge, sel.JobTypeBadge},
		{&e.c.location, sel.Location},
		{&e.c.locationFallback, sel.LocationFallback},
		{&e.c.experience, sel.Experience},
		{&e.c.experienceFallback, sel.ExperienceFallback},
		{&e.c.description, sel.Description},
		{&e.c.descriptionFallback, sel.DescriptionFallback},
		{&e.c.compensation, sel.Compensation},
		{&e.c.cardSkills, sel.CardSkills},
		{&e.c.detailTitle, sel.Detail.Title},
		{&e.c.detailCompany, sel.Detail.Company},
		{&e.c.detailBody, sel.Detail.DescriptionBody},
		{&e.c.detailBodyFallback, sel.Detail.DescriptionFallback},
		{&e.c.detailSkillTags, sel.Detail.SkillTags},
		{&e.c.detailSkillsPage, sel.Detail.SkillFallback},
	}
	for _, l := range lists {
		c, err := Compile(l.src)
		if err != nil {
			return nil, err
		}
		*l.dst = c
	}

	return e, nil
}

// FindCards locates job cards with the card cascade. A selector's result is
// used only if at least one member looks like a job card.
func (e *Extractor) FindCards(doc *goquery.Document) []*goquery.Selection {
	return e.c.cards.Group(doc.Selection, e.plausibleCard)
}

func (e *Extractor) plausibleCard(card *goquery.Selection) bool {
	if alt, ok := card.Find("img[alt]").First().Attr("alt"); ok && strings.TrimSpace(alt) != "" {
		return true
	}
	text := cleanText(card)
	if e.cls.LooksLikeCompany(text) || e.cls.LooksLikeRole(text) {
		return true
	}
	hasDetails, hasApply := false, false
	card.Find("a").Each(func(_ int, a *goquery.Selection) {
		t := strings.ToLower(cleanText(a))
		if strings.Contains(t, "view details") {
			hasDetails = true
		}
		if strings.Contains(t, "apply") {
			hasApply = true
		}
	})
	return hasDetails && hasApply
}

// Probe counts the cards in a listing snapshot and returns an identifying
// signature of the first one. Used to tell whether a page actually changed.
func (e *Extractor) Probe(htmlSnapshot string) (int, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSnapshot))
	if err != nil {
		return 0, ""
	}
	cards := e.FindCards(doc)
	if len(cards) == 0 {
		return 0, ""
	}
	first := cards[0]
	sig, ok := e.title(first)
	if !ok {
		return len(cards), ShortDescription(cleanText(first), signatureLen)
	}
	if company, found := e.company(first, sig); found {
		sig += " @ " + company
	}
	return len(cards), sig
}

// ExtractCard builds a posting from one card. It reports false when the card
// has no usable title or company.
func (e *Extractor) ExtractCard(card *goquery.Selection) (models.JobPosting, bool) {
	title, ok := e.title(card)
	if !ok {
		return models.JobPosting{}, false
	}
	company, ok := e.company(card, title)
	if !ok {
		return models.JobPosting{}, false
	}

	job := models.NewJobPosting(title, company)
	job.JobType = e.jobType(card)
	job.Location = e.location(card)
	job.ExperienceRequired = e.experience(card)
	if desc, ok := e.description(card); ok {
		job.ShortDescription = ShortDescription(desc, e.opts.ShortDescriptionLen)
	}
	job.CompensationText = e.compensation(card)
	job.Skills = e.cardSkills(card)
	job.ApplyLink, job.ViewDetailsLink = e.links(card)
	e.ApplySalary(&job)

	return job, true
}

// ApplySalary refreshes the numeric salary fields from CompensationText.
func (e *Extractor) ApplySalary(job *models.JobPosting) {
	s := ParseCompensation(job.CompensationText, e.opts.DefaultCurrency)
	job.MinSalary, job.MaxSalary = s.Min, s.Max
	if job.CompensationText == "" {
		job.SalaryCurrency = e.opts.DefaultCurrency
		return
	}
	job.SalaryCurrency = s.Currency
}

func (e *Extractor) validTitle(text string) bool {
	n := len([]rune(text))
	return n >= minTitleLen && n <= maxTitleLen && !e.cls.IsJobTypeBadge(text)
}

func (e *Extractor) title(card *goquery.Selection) (string, bool) {
	if t, ok := e.c.title.FirstText(card, e.validTitle); ok {
		return t, true
	}
	if t, ok := e.c.titleFallback.FirstText(card, e.validTitle); ok {
		return t, true
	}
	for _, t := range leaves(card) {
		if e.validTitle(t) && e.cls.LooksLikeRole(t) {
			return t, true
		}
	}
	return "", false
}

func (e *Extractor) validCompany(title string) func(string) bool {
	return func(text string) bool {
		n := len([]rune(text))
		return n > 1 && n <= maxCompanyLen &&
			!strings.EqualFold(text, title) &&
			!e.cls.HasCompanyRejectWord(text) &&
			!e.cls.IsJobTypeBadge(text)
	}
}

func (e *Extractor) company(card *goquery.Selection, title string) (string, bool) {
	accept := e.validCompany(title)

	var alt string
	card.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		a, _ := img.Attr("alt")
		a = collapse(a)
		if a != "" && accept(a) {
			alt = a
			return false
		}
		return true
	})
	if alt != "" {
		return alt, true
	}

	if t, ok := e.c.company.FirstText(card, accept); ok {
		return t, true
	}
	if t, ok := e.c.companyFallback.FirstText(card, accept); ok {
		return t, true
	}
	for _, t := range leaves(card) {
		if e.cls.LooksLikeCompany(t) && accept(t) {
			return t, true
		}
	}
	return "", false
}

func (e *Extractor) jobType(card *goquery.Selection) models.JobType {
	var found models.JobType
	e.c.badge.FirstText(card, func(t string) bool {
		jt, ok := e.cls.JobType(t)
		if ok {
			found = jt
		}
		return ok
	})
	if found != "" {
		return found
	}
	if jt, ok := e.cls.JobType(cleanText(card)); ok {
		return jt
	}
	return models.JobTypeFullTime
}

func (e *Extractor) validLocation(text string) bool {
	n := len([]rune(text))
	return n > 1 && n <= maxLocationLen && !e.cls.HasLocationRejectWord(text) && !e.cls.IsJobTypeBadge(text)
}

func (e *Extractor) location(card *goquery.Selection) string {
	if t, ok := e.c.location.FirstText(card, e.validLocation); ok {
		return t
	}
	if t, ok := e.c.locationFallback.FirstText(card, e.validLocation); ok {
		return t
	}
	if loc, ok := e.cls.LocationKeyword(cleanText(card)); ok {
		return loc
	}
	return models.NotSpecified
}

func (e *Extractor) validExperience(text string) bool {
	if len([]rune(text)) > maxExperienceLen {
		return false
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "year") || strings.Contains(lower, "experience") {
		return true
	}
	_, ok := e.cls.ExperienceLevel(text)
	return ok
}

func (e *Extractor) experience(card *goquery.Selection) string {
	if t, ok := e.c.experience.FirstText(card, e.validExperience); ok {
		return t
	}
	if t, ok := e.c.experienceFallback.FirstText(card, e.validExperience); ok {
		return t
	}
	if level, ok := e.cls.ExperienceLevel(cleanText(card)); ok {
		return level
	}
	return models.NotSpecified
}

func (e *Extractor) validDescription(text string) bool {
	return len([]rune(text)) >= minDescriptionLen && !e.cls.HasDescriptionRejectWord(text)
}

func (e *Extractor) description(card *goquery.Selection) (string, bool) {
	if t, ok := e.c.description.FirstText(card, e.validDescription); ok {
		return t, true
	}
	if t, ok := e.c.descriptionFallback.FirstText(card, e.validDescription); ok {
		return t, true
	}
	for _, t := range leaves(card) {
		if e.validDescription(t) {
			return t, true
		}
	}
	return "", false
}

func (e *Extractor) compensation(card *goquery.Selection) string {
	if t, ok := e.c.compensation.FirstText(card, e.cls.LooksLikeCompensation); ok {
		return t
	}
	if t, ok := labelValue(card, []string{"compensation", "salary"}, nil); ok {
		return t
	}
	if t, ok := findCompensation(cleanText(card)); ok {
		return t
	}
	return ""
}

func (e *Extractor) cardSkills(card *goquery.Selection) []string {
	raw := e.c.cardSkills.AllTexts(card, func(raw, clean string) bool {
		return len([]rune(clean)) <= maxCardSkillLen &&
			!strings.Contains(strings.TrimSpace(raw), "\n") &&
			!e.cls.IsJobTypeBadge(clean) &&
			!e.cls.IsLocationWord(clean) &&
			!e.cls.LooksLikeCompensation(clean)
	})

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == e.opts.MaxCardSkills {
			break
		}
	}
	return out
}

// links classifies the card's anchors by text, then class, then href shape.
func (e *Extractor) links(card *goquery.Selection) (apply, details string) {
	card.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		text := strings.ToLower(cleanText(a))
		class, _ := a.Attr("class")

		switch {
		case strings.Contains(text, "view details") || text == "details":
			if details == "" {
				details = e.resolve(href)
			}
		case strings.Contains(text, "apply"):
			if apply == "" {
				apply = e.resolve(href)
			}
		case containsAnyFold(class, e.sel.DetailLinkClasses):
			if details == "" {
				details = e.resolve(href)
			}
		case e.sel.DetailHrefPattern != "" && strings.Contains(href, e.sel.DetailHrefPattern):
			if details == "" {
				details = e.resolve(href)
			}
		}
	})
	if apply == "" {
		apply = details
	}
	return apply, details
}

func (e *Extractor) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.base.ResolveReference(ref).String()
}

func containsAnyFold(s string, subs []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if sub != "" && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
