package extract

import (
	"strings"
	"testing"

	"go-jobboard-scraper/internal/classify"
	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/rules"
	"go-jobboard-scraper/internal/skills"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullCard = `
<div class="group relative w-full">
  <div class="rounded-lg border border-neutral-800 bg-black text-card-foreground">
    <div class="flex items-center gap-3">
      <img alt="TechCorp Inc." src="/logo.png">
      <div>
        <p class="text-xs font-medium text-neutral-500 uppercase tracking-wide mb-1">TechCorp Inc.</p>
        <div class="text-base sm:text-lg font-semibold leading-tight tracking-tight text-white">Senior Backend Engineer</div>
      </div>
      <div class="inline-flex items-center rounded-full border px-2.5 py-0.5 text-xs">Full Time</div>
    </div>
    <div class="flex gap-4">
      <div class="flex items-center"><svg class="lucide lucide-map-pin"></svg><span class="font-medium">Bangalore, India</span></div>
      <div class="flex items-center"><svg class="lucide lucide-clock"></svg><span class="font-medium">3-5 years</span></div>
    </div>
    <p class="text-sm text-neutral-300 leading-relaxed line-clamp-3">We are looking for a backend engineer to design and scale our payments platform using Go and PostgreSQL.</p>
    <div class="flex flex-wrap gap-2">
      <span class="skill-tag">Go</span><span class="skill-tag">PostgreSQL</span><span class="skill-tag">Kubernetes</span>
    </div>
    <div class="border-t py-3 flex justify-between">
      <span class="text-xs text-neutral-500">Compensation</span>
      <span class="text-sm font-semibold text-neutral-200">18-25 LPA</span>
    </div>
    <div class="flex gap-2">
      <a href="/jobs/senior-backend-engineer-techcorp" class="border-neutral-700 bg-neutral-900">View Details</a>
      <a href="https://careers.techcorp.example/apply/123">Apply Now</a>
    </div>
  </div>
</div>`

// textOnlyCard has none of the styled classes, so every field falls through
// to the generic or keyword tiers.
const textOnlyCard = `
<div class="group relative w-full">
  <span>Acme Labs</span>
  <span>Data Analyst</span>
  <p>Internship for students. Fully remote. Stipend ₹25,000 per month, flexible hours for learners.</p>
  <a href="/jobs/data-analyst-acme">Open</a>
</div>`

const noTitleCard = `
<div class="group relative w-full">
  <div class="inline-flex rounded-full px-2.5 py-0.5">Full Time</div>
  <a href="/jobs/unknown">View Details</a>
  <a href="/jobs/unknown/apply">Apply</a>
</div>`

func newTestExtractor(t *testing.T, normalize bool) *Extractor {
	cls := classify.MustNew(rules.DefaultVocabulary())
	opts := Options{BaseURL: "https://devsunite.com"}
	if normalize {
		opts.Normalizer = skills.New(cls, skills.Options{})
	}
	e, err := New(cls, rules.DefaultSelectors(), opts)
	require.NoError(t, err)
	return e
}

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	require.NoError(t, err)
	return doc
}

func TestExtractCard_StructuredCard(t *testing.T) {
	e := newTestExtractor(t, false)
	doc := mustDoc(t, fullCard)

	cards := e.FindCards(doc)
	require.Len(t, cards, 1)

	job, ok := e.ExtractCard(cards[0])
	require.True(t, ok)

	assert.Equal(t, "Senior Backend Engineer", job.Title)
	assert.Equal(t, "TechCorp Inc.", job.Company)
	assert.Equal(t, models.JobTypeFullTime, job.JobType)
	assert.Equal(t, "Bangalore, India", job.Location)
	assert.Equal(t, "3-5 years", job.ExperienceRequired)
	assert.True(t, strings.HasPrefix(job.ShortDescription, "We are looking for a backend engineer"))
	assert.Equal(t, "18-25 LPA", job.CompensationText)
	require.NotNil(t, job.MinSalary)
	assert.InDelta(t, 1800000, *job.MinSalary, 0.001)
	assert.InDelta(t, 2500000, *job.MaxSalary, 0.001)
	assert.Equal(t, "INR", job.SalaryCurrency)
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, job.Skills)
	assert.Equal(t, "https://devsunite.com/jobs/senior-backend-engineer-techcorp", job.ViewDetailsLink)
	assert.Equal(t, "https://careers.techcorp.example/apply/123", job.ApplyLink)
	assert.False(t, job.DetailsScraped)
}

func TestExtractCard_KeywordFallbacks(t *testing.T) {
	e := newTestExtractor(t, false)
	doc := mustDoc(t, textOnlyCard)

	cards := e.FindCards(doc)
	require.Len(t, cards, 1)

	job, ok := e.ExtractCard(cards[0])
	require.True(t, ok)

	assert.Equal(t, "Data Analyst", job.Title)
	assert.Equal(t, "Acme Labs", job.Company)
	assert.Equal(t, models.JobTypeInternship, job.JobType)
	assert.Equal(t, "Remote", job.Location)
	assert.Equal(t, models.NotSpecified, job.ExperienceRequired)
	assert.Equal(t, "₹25,000 per month", job.CompensationText)
	assert.Equal(t, "https://devsunite.com/jobs/data-analyst-acme", job.ViewDetailsLink)
	assert.Equal(t, job.ViewDetailsLink, job.ApplyLink, "detail link substitutes a missing apply link")
}

func TestExtractCard_RequiresTitleAndCompany(t *testing.T) {
	e := newTestExtractor(t, false)
	doc := mustDoc(t, noTitleCard)

	cards := e.FindCards(doc)
	require.Len(t, cards, 1, "view details + apply makes the card plausible")

	_, ok := e.ExtractCard(cards[0])
	assert.False(t, ok)
}

func TestFindCards_PlausibilityAndNesting(t *testing.T) {
	e := newTestExtractor(t, false)

	// the decorative group div has no company, role or links and is ignored
	doc := mustDoc(t, `<div class="group relative w-full"><span>Newsletter</span></div>`)
	assert.Empty(t, e.FindCards(doc))

	// a wrapper matching the same selector does not swallow its cards
	doc = mustDoc(t, `<div class="group relative w-full">`+fullCard+fullCard+`</div>`)
	assert.Len(t, e.FindCards(doc), 2)
}

func TestProbe(t *testing.T) {
	e := newTestExtractor(t, false)

	count, sig := e.Probe("<html><body>" + fullCard + textOnlyCard + "</body></html>")
	assert.Equal(t, 2, count)
	assert.Equal(t, "Senior Backend Engineer @ TechCorp Inc.", sig)

	count, sig = e.Probe("<html><body><p>nothing here</p></body></html>")
	assert.Zero(t, count)
	assert.Empty(t, sig)
}

func TestNew_RejectsBadSelector(t *testing.T) {
	sel := rules.DefaultSelectors()
	sel.Cards = []string{"div[class*="}
	_, err := New(classify.MustNew(rules.DefaultVocabulary()), sel, Options{BaseURL: "https://devsunite.com"})
	assert.Error(t, err)
}
