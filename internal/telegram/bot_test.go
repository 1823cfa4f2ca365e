package telegram

import (
	"context"
	"errors"
	"testing"

	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/scraper"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func sampleJob() models.JobPosting {
	j := models.NewJobPosting("Sr. Backend Engineer (Go)", "TechCorp Inc.")
	j.Location = "Bangalore, India"
	j.ExperienceRequired = "3-5 years"
	j.CompensationText = "18-25 LPA"
	j.Skills = []string{"Go", "PostgreSQL"}
	j.ViewDetailsLink = "https://devsunite.com/jobs/sr-backend"
	j.ApplyLink = "https://careers.techcorp.example/apply/1"
	return j
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Sr\. Backend \(Go\) \- 18\+`, escapeMarkdown("Sr. Backend (Go) - 18+"))
}

func TestFormatJob(t *testing.T) {
	got := formatJob(sampleJob())
	want := "💼 *Sr\\. Backend Engineer \\(Go\\)*\n" +
		"🏢 TechCorp Inc\\.\n" +
		"📍 Bangalore, India\n" +
		"🕒 Full Time · 3\\-5 years\n" +
		"💰 18\\-25 LPA\n" +
		"🛠 Go, PostgreSQL"
	assert.Equal(t, want, got)

	bare := models.NewJobPosting("Analyst", "Globex")
	bare.JobType = models.JobTypeInternship
	assert.Equal(t, "💼 *Analyst*\n🏢 Globex\n📍 N/A\n🕒 Internship · N/A", formatJob(bare))
}

func TestFormatRunSummary(t *testing.T) {
	ok := scraper.RunResult{Success: true, JobsScraped: 12, JobsSaved: 12, PagesScraped: 3}
	assert.Equal(t, "✅ Scrape finished: 12 scraped, 12 saved, 4 new, 3 pages", formatRunSummary(ok, 4))

	failed := scraper.RunResult{Errors: []string{"start browser: no chromium", "other"}}
	assert.Equal(t, "❌ Scrape failed: 0 scraped, 0 saved, 0 new, 0 pages\n⚠️ 2 error(s), first: start browser: no chromium",
		formatRunSummary(failed, 0))
}

func TestNotifyRun(t *testing.T) {
	fs := &fakeSender{}
	b := newBot(fs, 42, nil)
	b.sendInterval = 0
	b.maxJobMessages = 2

	created := []models.JobPosting{sampleJob(), sampleJob(), sampleJob()}
	err := b.NotifyRun(context.Background(), scraper.RunResult{Success: true, JobsSaved: 3}, created)
	require.NoError(t, err)

	require.Len(t, fs.sent, 3, "two postings plus the summary")
	assert.Equal(t, int64(42), fs.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, fs.sent[0].ParseMode)
	markup, ok := fs.sent[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Contains(t, fs.sent[2].Text, "3 new")
	assert.Empty(t, fs.sent[2].ParseMode)
}

func TestNotifyRun_FailedRunListsErrors(t *testing.T) {
	fs := &fakeSender{}
	b := newBot(fs, 7, nil)
	b.sendInterval = 0

	res := scraper.RunResult{Errors: []string{"start browser: no chromium"}}
	require.NoError(t, b.NotifyRun(context.Background(), res, nil))

	require.Len(t, fs.sent, 2, "summary plus error list")
	assert.Contains(t, fs.sent[0].Text, "Scrape failed")
	assert.Equal(t, "❌ Run errors (1):\n• start browser: no chromium", fs.sent[1].Text)
}

func TestFormatFailure(t *testing.T) {
	errs := []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7"}
	assert.Equal(t, "❌ Run errors (7):\n• e1\n• e2\n• e3\n• e4\n• e5\n… and 2 more", formatFailure(errs))
}

func TestNotifyRun_SendFailures(t *testing.T) {
	fs := &fakeSender{err: errors.New("429 Too Many Requests")}
	b := newBot(fs, 1, nil)
	b.sendInterval = 0

	err := b.NotifyRun(context.Background(), scraper.RunResult{}, []models.JobPosting{sampleJob()})
	assert.Error(t, err, "summary failure is returned")
	assert.Len(t, fs.sent, 2)
}
