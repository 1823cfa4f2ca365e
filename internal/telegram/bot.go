// Package telegram posts run summaries and newly found postings to a chat.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/pkg/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	// postings sent one by one; the rest are only counted in the summary
	defaultMaxJobMessages = 10
	defaultSendInterval   = time.Second
	maxErrorLines         = 5
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api            sender
	chatID         int64
	maxJobMessages int
	// pause between messages to stay under the flood limit
	sendInterval time.Duration
	log          *logging.Logger
}

var _ scraper.Notifier = (*Bot)(nil)

func NewBot(token string, chatID int64, log *logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newBot(api, chatID, log), nil
}

func newBot(api sender, chatID int64, log *logging.Logger) *Bot {
	if log == nil {
		log = logging.Nop()
	}
	return &Bot{
		api:            api,
		chatID:         chatID,
		maxJobMessages: defaultMaxJobMessages,
		sendInterval:   defaultSendInterval,
		log:            log,
	}
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// NotifyRun sends up to maxJobMessages new postings, then the run summary.
func (b *Bot) NotifyRun(ctx context.Context, res scraper.RunResult, created []models.JobPosting) error {
	for i, job := range created {
		if i >= b.maxJobMessages {
			break
		}
		if err := b.SendJob(job); err != nil {
			b.log.Warn("⚠️ Failed to send job to Telegram", "title", job.Title, "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.sendInterval):
		}
	}
	if err := b.SendStatus(formatRunSummary(res, len(created))); err != nil {
		return err
	}
	if !res.Success && len(res.Errors) > 0 {
		return b.SendFailure(res.Errors)
	}
	return nil
}

func (b *Bot) SendJob(job models.JobPosting) error {
	msg := tgbotapi.NewMessage(b.chatID, formatJob(job))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var row []tgbotapi.InlineKeyboardButton
	if job.ViewDetailsLink != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.ViewDetailsLink))
	}
	if job.ApplyLink != "" && job.ApplyLink != job.ViewDetailsLink {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("📝 Apply", job.ApplyLink))
	}
	if len(row) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	_, err := b.api.Send(msg)
	return err
}

// SendFailure lists the errors of a failed run.
func (b *Bot) SendFailure(errs []string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(b.chatID, formatFailure(errs)))
	return err
}

func (b *Bot) SendStatus(message string) error {
	msg := tgbotapi.NewMessage(b.chatID, "ℹ️ "+message)
	_, err := b.api.Send(msg)
	return err
}

func formatJob(job models.JobPosting) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💼 *%s*\n", escapeMarkdown(job.Title))
	fmt.Fprintf(&sb, "🏢 %s\n", escapeMarkdown(job.Company))
	fmt.Fprintf(&sb, "📍 %s\n", escapeMarkdown(orNA(job.Location)))
	fmt.Fprintf(&sb, "🕒 %s · %s\n", escapeMarkdown(jobTypeLabel(job.JobType)), escapeMarkdown(orNA(job.ExperienceRequired)))
	if job.CompensationText != "" {
		fmt.Fprintf(&sb, "💰 %s\n", escapeMarkdown(job.CompensationText))
	}
	if len(job.Skills) > 0 {
		fmt.Fprintf(&sb, "🛠 %s\n", escapeMarkdown(strings.Join(job.Skills, ", ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatRunSummary is plain text; SendStatus does not use Markdown.
func formatRunSummary(res scraper.RunResult, created int) string {
	status := "✅ Scrape finished"
	if !res.Success {
		status = "❌ Scrape failed"
	}
	s := fmt.Sprintf("%s: %d scraped, %d saved, %d new, %d pages",
		status, res.JobsScraped, res.JobsSaved, created, res.PagesScraped)
	if n := len(res.Errors); n > 0 {
		s += fmt.Sprintf("\n⚠️ %d error(s), first: %s", n, res.Errors[0])
	}
	return s
}

func formatFailure(errs []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "❌ Run errors (%d):", len(errs))
	for i, e := range errs {
		if i == maxErrorLines {
			fmt.Fprintf(&sb, "\n… and %d more", len(errs)-maxErrorLines)
			break
		}
		sb.WriteString("\n• " + e)
	}
	return sb.String()
}

func jobTypeLabel(t models.JobType) string {
	switch t {
	case models.JobTypePartTime:
		return "Part Time"
	case models.JobTypeContract:
		return "Contract"
	case models.JobTypeInternship:
		return "Internship"
	default:
		return "Full Time"
	}
}

func orNA(s string) string {
	if s == "" || s == models.NotSpecified {
		return "N/A"
	}
	return s
}
