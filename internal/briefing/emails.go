package briefing

import (
	"context"
	"fmt"
	"strings"

	"github.com/amarchal/majordome/internal/domain"
	"github.com/amarchal/majordome/internal/intelligence"
)

const (
	digestEmailLookbackHours = 48
	digestEmailMax           = 15
	digestActionItemMax      = 6
)

// CheckEmailsSummary digests recent mailbox activity. The LLM digest adds
// proposed action items; when it fails the result degrades to a bare
// listing grouped by unread and important.
func (a *Aggregator) CheckEmailsSummary(ctx context.Context) (string, error) {
	if a.emails == nil {
		return "", fmt.Errorf("no email provider configured")
	}

	emails, err := a.emails.ListRecent(ctx, digestEmailLookbackHours, digestEmailMax)
	if err != nil {
		return "", fmt.Errorf("fetching recent emails: %w", err)
	}
	if len(emails) == 0 {
		return "Aucun email important dans les dernières 48h.", nil
	}

	digest, err := a.extract.SummarizeEmails(ctx, emails)
	if err == nil && (digest.Summary != "" || len(digest.ActionItems) > 0) {
		return renderDigest(len(emails), digest.Summary, digest.ActionItems), nil
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("llm email digest failed, using bare listing")
	}
	return bareEmailListing(emails), nil
}

func renderDigest(count int, summary string, actions []intelligence.EmailActionItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Résumé (%d emails)\n\n%s\n", count, strings.TrimSpace(summary))

	if len(actions) > 0 {
		b.WriteString("\nActions proposées:\n")
		for i, item := range actions {
			if i == digestActionItemMax {
				break
			}
			due := ""
			if item.DueDate != nil && *item.DueDate != "" {
				due = fmt.Sprintf(" (due %s)", *item.DueDate)
			}
			priority := item.Priority
			if priority == "" {
				priority = "normal"
			}
			fmt.Fprintf(&b, "- [%s] %s%s\n", priority, item.Title, due)
		}
	}
	return strings.TrimSpace(b.String())
}

func bareEmailListing(emails []domain.EmailSummary) string {
	var unread, important []domain.EmailSummary
	for _, e := range emails {
		if e.IsUnread {
			unread = append(unread, e)
		}
		if e.IsImportant {
			important = append(important, e)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Emails (%d récents)\n", len(emails))

	if len(unread) > 0 {
		fmt.Fprintf(&b, "\nNon lus (%d):\n", len(unread))
		for _, e := range capEmails(unread, 5) {
			fmt.Fprintf(&b, "- %s: %s\n", truncate(senderName(e.From), 20), truncate(e.Subject, 40))
		}
	}
	if len(important) > 0 {
		fmt.Fprintf(&b, "\nImportants (%d):\n", len(important))
		for _, e := range capEmails(important, 3) {
			fmt.Fprintf(&b, "- %s\n", truncate(e.Subject, 50))
		}
	}
	return strings.TrimSpace(b.String())
}
