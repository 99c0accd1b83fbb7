package openai

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"mailsync/internal/domain"
)

var systemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}

	return fmt.Sprintf(`You classify emails exchanged between a company's hiring team and a job candidate.

Pick exactly one category from: %s.

- APPLICATION: the candidate applies, or the company acknowledges an application.
- INTERVIEW_SCHEDULING: proposing, confirming or moving interview slots.
- INTERVIEW_FOLLOWUP: thank-you notes, feedback or next steps after an interview.
- ASSESSMENT: take-home tasks, tests and their submissions.
- OFFER: offer letters, compensation and negotiation.
- ONBOARDING: paperwork, start dates and first-day logistics after acceptance.
- GENERAL_FOLLOWUP: status checks and reminders not tied to a single stage.
- OTHER: anything else.

Respond with a JSON object only: {"category": "<CATEGORY>", "confidence": <number between 0 and 1>}`,
		strings.Join(names, ", "))
}

func (c *Classifier) buildPrompt(email *domain.CandidateEmail) string {
	body := email.TextBody
	if strings.TrimSpace(body) == "" && email.HTMLBody != "" {
		body = stripHTML(email.HTMLBody)
	}
	body = truncate(strings.TrimSpace(body), c.maxBodyChars)

	var b strings.Builder
	fmt.Fprintf(&b, "Direction: %s\n", email.Direction)
	fmt.Fprintf(&b, "From: %s\n", formatSender(email.FromName, email.FromEmail))
	fmt.Fprintf(&b, "To: %s\n", strings.Join(email.ToEmails, ", "))
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\n", email.SentAt.UTC().Format(time.RFC1123Z))
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func formatSender(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// stripHTML returns the visible text of an HTML body.
func stripHTML(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		b    strings.Builder
		skip int
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				skip++
			case "br", "p", "div", "tr", "li":
				b.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteString(" ")
			}
		}
	}
}
