package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	gmailapi "google.golang.org/api/gmail/v1"

	"mailsync/internal/domain"
)

// buildQuery selects mail sent from, to or copied to the counterpart inside
// the window. Gmail reads after/before as unix seconds.
func buildQuery(q domain.FetchQuery) string {
	addr := strings.ToLower(strings.TrimSpace(q.Counterpart))
	parts := []string{fmt.Sprintf("(from:%s OR to:%s OR cc:%s)", addr, addr, addr)}
	if !q.After.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", q.After.Unix()))
	}
	if !q.Before.IsZero() {
		parts = append(parts, fmt.Sprintf("before:%d", q.Before.Unix()))
	}
	return strings.Join(parts, " ")
}

func parseMessage(msg *gmailapi.Message, logger *slog.Logger) domain.RawMessage {
	raw := domain.RawMessage{
		ProviderMessageID: msg.Id,
		ProviderThreadID:  msg.ThreadId,
	}

	if msg.InternalDate > 0 {
		raw.SentAt = time.UnixMilli(msg.InternalDate).UTC()
	}

	if msg.Payload == nil {
		return raw
	}

	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			raw.Subject = sanitizeText(header.Value)
		case "from":
			raw.From = header.Value
		case "to":
			raw.To = header.Value
		case "cc":
			raw.Cc = header.Value
		case "date":
			if !raw.SentAt.IsZero() {
				continue
			}
			parsed, err := parseEmailDate(header.Value)
			if err != nil {
				logger.Warn("failed to parse date header", "message_id", msg.Id, "date", header.Value)
				continue
			}
			raw.SentAt = parsed.UTC()
		}
	}

	raw.TextBody, raw.HTMLBody = extractBodies(msg.Payload)
	raw.Attachments = extractAttachments(msg.Payload)

	return raw
}

func extractBodies(payload *gmailapi.MessagePart) (string, string) {
	var textPlain, textHTML string
	collectBodies(payload, &textPlain, &textHTML)
	return textPlain, textHTML
}

// collectBodies keeps the first text/plain and text/html parts found in
// depth-first order, converted to UTF-8.
func collectBodies(part *gmailapi.MessagePart, textPlain, textHTML *string) {
	if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
		if decoded, ok := decodeBody(part.Body.Data); ok {
			mediaType, params := partContentType(part)
			switch {
			case mediaType == "text/plain" && *textPlain == "":
				*textPlain = toUTF8(decoded, params["charset"])
			case mediaType == "text/html" && *textHTML == "":
				*textHTML = toUTF8(decoded, params["charset"])
			}
		}
	}

	for _, child := range part.Parts {
		collectBodies(child, textPlain, textHTML)
	}
}

// partContentType prefers the part's Content-Type header, which carries the
// charset, over the bare MimeType field.
func partContentType(part *gmailapi.MessagePart) (string, map[string]string) {
	value := part.MimeType
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, "Content-Type") && h.Value != "" {
			value = h.Value
			break
		}
	}
	if value == "" {
		return "", nil
	}

	var header message.Header
	header.Set("Content-Type", value)
	mediaType, params, err := header.ContentType()
	if err != nil {
		mediaType, _, _ = strings.Cut(value, ";")
		return strings.ToLower(strings.TrimSpace(mediaType)), nil
	}
	return strings.ToLower(mediaType), params
}

// toUTF8 decodes data from its declared charset. Bytes that still are not
// valid UTF-8, and NULs, are replaced since Postgres TEXT rejects them.
func toUTF8(data []byte, cs string) string {
	switch strings.ToLower(strings.TrimSpace(cs)) {
	case "", "utf-8", "utf8", "us-ascii":
	default:
		if r, err := charset.Reader(cs, bytes.NewReader(data)); err == nil {
			if converted, err := io.ReadAll(r); err == nil {
				data = converted
			}
		}
	}
	return sanitizeText(string(data))
}

func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.ReplaceAll(s, "\x00", "")
}

// decodeBody accepts padded and unpadded base64url.
func decodeBody(data string) ([]byte, bool) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return decoded, true
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return decoded, true
	}
	return nil, false
}

func extractAttachments(payload *gmailapi.MessagePart) []domain.Attachment {
	var attachments []domain.Attachment
	collectAttachments(payload.Parts, &attachments)
	return attachments
}

func collectAttachments(parts []*gmailapi.MessagePart, attachments *[]domain.Attachment) {
	for _, part := range parts {
		if part.Filename != "" {
			var size int64
			if part.Body != nil {
				size = part.Body.Size
			}
			*attachments = append(*attachments, domain.Attachment{
				Filename: part.Filename,
				Size:     size,
			})
		}

		if len(part.Parts) > 0 {
			collectAttachments(part.Parts, attachments)
		}
	}
}

func parseEmailDate(dateStr string) (time.Time, error) {
	formats := []string{
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
		time.RFC3339,
	}

	dateStr = strings.TrimSpace(dateStr)

	// Gmail sometimes appends the zone name, e.g. "(UTC)".
	if idx := strings.Index(dateStr, " ("); idx != -1 {
		dateStr = dateStr[:idx]
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
