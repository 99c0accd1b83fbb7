package domain

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

type Category string

const (
	CategoryApplication         Category = "APPLICATION"
	CategoryInterviewScheduling Category = "INTERVIEW_SCHEDULING"
	CategoryInterviewFollowup   Category = "INTERVIEW_FOLLOWUP"
	CategoryAssessment          Category = "ASSESSMENT"
	CategoryOffer               Category = "OFFER"
	CategoryOnboarding          Category = "ONBOARDING"
	CategoryGeneralFollowup     Category = "GENERAL_FOLLOWUP"
	CategoryOther               Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryApplication,
	CategoryInterviewScheduling,
	CategoryInterviewFollowup,
	CategoryAssessment,
	CategoryOffer,
	CategoryOnboarding,
	CategoryGeneralFollowup,
	CategoryOther,
}

// ParseCategory accepts the canonical names case-insensitively, with spaces
// or hyphens in place of underscores.
func ParseCategory(s string) (Category, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, c := range Categories {
		if string(c) == normalized {
			return c, true
		}
	}
	return "", false
}

type CategorySource string

const (
	CategorySourceAI     CategorySource = "AI"
	CategorySourceManual CategorySource = "MANUAL"
)

type Attachment struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Attachments is stored as a jsonb array.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Attachments) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("attachments: unsupported column type")
	}
	return json.Unmarshal(data, a)
}

type EmailThread struct {
	ID               int64     `db:"id"`
	CandidateID      string    `db:"candidate_id"`
	ThreadKey        string    `db:"thread_key"`
	ProviderThreadID *string   `db:"provider_thread_id"`
	Subject          string    `db:"subject"`
	CreatedAt        time.Time `db:"created_at"`
}

type CandidateEmail struct {
	ID                 int64           `db:"id" json:"id"`
	ThreadID           int64           `db:"thread_id" json:"threadId"`
	CandidateID        string          `db:"candidate_id" json:"candidateId"`
	ProviderMessageID  string          `db:"provider_message_id" json:"providerMessageId"`
	Direction          Direction       `db:"direction" json:"direction"`
	FromEmail          string          `db:"from_email" json:"fromEmail"`
	FromName           string          `db:"from_name" json:"fromName"`
	ToEmails           []string        `db:"-" json:"toEmails"`
	Subject            string          `db:"subject" json:"subject"`
	SentAt             time.Time       `db:"sent_at" json:"sentAt"`
	TextBody           string          `db:"text_body" json:"textBody"`
	HTMLBody           string          `db:"html_body" json:"htmlBody"`
	Attachments        Attachments     `db:"attachments" json:"attachments"`
	IsInHiringPeriod   bool            `db:"is_in_hiring_period" json:"isInHiringPeriod"`
	Category           *Category       `db:"category" json:"category"`
	CategoryConfidence *float64        `db:"category_confidence" json:"categoryConfidence"`
	CategorySource     *CategorySource `db:"category_source" json:"categorySource"`
	CategorizedBy      *string         `db:"categorized_by" json:"categorizedBy"`
	CategorizedAt      *time.Time      `db:"categorized_at" json:"categorizedAt"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
}

// RawMessage is a provider message normalized by a connector but not yet
// validated. Header values are kept verbatim.
type RawMessage struct {
	ProviderMessageID string
	ProviderThreadID  string
	From              string
	To                string
	Cc                string
	Subject           string
	SentAt            time.Time
	TextBody          string
	HTMLBody          string
	Attachments       []Attachment
}

var ErrInvalidMessage = errors.New("invalid message")

func (m RawMessage) Validate() error {
	if strings.TrimSpace(m.ProviderMessageID) == "" {
		return fmt.Errorf("%w: missing provider message id", ErrInvalidMessage)
	}
	if m.SentAt.IsZero() {
		return fmt.Errorf("%w: missing sent time", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.From) == "" {
		return fmt.Errorf("%w: missing sender", ErrInvalidMessage)
	}
	for _, a := range m.Attachments {
		if a.Size < 0 {
			return fmt.Errorf("%w: negative attachment size for %q", ErrInvalidMessage, a.Filename)
		}
	}
	return nil
}

// ThreadKey falls back to the message id so that messages without a provider
// thread become single-message threads.
func (m RawMessage) ThreadKey() string {
	if m.ProviderThreadID != "" {
		return m.ProviderThreadID
	}
	return m.ProviderMessageID
}

type EmailFilter struct {
	Category       *Category
	Uncategorized  bool
	InHiringPeriod *bool
	Ascending      bool
	Limit          int
}

type Classification struct {
	Category   Category
	Confidence float64
}

type CategoryStats struct {
	Total          int              `json:"total"`
	InHiringPeriod int              `json:"inHiringPeriod"`
	Uncategorized  int              `json:"uncategorized"`
	ByCategory     map[Category]int `json:"byCategory"`
}
