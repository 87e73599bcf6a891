package models

import "time"

type WebhookStatus string

const (
	WebhookActive   WebhookStatus = "active"
	WebhookInactive WebhookStatus = "inactive"
	WebhookFailed   WebhookStatus = "failed"
)

func (s WebhookStatus) Valid() bool {
	switch s {
	case WebhookActive, WebhookInactive, WebhookFailed:
		return true
	}
	return false
}

type Webhook struct {
	ID              string        `json:"id"`
	OrgID           string        `json:"org_id"`
	Name            *string       `json:"name"`
	URL             string        `json:"url"`
	Events          []string      `json:"events"` // JSON array in DB
	Secret          string        `json:"-"`
	Status          WebhookStatus `json:"status"`
	LastTriggeredAt *time.Time    `json:"last_triggered_at,omitempty"`
	FailureCount    int           `json:"failure_count"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// WebhookEvent is the envelope POSTed to a webhook URL.
type WebhookEvent struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}
