package models

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	ActionCreated     AuditAction = "created"
	ActionUpdated     AuditAction = "updated"
	ActionDeleted     AuditAction = "deleted"
	ActionRevoked     AuditAction = "revoked"
	ActionRegenerated AuditAction = "regenerated"
	ActionTested      AuditAction = "tested"
	ActionToggled     AuditAction = "toggled"
)

type ResourceType string

const (
	ResourceAPIKey            ResourceType = "api_key"
	ResourceWebhook           ResourceType = "webhook"
	ResourceTrigger           ResourceType = "trigger"
	ResourceEmailNotification ResourceType = "email_notification"
)

// Valid reports whether t may appear in the audit trail. Email notification
// entries are written by the notification sender, which shares the table.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceAPIKey, ResourceWebhook, ResourceTrigger, ResourceEmailNotification:
		return true
	}
	return false
}

// AuditLog is append-only.
type AuditLog struct {
	ID           string          `json:"id"`
	OrgID        string          `json:"org_id"`
	UserID       string          `json:"user_id"`
	Action       AuditAction     `json:"action"`
	ResourceType ResourceType    `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Details      json.RawMessage `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
}
