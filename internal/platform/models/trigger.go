package models

import (
	"encoding/json"
	"time"
)

type TriggerStatus string

const (
	TriggerActive   TriggerStatus = "active"
	TriggerInactive TriggerStatus = "inactive"
)

func (s TriggerStatus) Valid() bool {
	return s == TriggerActive || s == TriggerInactive
}

// Trigger is an automation rule. ConditionValue and ActionTarget are opaque to
// this service; they are evaluated elsewhere.
type Trigger struct {
	ID              string          `json:"id"`
	OrgID           string          `json:"org_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ConditionType   string          `json:"condition_type"`
	ConditionValue  json.RawMessage `json:"condition_value"`
	ActionType      string          `json:"action_type"`
	ActionTarget    json.RawMessage `json:"action_target"`
	Status          TriggerStatus   `json:"status"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
	TriggerCount    int             `json:"trigger_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TriggerConfig is the caller-editable part of a Trigger.
type TriggerConfig struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	ConditionType  string          `json:"condition_type"`
	ConditionValue json.RawMessage `json:"condition_value"`
	ActionType     string          `json:"action_type"`
	ActionTarget   json.RawMessage `json:"action_target"`
}
