package models

import "time"

type APIKey struct {
	ID         string     `json:"id"`
	OrgID      string     `json:"org_id"`
	KeyName    string     `json:"key_name"`
	KeyHash    string     `json:"-"`
	Prefix     string     `json:"prefix"`
	IsDefault  bool       `json:"is_default"`
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
