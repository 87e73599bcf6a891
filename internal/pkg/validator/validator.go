package validator

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"

	apperrors "lenderhub/internal/pkg/errors"
)

const MaxNameLength = 100

// Name checks a required human label.
func Name(field, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return apperrors.InvalidInput(field + " is required")
	}
	if utf8.RuneCountInString(v) > MaxNameLength {
		return apperrors.InvalidInput(field + " must be at most 100 characters")
	}
	return nil
}

// Required checks that value is not blank.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.InvalidInput(field + " is required")
	}
	return nil
}

// WebhookURL accepts absolute http and https URLs with a host.
func WebhookURL(raw string) error {
	if raw == "" {
		return apperrors.InvalidInput("url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.InvalidInput("invalid url format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.InvalidInput("url must start with http:// or https://")
	}
	if u.Host == "" {
		return apperrors.InvalidInput("url must include a host")
	}
	return nil
}

// Events rejects blank event names.
func Events(events []string) error {
	for _, e := range events {
		if strings.TrimSpace(e) == "" {
			return apperrors.InvalidInput("event names must not be empty")
		}
	}
	return nil
}

// JSON accepts an empty payload or any valid JSON document.
func JSON(field string, raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	if !json.Valid(raw) {
		return apperrors.InvalidInput(field + " must be valid JSON")
	}
	return nil
}
