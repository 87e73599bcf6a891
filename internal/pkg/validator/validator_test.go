package validator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "lenderhub/internal/pkg/errors"
)

func TestName(t *testing.T) {
	assert.NoError(t, Name("key_name", "Prod Key"))
	assert.ErrorIs(t, Name("key_name", "   "), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, Name("key_name", strings.Repeat("a", 101)), apperrors.ErrInvalidInput)
	assert.NoError(t, Name("key_name", strings.Repeat("é", 100)))
}

func TestWebhookURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://hooks.lender.test/statements", false},
		{"http://127.0.0.1:8080/hook", false},
		{"", true},
		{"ftp://hooks.lender.test", true},
		{"https://", true},
		{"/relative/path", true},
		{"://bad", true},
	}

	for _, tt := range tests {
		err := WebhookURL(tt.url)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput, tt.url)
		} else {
			assert.NoError(t, err, tt.url)
		}
	}
}

func TestEventsAndJSON(t *testing.T) {
	assert.NoError(t, Events([]string{"statement.processed"}))
	assert.NoError(t, Events(nil))
	assert.Error(t, Events([]string{"statement.processed", " "}))

	assert.NoError(t, JSON("condition_value", nil))
	assert.NoError(t, JSON("condition_value", json.RawMessage(`{"amount":5}`)))
	assert.ErrorIs(t, JSON("condition_value", json.RawMessage(`{amount`)), apperrors.ErrInvalidInput)
}
