package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/models"
)

const (
	EventTest = "webhook.test"

	SecretHeader = "X-Webhook-Secret"

	testMessage = "This is a test webhook delivery"

	// timestampLayout is ISO 8601 in UTC with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z"

	defaultTimeout          = 10 * time.Second
	defaultUserAgent        = "LenderHub-Webhooks/1.0"
	defaultMaxResponseBytes = 64 * 1024
)

// Delivery is the outcome of a completed HTTP round trip.
type Delivery struct {
	Status     int
	StatusText string
	Body       string
}

func (d *Delivery) OK() bool {
	return d.Status >= 200 && d.Status < 300
}

type Dispatcher struct {
	client           *http.Client
	userAgent        string
	sign             bool
	maxResponseBytes int64
}

func NewDispatcher(cfg config.WebhooksConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxResponseBytes
	}

	return &Dispatcher{
		client:           &http.Client{Timeout: timeout},
		userAgent:        ua,
		sign:             cfg.HMACSignatures,
		maxResponseBytes: maxBytes,
	}
}

// Deliver POSTs payload to the webhook URL. Any non-nil error means no HTTP
// response was received.
func (d *Dispatcher) Deliver(ctx context.Context, webhook *models.Webhook, payload []byte) (*Delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, webhook.Secret)
	req.Header.Set("User-Agent", d.userAgent)
	if d.sign {
		req.Header.Set(SignatureHeader, "sha256="+Sign(webhook.Secret, payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Delivery{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Body:       string(body),
	}, nil
}

type testData struct {
	Message     string  `json:"message"`
	WebhookID   string  `json:"webhook_id"`
	WebhookName *string `json:"webhook_name"`
}

// TestPayload builds the body of a test delivery.
func TestPayload(webhook *models.Webhook, at time.Time) ([]byte, error) {
	return json.Marshal(models.WebhookEvent{
		Event:     EventTest,
		Timestamp: at.UTC().Format(timestampLayout),
		Data: testData{
			Message:     testMessage,
			WebhookID:   webhook.ID,
			WebhookName: webhook.Name,
		},
	})
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
