package webhooks

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/pkg/keycodec"
	"lenderhub/internal/pkg/validator"
	"lenderhub/internal/platform/audit"
	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
	"lenderhub/internal/platform/session"
)

type Store interface {
	Create(ctx context.Context, webhook *models.Webhook) error
	GetByID(ctx context.Context, orgID, id string) (*models.Webhook, error)
	ListByOrg(ctx context.Context, orgID string, page repositories.Page) ([]*models.Webhook, error)
	Update(ctx context.Context, webhook *models.Webhook) error
	Delete(ctx context.Context, orgID, id string) error
	RecordDelivery(ctx context.Context, orgID, id string, success bool, threshold int, at time.Time) error
}

type Sender interface {
	Deliver(ctx context.Context, webhook *models.Webhook, payload []byte) (*Delivery, error)
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// CreatedWebhook carries the signing secret. It is only returned by Create.
type CreatedWebhook struct {
	*models.Webhook
	Secret string `json:"secret"`
}

// Patch holds the fields to change; nil fields are left alone. A Name
// pointing at an empty string clears the name.
type Patch struct {
	Name   *string               `json:"name"`
	URL    *string               `json:"url"`
	Events *[]string             `json:"events"`
	Status *models.WebhookStatus `json:"status"`
}

// TestResult reports a test delivery. A network failure is a result, not an error.
type TestResult struct {
	Success  bool         `json:"success"`
	Response TestResponse `json:"response"`
}

type TestResponse struct {
	Status     int
	StatusText string
	Body       string
	Error      string
}

// MarshalJSON emits {status,statusText,body} for a completed round trip and
// {error} otherwise.
func (r TestResponse) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(struct {
		Status     int    `json:"status"`
		StatusText string `json:"statusText"`
		Body       string `json:"body"`
	}{r.Status, r.StatusText, r.Body})
}

type Service struct {
	store            Store
	audit            Auditor
	sender           Sender
	failureThreshold int
	now              func() time.Time
}

// NewService wires the webhook operations. A failed webhook is disabled after
// failureThreshold consecutive failed deliveries; zero disables that.
func NewService(store Store, auditor Auditor, sender Sender, failureThreshold int) *Service {
	return &Service{
		store:            store,
		audit:            auditor,
		sender:           sender,
		failureThreshold: failureThreshold,
		now:              time.Now,
	}
}

func (s *Service) List(ctx context.Context, orgID string, page repositories.Page) ([]*models.Webhook, error) {
	if _, err := session.RequireOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListByOrg(ctx, orgID, page)
}

// Create registers a webhook with a fresh secret. An empty name is stored as NULL.
func (s *Service) Create(ctx context.Context, orgID, name, url string, events []string) (*CreatedWebhook, error) {
	sess, err := session.RequireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validator.WebhookURL(url); err != nil {
		return nil, err
	}
	if err := validator.Events(events); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	webhook := &models.Webhook{
		OrgID:        orgID,
		Name:         optionalName(name),
		URL:          url,
		Events:       dedupe(events),
		Secret:       keycodec.GenerateRawKey(keycodec.RealmWebhook),
		Status:       models.WebhookActive,
		FailureCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, webhook); err != nil {
		return nil, err
	}

	s.record(ctx, sess, models.ActionCreated, webhook.ID, map[string]any{
		"new": snapshot(webhook),
	})

	return &CreatedWebhook{Webhook: webhook, Secret: webhook.Secret}, nil
}

func (s *Service) Update(ctx context.Context, webhookID string, patch Patch) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, sess.OrgID, webhookID)
	if err != nil {
		return err
	}

	next := *current
	if patch.Name != nil {
		if err := validateName(*patch.Name); err != nil {
			return err
		}
		next.Name = optionalName(*patch.Name)
	}
	if patch.URL != nil {
		if err := validator.WebhookURL(*patch.URL); err != nil {
			return err
		}
		next.URL = *patch.URL
	}
	if patch.Events != nil {
		if err := validator.Events(*patch.Events); err != nil {
			return err
		}
		next.Events = dedupe(*patch.Events)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return apperrors.InvalidInput("status must be one of active, inactive, failed")
		}
		next.Status = *patch.Status
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.store.Update(ctx, &next); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionUpdated, current.ID, map[string]any{
		"old": snapshot(current),
		"new": snapshot(&next),
	})
	return nil
}

// Delete removes the webhook permanently.
func (s *Service) Delete(ctx context.Context, webhookID string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, sess.OrgID, webhookID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, sess.OrgID, current.ID); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionDeleted, current.ID, map[string]any{
		"old": snapshot(current),
	})
	return nil
}

// Test sends a test event to the webhook. Errors are returned only when the
// webhook cannot be resolved; delivery failures are reported in the result.
// last_triggered_at is stamped whatever the outcome.
func (s *Service) Test(ctx context.Context, webhookID string) (*TestResult, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}

	webhook, err := s.store.GetByID(ctx, sess.OrgID, webhookID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	result, details := s.deliverTest(ctx, webhook, at)

	if err := s.store.RecordDelivery(context.WithoutCancel(ctx), sess.OrgID, webhook.ID, result.Success, s.failureThreshold, at); err != nil {
		log.Warn().Err(err).Str("webhook_id", webhook.ID).Msg("failed to record webhook delivery")
	}

	s.record(ctx, sess, models.ActionTested, webhook.ID, details)
	return result, nil
}

func (s *Service) deliverTest(ctx context.Context, webhook *models.Webhook, at time.Time) (*TestResult, map[string]any) {
	fail := func(err error) (*TestResult, map[string]any) {
		log.Info().Err(err).Str("webhook_id", webhook.ID).Msg("webhook test delivery failed")
		result := &TestResult{Success: false, Response: TestResponse{Error: err.Error()}}
		return result, map[string]any{"success": false, "error": err.Error()}
	}

	payload, err := TestPayload(webhook, at)
	if err != nil {
		return fail(err)
	}

	// The delivery outlives the caller; only the client timeout bounds it.
	delivery, err := s.sender.Deliver(context.WithoutCancel(ctx), webhook, payload)
	if err != nil {
		return fail(err)
	}

	result := &TestResult{
		Success: delivery.OK(),
		Response: TestResponse{
			Status:     delivery.Status,
			StatusText: delivery.StatusText,
			Body:       delivery.Body,
		},
	}
	return result, map[string]any{"http_status": delivery.Status, "success": result.Success}
}

func (s *Service) record(ctx context.Context, sess *session.Session, action models.AuditAction, webhookID string, details map[string]any) {
	s.audit.Record(ctx, audit.Entry{
		OrgID:        sess.OrgID,
		UserID:       sess.UserID,
		Action:       action,
		ResourceType: models.ResourceWebhook,
		ResourceID:   webhookID,
		Details:      details,
	})
}

// snapshot is the audit view of a webhook. The secret is never included.
func snapshot(w *models.Webhook) map[string]any {
	return map[string]any{
		"name":   w.Name,
		"url":    w.URL,
		"events": w.Events,
		"status": w.Status,
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return validator.Name("name", name)
}

func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

func dedupe(events []string) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, e := range events {
		e = strings.TrimSpace(e)
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
