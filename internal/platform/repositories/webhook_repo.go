package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/models"
)

const webhookColumns = `id, org_id, name, url, events, secret, status, last_triggered_at, failure_count, created_at, updated_at`

type WebhookRepository struct {
	store
}

func NewWebhookRepository(db *database.DB) *WebhookRepository {
	return &WebhookRepository{store{db: db}}
}

func (r *WebhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	if webhook.ID == "" {
		webhook.ID = "wh_" + uuid.New().String()
	}

	eventsJSON, err := json.Marshal(eventsOrEmpty(webhook.Events))
	if err != nil {
		return apperrors.Store("create webhook", err)
	}

	query := `
		INSERT INTO webhooks (` + webhookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.exec(ctx, "create webhook", query,
		webhook.ID,
		webhook.OrgID,
		webhook.Name,
		webhook.URL,
		string(eventsJSON),
		webhook.Secret,
		string(webhook.Status),
		nullTime(webhook.LastTriggeredAt),
		webhook.FailureCount,
		webhook.CreatedAt.UTC(),
		webhook.UpdatedAt.UTC(),
	)
	return err
}

func (r *WebhookRepository) GetByID(ctx context.Context, orgID, id string) (*models.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = ? AND org_id = ?`
	w, err := scanWebhook(r.queryRow(ctx, query, id, orgID))
	if err != nil {
		return nil, scanErr("get webhook", "webhook "+id, err)
	}
	return w, nil
}

func (r *WebhookRepository) ListByOrg(ctx context.Context, orgID string, page Page) ([]*models.Webhook, error) {
	page = page.Normalize()
	query := `
		SELECT ` + webhookColumns + `
		FROM webhooks
		WHERE org_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.query(ctx, "list webhooks", query, orgID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	webhooks := make([]*models.Webhook, 0)
	for rows.Next() {
		w, err := scanWebhook(rows)
		if err != nil {
			return nil, scanErr("list webhooks", "webhook", err)
		}
		webhooks = append(webhooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, scanErr("list webhooks", "webhook", err)
	}
	return webhooks, nil
}

// Update writes the mutable fields of webhook. The secret is never rewritten.
func (r *WebhookRepository) Update(ctx context.Context, webhook *models.Webhook) error {
	eventsJSON, err := json.Marshal(eventsOrEmpty(webhook.Events))
	if err != nil {
		return apperrors.Store("update webhook", err)
	}

	query := `
		UPDATE webhooks
		SET name = ?, url = ?, events = ?, status = ?, updated_at = ?
		WHERE id = ? AND org_id = ?
	`
	return r.execOne(ctx, "update webhook", "webhook "+webhook.ID, query,
		webhook.Name,
		webhook.URL,
		string(eventsJSON),
		string(webhook.Status),
		webhook.UpdatedAt.UTC(),
		webhook.ID,
		webhook.OrgID,
	)
}

func (r *WebhookRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.execOne(ctx, "delete webhook", "webhook "+id,
		`DELETE FROM webhooks WHERE id = ? AND org_id = ?`, id, orgID)
}

// RecordDelivery stamps last_triggered_at and tracks consecutive failures.
// A success clears the counter and reactivates a failed webhook. A failure
// moves an active webhook to failed once the counter reaches threshold; a
// threshold of zero never does.
func (r *WebhookRepository) RecordDelivery(ctx context.Context, orgID, id string, success bool, threshold int, at time.Time) error {
	if success {
		return r.execOne(ctx, "record webhook delivery", "webhook "+id, `
			UPDATE webhooks
			SET failure_count = 0,
			    status = CASE WHEN status = 'failed' THEN 'active' ELSE status END,
			    last_triggered_at = ?
			WHERE id = ? AND org_id = ?
		`, at.UTC(), id, orgID)
	}

	return r.execOne(ctx, "record webhook delivery", "webhook "+id, `
		UPDATE webhooks
		SET failure_count = failure_count + 1,
		    status = CASE WHEN ? > 0 AND status = 'active' AND failure_count + 1 >= ? THEN 'failed' ELSE status END,
		    last_triggered_at = ?
		WHERE id = ? AND org_id = ?
	`, threshold, threshold, at.UTC(), id, orgID)
}

func scanWebhook(row rowScanner) (*models.Webhook, error) {
	var (
		w               models.Webhook
		name            sql.NullString
		eventsStr       string
		status          string
		lastTriggeredAt sql.NullTime
	)
	err := row.Scan(
		&w.ID,
		&w.OrgID,
		&name,
		&w.URL,
		&eventsStr,
		&w.Secret,
		&status,
		&lastTriggeredAt,
		&w.FailureCount,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		w.Name = &name.String
	}
	if err := json.Unmarshal([]byte(eventsStr), &w.Events); err != nil {
		return nil, err
	}
	w.Events = eventsOrEmpty(w.Events)
	w.Status = models.WebhookStatus(status)
	w.LastTriggeredAt = timePtr(lastTriggeredAt)
	w.CreatedAt = w.CreatedAt.UTC()
	w.UpdatedAt = w.UpdatedAt.UTC()
	return &w, nil
}

func eventsOrEmpty(events []string) []string {
	if events == nil {
		return []string{}
	}
	return events
}
