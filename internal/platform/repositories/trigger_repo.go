package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/models"
)

const triggerColumns = `id, org_id, name, description, condition_type, condition_value, action_type, action_target, status, last_triggered_at, trigger_count, created_at, updated_at`

type TriggerRepository struct {
	store
}

func NewTriggerRepository(db *database.DB) *TriggerRepository {
	return &TriggerRepository{store{db: db}}
}

func (r *TriggerRepository) Create(ctx context.Context, trigger *models.Trigger) error {
	if trigger.ID == "" {
		trigger.ID = "trg_" + uuid.New().String()
	}

	query := `
		INSERT INTO automation_triggers (` + triggerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.exec(ctx, "create trigger", query,
		trigger.ID,
		trigger.OrgID,
		trigger.Name,
		trigger.Description,
		trigger.ConditionType,
		rawOrEmpty(trigger.ConditionValue),
		trigger.ActionType,
		rawOrEmpty(trigger.ActionTarget),
		string(trigger.Status),
		nullTime(trigger.LastTriggeredAt),
		trigger.TriggerCount,
		trigger.CreatedAt.UTC(),
		trigger.UpdatedAt.UTC(),
	)
	return err
}

func (r *TriggerRepository) GetByID(ctx context.Context, orgID, id string) (*models.Trigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM automation_triggers WHERE id = ? AND org_id = ?`
	t, err := scanTrigger(r.queryRow(ctx, query, id, orgID))
	if err != nil {
		return nil, scanErr("get trigger", "trigger "+id, err)
	}
	return t, nil
}

func (r *TriggerRepository) ListByOrg(ctx context.Context, orgID string, page Page) ([]*models.Trigger, error) {
	page = page.Normalize()
	query := `
		SELECT ` + triggerColumns + `
		FROM automation_triggers
		WHERE org_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.query(ctx, "list triggers", query, orgID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	triggers := make([]*models.Trigger, 0)
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, scanErr("list triggers", "trigger", err)
		}
		triggers = append(triggers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, scanErr("list triggers", "trigger", err)
	}
	return triggers, nil
}

// UpdateConfig replaces the whole editable configuration of a trigger.
func (r *TriggerRepository) UpdateConfig(ctx context.Context, orgID, id string, cfg models.TriggerConfig, now time.Time) error {
	query := `
		UPDATE automation_triggers
		SET name = ?, description = ?, condition_type = ?, condition_value = ?,
		    action_type = ?, action_target = ?, updated_at = ?
		WHERE id = ? AND org_id = ?
	`
	return r.execOne(ctx, "update trigger", "trigger "+id, query,
		cfg.Name,
		cfg.Description,
		cfg.ConditionType,
		rawOrEmpty(cfg.ConditionValue),
		cfg.ActionType,
		rawOrEmpty(cfg.ActionTarget),
		now.UTC(),
		id,
		orgID,
	)
}

func (r *TriggerRepository) SetStatus(ctx context.Context, orgID, id string, status models.TriggerStatus, now time.Time) error {
	return r.execOne(ctx, "toggle trigger", "trigger "+id,
		`UPDATE automation_triggers SET status = ?, updated_at = ? WHERE id = ? AND org_id = ?`,
		string(status), now.UTC(), id, orgID)
}

func (r *TriggerRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.execOne(ctx, "delete trigger", "trigger "+id,
		`DELETE FROM automation_triggers WHERE id = ? AND org_id = ?`, id, orgID)
}

func scanTrigger(row rowScanner) (*models.Trigger, error) {
	var (
		t               models.Trigger
		conditionValue  string
		actionTarget    string
		status          string
		lastTriggeredAt sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.OrgID,
		&t.Name,
		&t.Description,
		&t.ConditionType,
		&conditionValue,
		&t.ActionType,
		&actionTarget,
		&status,
		&lastTriggeredAt,
		&t.TriggerCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ConditionValue = json.RawMessage(conditionValue)
	t.ActionTarget = json.RawMessage(actionTarget)
	t.Status = models.TriggerStatus(status)
	t.LastTriggeredAt = timePtr(lastTriggeredAt)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
