// Package triggers stores automation rules. Rules are evaluated by the
// statement pipeline, not here.
package triggers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/pkg/validator"
	"lenderhub/internal/platform/audit"
	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
	"lenderhub/internal/platform/session"
)

type Store interface {
	Create(ctx context.Context, trigger *models.Trigger) error
	GetByID(ctx context.Context, orgID, id string) (*models.Trigger, error)
	ListByOrg(ctx context.Context, orgID string, page repositories.Page) ([]*models.Trigger, error)
	UpdateConfig(ctx context.Context, orgID, id string, cfg models.TriggerConfig, now time.Time) error
	SetStatus(ctx context.Context, orgID, id string, status models.TriggerStatus, now time.Time) error
	Delete(ctx context.Context, orgID, id string) error
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

type Service struct {
	store Store
	audit Auditor
	now   func() time.Time
}

func NewService(store Store, auditor Auditor) *Service {
	return &Service{store: store, audit: auditor, now: time.Now}
}

func (s *Service) List(ctx context.Context, orgID string, page repositories.Page) ([]*models.Trigger, error) {
	if _, err := session.RequireOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListByOrg(ctx, orgID, page)
}

func (s *Service) Create(ctx context.Context, orgID string, cfg models.TriggerConfig) (*models.Trigger, error) {
	sess, err := session.RequireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := validate(cfg); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	trigger := &models.Trigger{
		OrgID:          orgID,
		Name:           cfg.Name,
		Description:    cfg.Description,
		ConditionType:  cfg.ConditionType,
		ConditionValue: orEmptyObject(cfg.ConditionValue),
		ActionType:     cfg.ActionType,
		ActionTarget:   orEmptyObject(cfg.ActionTarget),
		Status:         models.TriggerActive,
		TriggerCount:   0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, trigger); err != nil {
		return nil, err
	}

	s.record(ctx, sess, models.ActionCreated, trigger.ID, map[string]any{
		"new": configOf(trigger),
	})
	return trigger, nil
}

// Update replaces the trigger's whole configuration. Status is untouched.
func (s *Service) Update(ctx context.Context, triggerID string, cfg models.TriggerConfig) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, sess.OrgID, triggerID)
	if err != nil {
		return err
	}
	cfg.Name = strings.TrimSpace(cfg.Name)
	if err := validate(cfg); err != nil {
		return err
	}

	cfg.ConditionValue = orEmptyObject(cfg.ConditionValue)
	cfg.ActionTarget = orEmptyObject(cfg.ActionTarget)
	if err := s.store.UpdateConfig(ctx, sess.OrgID, current.ID, cfg, s.now().UTC()); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionUpdated, current.ID, map[string]any{
		"old": configOf(current),
		"new": cfg,
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, triggerID string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	current, err := s.store.GetByID(ctx, sess.OrgID, triggerID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, sess.OrgID, current.ID); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionDeleted, current.ID, map[string]any{
		"old": configOf(current),
	})
	return nil
}

// Toggle sets the trigger's status.
func (s *Service) Toggle(ctx context.Context, triggerID string, status models.TriggerStatus) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}
	if !status.Valid() {
		return apperrors.InvalidInput("status must be active or inactive")
	}

	current, err := s.store.GetByID(ctx, sess.OrgID, triggerID)
	if err != nil {
		return err
	}

	if err := s.store.SetStatus(ctx, sess.OrgID, current.ID, status, s.now().UTC()); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionToggled, current.ID, map[string]any{
		"old_status": current.Status,
		"new_status": status,
	})
	return nil
}

func (s *Service) record(ctx context.Context, sess *session.Session, action models.AuditAction, triggerID string, details map[string]any) {
	s.audit.Record(ctx, audit.Entry{
		OrgID:        sess.OrgID,
		UserID:       sess.UserID,
		Action:       action,
		ResourceType: models.ResourceTrigger,
		ResourceID:   triggerID,
		Details:      details,
	})
}

func validate(cfg models.TriggerConfig) error {
	if err := validator.Name("name", cfg.Name); err != nil {
		return err
	}
	if err := validator.Required("condition_type", cfg.ConditionType); err != nil {
		return err
	}
	if err := validator.Required("action_type", cfg.ActionType); err != nil {
		return err
	}
	if err := validator.JSON("condition_value", cfg.ConditionValue); err != nil {
		return err
	}
	return validator.JSON("action_target", cfg.ActionTarget)
}

func configOf(t *models.Trigger) models.TriggerConfig {
	return models.TriggerConfig{
		Name:           t.Name,
		Description:    t.Description,
		ConditionType:  t.ConditionType,
		ConditionValue: t.ConditionValue,
		ActionType:     t.ActionType,
		ActionTarget:   t.ActionTarget,
	}
}

func orEmptyObject(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}
