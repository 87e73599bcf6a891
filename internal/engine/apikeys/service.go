// Package apikeys manages the lifecycle of organisation API keys: issue,
// rotate, revoke and soft-delete. The raw key leaves this package only in the
// return value of Create and Regenerate.
package apikeys

import (
	"context"
	"errors"
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
	Create(ctx context.Context, key *models.APIKey) error
	GetByID(ctx context.Context, orgID, id string) (*models.APIKey, error)
	GetActiveByHash(ctx context.Context, hash string) (*models.APIKey, error)
	ListByOrg(ctx context.Context, orgID string, page repositories.Page) ([]*models.APIKey, error)
	UpdateHash(ctx context.Context, orgID, id, hash string, now time.Time) error
	Deactivate(ctx context.Context, orgID, id string, now time.Time) error
	SoftDelete(ctx context.Context, orgID, id string, now time.Time) error
	TouchLastUsed(ctx context.Context, id string, now time.Time) error
}

type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// CreatedKey is returned once, at creation.
type CreatedKey struct {
	ID        string `json:"id"`
	RawSecret string `json:"key"`
	Prefix    string `json:"prefix"`
}

// RegeneratedKey is returned once, at rotation.
type RegeneratedKey struct {
	RawSecret string `json:"key"`
}

type Service struct {
	store Store
	audit Auditor
	now   func() time.Time
}

func NewService(store Store, auditor Auditor) *Service {
	return &Service{store: store, audit: auditor, now: time.Now}
}

func (s *Service) List(ctx context.Context, orgID string, page repositories.Page) ([]*models.APIKey, error) {
	if _, err := session.RequireOrg(ctx, orgID); err != nil {
		return nil, err
	}
	return s.store.ListByOrg(ctx, orgID, page)
}

func (s *Service) Create(ctx context.Context, orgID, name string) (*CreatedKey, error) {
	sess, err := session.RequireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := validator.Name("key_name", name); err != nil {
		return nil, err
	}

	raw := keycodec.GenerateRawKey(keycodec.RealmAPI)
	now := s.now().UTC()
	key := &models.APIKey{
		OrgID:     orgID,
		KeyName:   strings.TrimSpace(name),
		KeyHash:   keycodec.Hash(raw),
		Prefix:    keycodec.DerivePrefix(raw),
		IsDefault: false,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, key); err != nil {
		return nil, err
	}

	s.record(ctx, sess, models.ActionCreated, key.ID, map[string]any{
		"key_name": key.KeyName,
		"prefix":   key.Prefix,
	})

	return &CreatedKey{ID: key.ID, RawSecret: raw, Prefix: key.Prefix}, nil
}

// Regenerate replaces the key's secret in place. The id, prefix, name and
// flags are kept. Concurrent calls race: the last write wins.
func (s *Service) Regenerate(ctx context.Context, keyID string) (*RegeneratedKey, error) {
	sess, err := session.Require(ctx)
	if err != nil {
		return nil, err
	}

	key, err := s.store.GetByID(ctx, sess.OrgID, keyID)
	if err != nil {
		return nil, err
	}

	raw := keycodec.GenerateRawKey(keycodec.RealmAPI)
	if err := s.store.UpdateHash(ctx, sess.OrgID, key.ID, keycodec.Hash(raw), s.now().UTC()); err != nil {
		return nil, err
	}

	s.record(ctx, sess, models.ActionRegenerated, key.ID, map[string]any{
		"key_name": key.KeyName,
		"prefix":   key.Prefix,
	})

	return &RegeneratedKey{RawSecret: raw}, nil
}

// Revoke deactivates a key. Revoking an inactive key succeeds.
func (s *Service) Revoke(ctx context.Context, keyID string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	key, err := s.store.GetByID(ctx, sess.OrgID, keyID)
	if err != nil {
		return err
	}

	if err := s.store.Deactivate(ctx, sess.OrgID, key.ID, s.now().UTC()); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionRevoked, key.ID, map[string]any{
		"key_name":   key.KeyName,
		"prefix":     key.Prefix,
		"was_active": key.IsActive,
	})
	return nil
}

// Delete soft-deletes a key. The org's default key cannot be deleted.
func (s *Service) Delete(ctx context.Context, keyID string) error {
	sess, err := session.Require(ctx)
	if err != nil {
		return err
	}

	key, err := s.store.GetByID(ctx, sess.OrgID, keyID)
	if err != nil {
		return err
	}
	if key.IsDefault {
		return apperrors.InvalidOperation("the default API key cannot be deleted")
	}

	if err := s.store.SoftDelete(ctx, sess.OrgID, key.ID, s.now().UTC()); err != nil {
		return err
	}

	s.record(ctx, sess, models.ActionDeleted, key.ID, map[string]any{
		"key_name":  key.KeyName,
		"prefix":    key.Prefix,
		"is_active": key.IsActive,
	})
	return nil
}

// Authenticate resolves a presented raw key to its active record. It is used
// by API callers that hold a key rather than a session.
func (s *Service) Authenticate(ctx context.Context, raw string) (*models.APIKey, error) {
	if !strings.HasPrefix(raw, keycodec.APIKeyPrefix) {
		return nil, apperrors.Unauthorized("malformed api key")
	}

	key, err := s.store.GetActiveByHash(ctx, keycodec.Hash(raw))
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.Unauthorized("invalid or revoked api key")
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.TouchLastUsed(ctx, key.ID, now); err != nil {
		log.Warn().Err(err).Str("key_id", key.ID).Msg("failed to update api key last_used_at")
	} else {
		key.LastUsedAt = &now
	}
	return key, nil
}

func (s *Service) record(ctx context.Context, sess *session.Session, action models.AuditAction, keyID string, details map[string]any) {
	s.audit.Record(ctx, audit.Entry{
		OrgID:        sess.OrgID,
		UserID:       sess.UserID,
		Action:       action,
		ResourceType: models.ResourceAPIKey,
		ResourceID:   keyID,
		Details:      details,
	})
}
