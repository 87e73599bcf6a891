package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/models"
)

const apiKeyColumns = `id, org_id, key_name, key_hash, prefix, is_default, is_active, last_used_at, deleted_at, created_at, updated_at`

type APIKeyRepository struct {
	store
}

func NewAPIKeyRepository(db *database.DB) *APIKeyRepository {
	return &APIKeyRepository{store{db: db}}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}

	query := `
		INSERT INTO api_keys (` + apiKeyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.exec(ctx, "create api key", query,
		key.ID,
		key.OrgID,
		key.KeyName,
		key.KeyHash,
		key.Prefix,
		key.IsDefault,
		key.IsActive,
		nullTime(key.LastUsedAt),
		nullTime(key.DeletedAt),
		key.CreatedAt.UTC(),
		key.UpdatedAt.UTC(),
	)
	return err
}

// GetByID returns a non-deleted key owned by orgID.
func (r *APIKeyRepository) GetByID(ctx context.Context, orgID, id string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = ? AND org_id = ? AND deleted_at IS NULL`
	k, err := scanAPIKey(r.queryRow(ctx, query, id, orgID))
	if err != nil {
		return nil, scanErr("get api key", "api key "+id, err)
	}
	return k, nil
}

// GetActiveByHash finds the active, non-deleted key for a presented secret.
func (r *APIKeyRepository) GetActiveByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_hash = ? AND is_active = ? AND deleted_at IS NULL`
	k, err := scanAPIKey(r.queryRow(ctx, query, hash, true))
	if err != nil {
		return nil, scanErr("get api key by hash", "api key", err)
	}
	return k, nil
}

func (r *APIKeyRepository) ListByOrg(ctx context.Context, orgID string, page Page) ([]*models.APIKey, error) {
	page = page.Normalize()
	query := `
		SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE org_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.query(ctx, "list api keys", query, orgID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]*models.APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, scanErr("list api keys", "api key", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, scanErr("list api keys", "api key", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) UpdateHash(ctx context.Context, orgID, id, hash string, now time.Time) error {
	return r.execOne(ctx, "regenerate api key", "api key "+id,
		`UPDATE api_keys SET key_hash = ?, updated_at = ? WHERE id = ? AND org_id = ? AND deleted_at IS NULL`,
		hash, now.UTC(), id, orgID)
}

func (r *APIKeyRepository) Deactivate(ctx context.Context, orgID, id string, now time.Time) error {
	return r.execOne(ctx, "revoke api key", "api key "+id,
		`UPDATE api_keys SET is_active = ?, updated_at = ? WHERE id = ? AND org_id = ? AND deleted_at IS NULL`,
		false, now.UTC(), id, orgID)
}

// SoftDelete never touches a default key.
func (r *APIKeyRepository) SoftDelete(ctx context.Context, orgID, id string, now time.Time) error {
	return r.execOne(ctx, "delete api key", "api key "+id,
		`UPDATE api_keys SET deleted_at = ?, updated_at = ? WHERE id = ? AND org_id = ? AND deleted_at IS NULL AND is_default = ?`,
		now.UTC(), now.UTC(), id, orgID, false)
}

func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, id string, now time.Time) error {
	_, err := r.exec(ctx, "touch api key", `UPDATE api_keys SET last_used_at = ? WHERE id = ?`, now.UTC(), id)
	return err
}

func scanAPIKey(row rowScanner) (*models.APIKey, error) {
	var (
		k          models.APIKey
		lastUsedAt sql.NullTime
		deletedAt  sql.NullTime
	)
	err := row.Scan(
		&k.ID,
		&k.OrgID,
		&k.KeyName,
		&k.KeyHash,
		&k.Prefix,
		&k.IsDefault,
		&k.IsActive,
		&lastUsedAt,
		&deletedAt,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	k.LastUsedAt = timePtr(lastUsedAt)
	k.DeletedAt = timePtr(deletedAt)
	k.CreatedAt = k.CreatedAt.UTC()
	k.UpdatedAt = k.UpdatedAt.UTC()
	return &k, nil
}
