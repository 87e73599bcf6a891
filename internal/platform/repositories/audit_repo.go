package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/database"
	"lenderhub/internal/platform/models"
)

type AuditLogRepository struct {
	store
}

func NewAuditLogRepository(db *database.DB) *AuditLogRepository {
	return &AuditLogRepository{store{db: db}}
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	ResourceType models.ResourceType
	ResourceID   string
}

func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = "audit_" + uuid.New().String()
	}

	details := string(entry.Details)
	if details == "" {
		details = "{}"
	}

	_, err := r.exec(ctx, "append audit log", `
		INSERT INTO audit_logs (id, org_id, user_id, action, resource_type, resource_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.OrgID, entry.UserID, string(entry.Action), string(entry.ResourceType), entry.ResourceID, details, entry.CreatedAt.UTC())
	return err
}

func (r *AuditLogRepository) ListByOrg(ctx context.Context, orgID string, filter AuditFilter, page Page) ([]*models.AuditLog, error) {
	page = page.Normalize()

	query := `SELECT id, org_id, user_id, action, resource_type, resource_id, details, created_at FROM audit_logs WHERE org_id = ?`
	args := []any{orgID}
	if filter.ResourceType != "" {
		if !filter.ResourceType.Valid() {
			return nil, apperrors.InvalidInput("unknown resource_type " + string(filter.ResourceType))
		}
		query += ` AND resource_type = ?`
		args = append(args, string(filter.ResourceType))
	}
	if filter.ResourceID != "" {
		query += ` AND resource_id = ?`
		args = append(args, filter.ResourceID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := r.query(ctx, "list audit logs", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		var (
			l       models.AuditLog
			action  string
			rtype   string
			details string
		)
		if err := rows.Scan(&l.ID, &l.OrgID, &l.UserID, &action, &rtype, &l.ResourceID, &details, &l.CreatedAt); err != nil {
			return nil, scanErr("list audit logs", "audit log", err)
		}
		l.Action = models.AuditAction(action)
		l.ResourceType = models.ResourceType(rtype)
		l.Details = json.RawMessage(details)
		l.CreatedAt = l.CreatedAt.UTC()
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, scanErr("list audit logs", "audit log", err)
	}
	return logs, nil
}
