package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/database/dbtest"
	"lenderhub/internal/platform/models"
)

func TestAuditLogRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditLogRepository(dbtest.NewSQLite(t))

	entries := []*models.AuditLog{
		{OrgID: "org_1", UserID: "user_1", Action: models.ActionCreated, ResourceType: models.ResourceAPIKey, ResourceID: "key_1", Details: json.RawMessage(`{"key_name":"Prod"}`), CreatedAt: baseTime},
		{OrgID: "org_1", UserID: "user_1", Action: models.ActionRevoked, ResourceType: models.ResourceAPIKey, ResourceID: "key_1", CreatedAt: baseTime.Add(time.Second)},
		{OrgID: "org_1", UserID: "user_2", Action: models.ActionCreated, ResourceType: models.ResourceWebhook, ResourceID: "wh_1", CreatedAt: baseTime.Add(2 * time.Second)},
		{OrgID: "org_2", UserID: "user_9", Action: models.ActionCreated, ResourceType: models.ResourceTrigger, ResourceID: "trg_1", CreatedAt: baseTime},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, e))
		assert.Contains(t, e.ID, "audit_")
	}

	all, err := repo.ListByOrg(ctx, "org_1", AuditFilter{}, Page{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "wh_1", all[0].ResourceID)

	keys, err := repo.ListByOrg(ctx, "org_1", AuditFilter{ResourceType: models.ResourceAPIKey, ResourceID: "key_1"}, Page{})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, models.ActionRevoked, keys[0].Action)
	assert.JSONEq(t, `{}`, string(keys[0].Details))
	assert.JSONEq(t, `{"key_name":"Prod"}`, string(keys[1].Details))
}

func TestAuditLogRepository_ResourceTypeFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewAuditLogRepository(dbtest.NewSQLite(t))

	require.NoError(t, repo.Append(ctx, &models.AuditLog{
		OrgID: "org_1", UserID: "user_1", Action: models.ActionCreated,
		ResourceType: models.ResourceEmailNotification, ResourceID: "mail_1", CreatedAt: baseTime,
	}))
	require.NoError(t, repo.Append(ctx, &models.AuditLog{
		OrgID: "org_1", UserID: "user_1", Action: models.ActionCreated,
		ResourceType: models.ResourceWebhook, ResourceID: "wh_1", CreatedAt: baseTime,
	}))

	mails, err := repo.ListByOrg(ctx, "org_1", AuditFilter{ResourceType: models.ResourceEmailNotification}, Page{})
	require.NoError(t, err)
	require.Len(t, mails, 1)
	assert.Equal(t, "mail_1", mails[0].ResourceID)

	_, err = repo.ListByOrg(ctx, "org_1", AuditFilter{ResourceType: "invoice"}, Page{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
