package triggers

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/audit"
	"lenderhub/internal/platform/database/dbtest"
	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
	"lenderhub/internal/platform/session"
)

type harness struct {
	svc      *Service
	triggers *repositories.TriggerRepository
	audit    *repositories.AuditLogRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := dbtest.NewSQLite(t)
	h := &harness{
		triggers: repositories.NewTriggerRepository(db),
		audit:    repositories.NewAuditLogRepository(db),
	}

	tick := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	h.svc = NewService(h.triggers, audit.NewRecorder(h.audit, audit.WithClock(clock)))
	h.svc.now = clock
	return h
}

func authed(orgID string) context.Context {
	return session.WithGate(context.Background(), session.Resolved(&session.Session{
		UserID: "user_1",
		OrgID:  orgID,
	}))
}

func lowBalance() models.TriggerConfig {
	return models.TriggerConfig{
		Name:           "Low balance",
		Description:    "Alert risk when the ending balance drops",
		ConditionType:  "balance_below",
		ConditionValue: json.RawMessage(`{"amount":1000}`),
		ActionType:     "send_email",
		ActionTarget:   json.RawMessage(`{"to":"risk@lender.test"}`),
	}
}

func (h *harness) auditActions(t *testing.T, orgID, id string) []models.AuditAction {
	t.Helper()
	logs, err := h.audit.ListByOrg(context.Background(), orgID, repositories.AuditFilter{ResourceID: id}, repositories.Page{})
	require.NoError(t, err)
	actions := make([]models.AuditAction, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		actions = append(actions, logs[i].Action)
	}
	return actions
}

func TestCreateAndList(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	trg, err := h.svc.Create(ctx, "org1", lowBalance())
	require.NoError(t, err)
	assert.Equal(t, models.TriggerActive, trg.Status)
	assert.Zero(t, trg.TriggerCount)

	list, err := h.svc.List(ctx, "org1", repositories.Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, trg.ID, list[0].ID)
	assert.JSONEq(t, `{"amount":1000}`, string(list[0].ConditionValue))

	_, err = h.svc.List(ctx, "org2", repositories.Page{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	assert.Equal(t, []models.AuditAction{models.ActionCreated}, h.auditActions(t, "org1", trg.ID))
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	cfg := lowBalance()
	cfg.ConditionType = ""
	_, err := h.svc.Create(ctx, "org1", cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	cfg = lowBalance()
	cfg.ActionTarget = json.RawMessage(`{"to":`)
	_, err = h.svc.Create(ctx, "org1", cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = h.svc.Create(context.Background(), "org1", lowBalance())
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdate_FullReplace(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	trg, err := h.svc.Create(ctx, "org1", lowBalance())
	require.NoError(t, err)
	require.NoError(t, h.svc.Toggle(ctx, trg.ID, models.TriggerInactive))

	next := models.TriggerConfig{
		Name:          "NSF spike",
		ConditionType: "nsf_count_above",
		ActionType:    "webhook",
	}
	require.NoError(t, h.svc.Update(ctx, trg.ID, next))

	got, err := h.triggers.GetByID(context.Background(), "org1", trg.ID)
	require.NoError(t, err)

	want := models.TriggerConfig{
		Name:           "NSF spike",
		ConditionType:  "nsf_count_above",
		ConditionValue: json.RawMessage(`{}`),
		ActionType:     "webhook",
		ActionTarget:   json.RawMessage(`{}`),
	}
	if diff := cmp.Diff(want, configOf(got)); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.TriggerInactive, got.Status, "update keeps status")

	assert.Equal(t,
		[]models.AuditAction{models.ActionCreated, models.ActionToggled, models.ActionUpdated},
		h.auditActions(t, "org1", trg.ID))
}

func TestCreateAndUpdate_TrimName(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	cfg := lowBalance()
	cfg.Name = "  Low balance \n"
	trg, err := h.svc.Create(ctx, "org1", cfg)
	require.NoError(t, err)
	assert.Equal(t, "Low balance", trg.Name)

	cfg.Name = "\tNSF spike  "
	require.NoError(t, h.svc.Update(ctx, trg.ID, cfg))

	got, err := h.triggers.GetByID(context.Background(), "org1", trg.ID)
	require.NoError(t, err)
	assert.Equal(t, "NSF spike", got.Name)

	cfg.Name = "   "
	_, err = h.svc.Create(ctx, "org1", cfg)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdate_NotFoundWritesNoAudit(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Update(authed("org1"), "trg_missing", lowBalance())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, h.auditActions(t, "org1", "trg_missing"))
}

func TestToggle(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	trg, err := h.svc.Create(ctx, "org1", lowBalance())
	require.NoError(t, err)

	require.NoError(t, h.svc.Toggle(ctx, trg.ID, models.TriggerInactive))
	got, err := h.triggers.GetByID(context.Background(), "org1", trg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerInactive, got.Status)
	assert.Equal(t, "Low balance", got.Name)

	require.NoError(t, h.svc.Toggle(ctx, trg.ID, models.TriggerActive))
	got, err = h.triggers.GetByID(context.Background(), "org1", trg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TriggerActive, got.Status)

	assert.ErrorIs(t, h.svc.Toggle(ctx, trg.ID, "paused"), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, h.svc.Toggle(ctx, "trg_missing", models.TriggerActive), apperrors.ErrNotFound)
	assert.ErrorIs(t, h.svc.Toggle(authed("org2"), trg.ID, models.TriggerActive), apperrors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	ctx := authed("org1")

	trg, err := h.svc.Create(ctx, "org1", lowBalance())
	require.NoError(t, err)

	require.NoError(t, h.svc.Delete(ctx, trg.ID))
	assert.ErrorIs(t, h.svc.Delete(ctx, trg.ID), apperrors.ErrNotFound)

	list, err := h.svc.List(ctx, "org1", repositories.Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, []models.AuditAction{models.ActionCreated, models.ActionDeleted}, h.auditActions(t, "org1", trg.ID))
}
