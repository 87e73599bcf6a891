package handlers

import (
	"context"
	"net/http"

	"lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/models"
	"lenderhub/internal/platform/repositories"
)

type AuditLister interface {
	ListByOrg(ctx context.Context, orgID string, filter repositories.AuditFilter, page repositories.Page) ([]*models.AuditLog, error)
}

type AuditHandler struct {
	logs AuditLister
}

func NewAuditHandler(logs AuditLister) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// List returns the caller's audit trail, newest first. resource_type and
// resource_id narrow it.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repositories.AuditFilter{
		ResourceType: models.ResourceType(q.Get("resource_type")),
		ResourceID:   q.Get("resource_id"),
	}

	logs, err := h.logs.ListByOrg(r.Context(), orgID, filter, pageOf(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}
