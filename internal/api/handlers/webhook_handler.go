package handlers

import (
	"net/http"

	"lenderhub/internal/engine/webhooks"
	"lenderhub/internal/pkg/errors"
)

type WebhookHandler struct {
	svc *webhooks.Service
}

func NewWebhookHandler(svc *webhooks.Service) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	hooks, err := h.svc.List(r.Context(), orgID, pageOf(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, hooks)
}

func (h *WebhookHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	var req struct {
		Name   string   `json:"name"`
		URL    string   `json:"url"`
		Events []string `json:"events"`
	}
	if !decode(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), orgID, req.Name, req.URL, req.Events)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *WebhookHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch webhooks.Patch
	if !decode(w, r, &patch) {
		return
	}

	if err := h.svc.Update(r.Context(), param(r, "webhook_id"), patch); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), param(r, "webhook_id")); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test answers 200 whether or not the endpoint accepted the delivery.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Test(r.Context(), param(r, "webhook_id"))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
