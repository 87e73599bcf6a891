package handlers

import (
	"net/http"

	"lenderhub/internal/engine/triggers"
	"lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/models"
)

type TriggerHandler struct {
	svc *triggers.Service
}

func NewTriggerHandler(svc *triggers.Service) *TriggerHandler {
	return &TriggerHandler{svc: svc}
}

func (h *TriggerHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	list, err := h.svc.List(r.Context(), orgID, pageOf(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *TriggerHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	var cfg models.TriggerConfig
	if !decode(w, r, &cfg) {
		return
	}

	trigger, err := h.svc.Create(r.Context(), orgID, cfg)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, trigger)
}

// Update replaces the whole configuration. Status is changed with Toggle.
func (h *TriggerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cfg models.TriggerConfig
	if !decode(w, r, &cfg) {
		return
	}

	if err := h.svc.Update(r.Context(), param(r, "trigger_id"), cfg); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TriggerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), param(r, "trigger_id")); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TriggerHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.TriggerStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}

	if err := h.svc.Toggle(r.Context(), param(r, "trigger_id"), req.Status); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
