package handlers

import (
	"net/http"

	"lenderhub/internal/engine/apikeys"
	"lenderhub/internal/pkg/errors"
)

type APIKeyHandler struct {
	svc *apikeys.Service
}

func NewAPIKeyHandler(svc *apikeys.Service) *APIKeyHandler {
	return &APIKeyHandler{svc: svc}
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	keys, err := h.svc.List(r.Context(), orgID, pageOf(r))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, keys)
}

// Create returns the raw key. It is never shown again.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := orgOf(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}

	created, err := h.svc.Create(r.Context(), orgID, req.Name)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *APIKeyHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	regenerated, err := h.svc.Regenerate(r.Context(), param(r, "key_id"))
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, regenerated)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Revoke(r.Context(), param(r, "key_id")); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), param(r, "key_id")); err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Verify checks a raw API key presented by an integration. It needs no session.
func (h *APIKeyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decode(w, r, &req) {
		return
	}

	key, err := h.svc.Authenticate(r.Context(), req.Key)
	if err != nil {
		errors.WriteServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Valid  bool   `json:"valid"`
		KeyID  string `json:"key_id"`
		OrgID  string `json:"org_id"`
		Prefix string `json:"prefix"`
	}{
		Valid:  true,
		KeyID:  key.ID,
		OrgID:  key.OrgID,
		Prefix: key.Prefix,
	})
}
