package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "lenderhub/internal/api/context"
	"lenderhub/internal/pkg/errors"
	"lenderhub/internal/platform/repositories"
	"lenderhub/internal/platform/session"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and writes a 400 when it cannot.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return false
	}
	return true
}

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

// pageOf reads limit and offset from the query string. Bad values fall back
// to the defaults.
func pageOf(r *http.Request) repositories.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return repositories.Page{Limit: limit, Offset: offset}
}

// orgOf returns the caller's organisation, writing a 401 when there is no session.
func orgOf(w http.ResponseWriter, r *http.Request) (string, bool) {
	s, err := session.Require(r.Context())
	if err != nil {
		errors.WriteServiceError(w, err)
		return "", false
	}
	return s.OrgID, true
}
