package ui

import (
	"encoding/json"
	"net/http"

	"abx/domain/core"
	"abx/internal/errors"
)

// errorEnvelope is the uniform error body of the API.
type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the domain error kinds onto HTTP statuses: malformed
// input is 400, numerically degenerate input is 422, missing resources are
// 404, everything else is 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidationError(err):
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error(), Code: errors.CodeInvalidInput})
	case core.IsStatError(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Error: err.Error(), Code: "STAT_ERROR"})
	case errors.GetCode(err) == errors.CodeNotFound:
		writeJSON(w, http.StatusNotFound, errorEnvelope{Error: err.Error(), Code: errors.CodeNotFound})
	default:
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: err.Error(), Code: errors.CodeInternalError})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, core.Validationf("malformed request body: %v", err))
		return false
	}
	return true
}
