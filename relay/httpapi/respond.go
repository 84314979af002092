package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"moderation-gateway/relay/domain"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	respondJSON(w, http.StatusOK, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

// respondErr traduz os erros sentinela do domínio para status HTTP.
func respondErr(w http.ResponseWriter, err error) {
	status, message := statusFor(err)
	respondError(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "API key is required"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrUnknownTenant):
		return http.StatusForbidden, "Invalid API key"
	case errors.Is(err, domain.ErrInvalidAction):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "storage unavailable, action not confirmed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
