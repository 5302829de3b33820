// Package handlers provides HTTP handlers for the brochure API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// envelope is the success body shared by every endpoint.
type envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"status":  "error",
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps err onto an HTTP status and a client-facing message.
func writeDomainError(w http.ResponseWriter, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	writeError(w, statusFor(de.Type), de.Message, string(de.Type))
}

func statusFor(t domain.ErrorType) int {
	switch t {
	case domain.ErrorTypeInvalidInput, domain.ErrorTypeInputTooLarge, domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
