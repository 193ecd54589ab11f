package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitlyhq/splitly/internal/calculator"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine and storage errors onto HTTP statuses:
// malformed split input is the client's fault, unknown participants and
// unbalanced positions signal inconsistent upstream data, anything else
// from a lookup is treated as not found.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalid    *calculator.InvalidSplitError
		unknown    *calculator.UnknownParticipantError
		unbalanced *calculator.UnbalancedInputError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &unknown):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &unbalanced):
		status = http.StatusConflict
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func writeNotFound(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
}

func writeForbidden(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusForbidden, errorResponse{Error: msg})
}
