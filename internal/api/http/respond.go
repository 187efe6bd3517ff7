package http

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/security"
	"ict-access-backend/internal/service"
	"ict-access-backend/internal/workflow"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps domain and workflow errors onto transport codes. The three
// 409 variants carry distinct codes so clients can tell "someone already
// acted" from "the record moved under you" from "the device is taken".
func writeError(w http.ResponseWriter, err error) {
	var (
		unauthorized *workflow.UnauthorizedActorError
		invalidStage *workflow.InvalidStageError
		stale        *workflow.StaleStateError
		conflict     *workflow.ConflictError
		validation   *workflow.ValidationError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "VALIDATION"})
	case errors.As(err, &unauthorized):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Code: "UNAUTHORIZED_ACTOR"})
	case errors.As(err, &invalidStage):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "INVALID_STAGE"})
	case errors.As(err, &stale):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "STALE_STATE"})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "BOOKING_CONFLICT"})
	case errors.Is(err, sql.ErrNoRows):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "NOT_FOUND"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountInactive):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "UNAUTHENTICATED"})
	case errors.Is(err, security.ErrInvalidToken), errors.Is(err, security.ErrExpiredToken), errors.Is(err, security.ErrWrongTokenType):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "UNAUTHENTICATED"})
	default:
		logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "INTERNAL"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &workflow.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
