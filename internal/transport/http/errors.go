package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"formflow/internal/domain"
)

type errorBody struct {
	Error    string           `json:"error"`
	Problems []domain.Problem `json:"problems,omitempty"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve *domain.ValidationError
		pe *domain.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMalformedForm):
		return http.StatusInternalServerError
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidAnswer),
		errors.Is(err, domain.ErrEmptyResponse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCannotAdvance),
		errors.Is(err, domain.ErrCannotGoBack),
		errors.Is(err, domain.ErrFormComplete),
		errors.Is(err, domain.ErrHasNext),
		errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrNotCurrentQuestion),
		errors.Is(err, domain.ErrFormChanged):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Problems = ve.Problems
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
		if status == http.StatusInternalServerError {
			body.Error = "internal error"
		}
	}
	writeJSON(w, logger, status, body)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response encode failed", "error", err)
	}
}
