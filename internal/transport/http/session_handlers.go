package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"formflow/internal/app"
	"formflow/internal/domain"
	"github.com/go-chi/chi/v5"
)

type sessionHandler struct {
	fill   *app.FillService
	logger *slog.Logger
}

type submitResponse struct {
	ResponseID int64 `json:"responseId"`
}

func (h *sessionHandler) start(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.fill.Start(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *sessionHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (app.View, error) {
		return h.fill.Get(r.Context(), chi.URLParam(r, "sessionID"))
	})
}

func (h *sessionHandler) answer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := pathInt(w, r, h.logger, "questionID")
	if !ok {
		return
	}
	var answer domain.Answer
	if err := json.NewDecoder(r.Body).Decode(&answer); err != nil {
		badRequest(w, h.logger, err)
		return
	}
	h.respond(w, func() (app.View, error) {
		return h.fill.Answer(r.Context(), chi.URLParam(r, "sessionID"), questionID, answer)
	})
}

func (h *sessionHandler) next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (app.View, error) {
		return h.fill.Next(r.Context(), chi.URLParam(r, "sessionID"))
	})
}

func (h *sessionHandler) back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (app.View, error) {
		return h.fill.Back(r.Context(), chi.URLParam(r, "sessionID"))
	})
}

func (h *sessionHandler) submit(w http.ResponseWriter, r *http.Request) {
	responseID, err := h.fill.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, submitResponse{ResponseID: responseID})
}

func (h *sessionHandler) respond(w http.ResponseWriter, call func() (app.View, error)) {
	view, err := call()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}
