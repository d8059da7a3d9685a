package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"formflow/internal/app"
	"formflow/internal/domain"
	"github.com/go-chi/chi/v5"
)

type formHandler struct {
	forms  *app.FormService
	fill   *app.FillService
	logger *slog.Logger
}

type formRequest struct {
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}

type responseRequest struct {
	Answers domain.Answers `json:"answers"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

var errBadBody = errors.New("invalid request body")

func (h *formHandler) list(w http.ResponseWriter, r *http.Request) {
	forms, err := h.forms.ListForms(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, forms)
}

func (h *formHandler) create(w http.ResponseWriter, r *http.Request) {
	var body formRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, h.logger, err)
		return
	}
	id, err := h.forms.SaveForm(r.Context(), body.Title, body.Questions)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, idResponse{ID: id})
}

func (h *formHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	form, err := h.forms.GetForm(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, form)
}

func (h *formHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	var body formRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, h.logger, err)
		return
	}
	if err := h.forms.UpdateForm(r.Context(), id, body.Title, body.Questions); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *formHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.forms.DeleteForm(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *formHandler) saveResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	var body responseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, h.logger, err)
		return
	}
	responseID, err := h.fill.SaveResponse(r.Context(), id, body.Answers)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, idResponse{ID: responseID})
}

func (h *formHandler) listResponses(w http.ResponseWriter, r *http.Request) {
	id, ok := formID(w, r, h.logger)
	if !ok {
		return
	}
	responses, err := h.fill.ListResponses(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, responses)
}

func formID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	return pathInt(w, r, logger, "formID")
}

func pathInt(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeJSON(w, logger, http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

func badRequest(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Debug("rejected request body", "error", err)
	writeJSON(w, logger, http.StatusBadRequest, errorBody{Error: errBadBody.Error()})
}
