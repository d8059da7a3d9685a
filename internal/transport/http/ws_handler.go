package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"formflow/internal/app"
	"formflow/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler drives one fill session over a websocket. Every inbound command
// is answered with the new session view or an error message.
type WSHandler struct {
	fill     *app.FillService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(fill *app.FillService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		fill:   fill,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int64         `json:"questionId"`
	Answer     domain.Answer `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// ServeWS upgrades the request and resumes sessionId or starts a session on formId.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	rawFormID := r.URL.Query().Get("formId")
	var formID int64
	if sessionID == "" {
		id, err := strconv.ParseInt(rawFormID, 10, 64)
		if err != nil {
			http.Error(w, "missing formId or sessionId", http.StatusBadRequest)
			return
		}
		formID = id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var view app.View
	if sessionID != "" {
		view, err = h.fill.Get(ctx, sessionID)
	} else {
		view, err = h.fill.Start(ctx, formID)
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	sessionID = view.SessionID

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", "session_id", sessionID, "error", err)
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: view}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload", Status: http.StatusBadRequest}}
				continue
			}
			send <- stateOrError(h.fill.Answer(ctx, sessionID, payload.QuestionID, payload.Answer))
		case "next":
			send <- stateOrError(h.fill.Next(ctx, sessionID))
		case "back":
			send <- stateOrError(h.fill.Back(ctx, sessionID))
		case "submit":
			responseID, err := h.fill.Submit(ctx, sessionID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: submitResponse{ResponseID: responseID}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Status: http.StatusBadRequest}}
		}
	}

	close(send)
	<-writerDone
}

func stateOrError(view app.View, err error) outboundMessage[any] {
	if err != nil {
		return errorMessage(err)
	}
	return outboundMessage[any]{Type: "state", Payload: view}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Status: statusFor(err)}}
}
