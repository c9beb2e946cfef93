package handler

import (
	"net/http"
	"strings"

	"socialhub/internal/apperr"
	"socialhub/internal/metrics"
)

type sendMessageRequest struct {
	Sender   string `json:"sender" validate:"required"`
	Receiver string `json:"receiver" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

// SendMessage handles POST /send-message
// 保存とブロードキャストは WebSocket と同じ Router を通す
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	const op = "handler.send_message"

	var req sendMessageRequest
	if err := decodeJSON(w, r, op, maxJSONBody, &req); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	req.Sender = strings.TrimSpace(req.Sender)
	req.Receiver = strings.TrimSpace(req.Receiver)
	if err := validateRequest(op, req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	msg, err := h.Router.Submit(r.Context(), metrics.IngressREST, req.Sender, req.Receiver, req.Message)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// GetMessages handles GET /get-messages?sender=&receiver=
// 会話が空の場合も200で空配列を返す
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	const op = "handler.get_messages"

	q := r.URL.Query()
	sender := strings.TrimSpace(q.Get("sender"))
	receiver := strings.TrimSpace(q.Get("receiver"))
	switch {
	case sender == "":
		h.writeError(w, r, op, apperr.ValidationError{Op: op, Field: "sender"})
		return
	case receiver == "":
		h.writeError(w, r, op, apperr.ValidationError{Op: op, Field: "receiver"})
		return
	}

	msgs, err := h.Store.FetchConversation(r.Context(), sender, receiver)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
