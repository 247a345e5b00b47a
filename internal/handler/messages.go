package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
	"github.com/workchat/internal/model"
)

type MessageHandler struct {
	svc *core.Service
}

func NewMessageHandler(svc *core.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type editMessageRequest struct {
	Text string `json:"text"`
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req editMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.EditMessage(r.Context(), middleware.GetUserID(r.Context()), id, req.Text)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MessageHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	err := h.svc.RemoveMessage(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MessageHandler) Pin(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	err := h.svc.PinMessage(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MessageHandler) Unpin(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	err := h.svc.UnpinMessage(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reactRequest struct {
	Kind int `json:"kind"`
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req reactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.React(r.Context(), middleware.GetUserID(r.Context()), id, req.Kind)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *MessageHandler) Unreact(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req reactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.Unreact(r.Context(), middleware.GetUserID(r.Context()), id, req.Kind)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type shareRequest struct {
	Comment   string `json:"comment"`
	ChannelID *int64 `json:"channel_id"`
	DMID      *int64 `json:"dm_id"`
}

// Share пересылает сообщение ровно в одну целевую беседу: канал или личную.
func (h *MessageHandler) Share(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var req shareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	channelID, dmID := model.NoConversation, model.NoConversation
	if req.ChannelID != nil {
		channelID = *req.ChannelID
	}
	if req.DMID != nil {
		dmID = *req.DMID
	}
	msgID, err := h.svc.ShareMessage(r.Context(), middleware.GetUserID(r.Context()), id, req.Comment, channelID, dmID)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"message_id": msgID})
}

func (h *MessageHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	results, err := h.svc.Search(r.Context(), middleware.GetUserID(r.Context()), query)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
