package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
)

type ChannelHandler struct {
	svc *core.Service
}

func NewChannelHandler(svc *core.Service) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

type createChannelRequest struct {
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := h.svc.CreateChannel(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Public)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"channel_id": id})
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	chans, err := h.svc.Channels(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chans)
}

func (h *ChannelHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	chans, err := h.svc.AllChannels(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chans)
}

func (h *ChannelHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	d, err := h.svc.ChannelDetails(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ChannelHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	if err := h.svc.JoinChannel(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type targetUserRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *ChannelHandler) Invite(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req targetUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.InviteToChannel(r.Context(), middleware.GetUserID(r.Context()), id, req.UserID)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChannelHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	if err := h.svc.LeaveChannel(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChannelHandler) AddOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req targetUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.AddOwner(r.Context(), middleware.GetUserID(r.Context()), id, req.UserID)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ChannelHandler) RemoveOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req targetUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.RemoveOwner(r.Context(), middleware.GetUserID(r.Context()), id, req.UserID)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Messages — страница истории канала, параметр start считается от самого
// нового сообщения.
func (h *ChannelHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	start := queryInt(r, "start", 0)
	page, err := h.svc.ChannelMessages(r.Context(), middleware.GetUserID(r.Context()), id, start)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

type sendMessageRequest struct {
	Text   string `json:"text"`
	SendAt int64  `json:"send_at,omitempty"`
}

func (h *ChannelHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID := middleware.GetUserID(r.Context())
	var msgID int64
	var err error
	if req.SendAt > 0 {
		msgID, err = h.svc.SendMessageLater(r.Context(), userID, id, req.Text, req.SendAt)
	} else {
		msgID, err = h.svc.SendMessage(r.Context(), userID, id, req.Text)
	}
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"message_id": msgID})
}
