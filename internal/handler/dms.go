package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
)

type DMHandler struct {
	svc *core.Service
}

func NewDMHandler(svc *core.Service) *DMHandler {
	return &DMHandler{svc: svc}
}

type createDMRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

func (h *DMHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDMRequest
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := h.svc.CreateDM(r.Context(), middleware.GetUserID(r.Context()), req.UserIDs)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"dm_id": id})
}

func (h *DMHandler) List(w http.ResponseWriter, r *http.Request) {
	dms, err := h.svc.DMs(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dms)
}

func (h *DMHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dm id")
		return
	}
	d, err := h.svc.DMDetails(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DMHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dm id")
		return
	}
	if err := h.svc.LeaveDM(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Remove удаляет беседу целиком, доступно только её создателю.
func (h *DMHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dm id")
		return
	}
	if err := h.svc.RemoveDM(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *DMHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dm id")
		return
	}
	start := queryInt(r, "start", 0)
	page, err := h.svc.DMMessages(r.Context(), middleware.GetUserID(r.Context()), id, start)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *DMHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid dm id")
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
		msgID, err = h.svc.SendDMMessageLater(r.Context(), userID, id, req.Text, req.SendAt)
	} else {
		msgID, err = h.svc.SendDMMessage(r.Context(), userID, id, req.Text)
	}
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"message_id": msgID})
}
