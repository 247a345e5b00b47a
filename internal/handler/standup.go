package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
)

type StandupHandler struct {
	svc *core.Service
}

func NewStandupHandler(svc *core.Service) *StandupHandler {
	return &StandupHandler{svc: svc}
}

type startStandupRequest struct {
	Length int64 `json:"length"`
}

func (h *StandupHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req startStandupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	finishAt, err := h.svc.StartStandup(r.Context(), middleware.GetUserID(r.Context()), id, req.Length)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"finish_at": finishAt})
}

func (h *StandupHandler) Active(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	status, err := h.svc.StandupActive(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type standupSendRequest struct {
	Text string `json:"text"`
}

func (h *StandupHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid channel id")
		return
	}
	var req standupSendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.StandupSend(r.Context(), middleware.GetUserID(r.Context()), id, req.Text)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
