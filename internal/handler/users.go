package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
)

type UserHandler struct {
	svc *core.Service
}

func NewUserHandler(svc *core.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetProfile — профиль любого пользователя по id, включая удалённых.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	p, err := h.svc.Profile(r.Context(), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.AllUsers(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type setNameRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *UserHandler) SetName(w http.ResponseWriter, r *http.Request) {
	var req setNameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.SetName(r.Context(), middleware.GetUserID(r.Context()), req.FirstName, req.LastName)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setEmailRequest struct {
	Email string `json:"email"`
}

func (h *UserHandler) SetEmail(w http.ResponseWriter, r *http.Request) {
	var req setEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.SetEmail(r.Context(), middleware.GetUserID(r.Context()), req.Email)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setHandleRequest struct {
	Handle string `json:"handle"`
}

func (h *UserHandler) SetHandle(w http.ResponseWriter, r *http.Request) {
	var req setHandleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.SetHandle(r.Context(), middleware.GetUserID(r.Context()), req.Handle)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type setPhotoRequest struct {
	URL string `json:"url"`
}

func (h *UserHandler) SetPhoto(w http.ResponseWriter, r *http.Request) {
	var req setPhotoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.SetPhoto(r.Context(), middleware.GetUserID(r.Context()), req.URL)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.UserStatsFor(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) GetWorkspaceStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.WorkspaceStatsFor(r.Context())
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.svc.Notifications(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}
