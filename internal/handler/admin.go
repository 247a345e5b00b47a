package handler

import (
	"net/http"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/middleware"
	"github.com/workchat/internal/model"
)

type AdminHandler struct {
	svc *core.Service
}

func NewAdminHandler(svc *core.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type changeTierRequest struct {
	Tier int `json:"tier"`
}

// ChangeTier меняет уровень прав пользователя в воркспейсе.
func (h *AdminHandler) ChangeTier(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req changeTierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.svc.ChangeUserTier(r.Context(), middleware.GetUserID(r.Context()), id, model.Tier(req.Tier))
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveUser удаляет пользователя из воркспейса безвозвратно.
func (h *AdminHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	err := h.svc.RemoveUser(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
