package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/workchat/internal/core"
	"github.com/workchat/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeCoreError переводит ошибку ядра в HTTP-статус: некорректный запрос —
// 400, нехватка прав — 403, всё остальное — 500 с записью в лог.
func writeCoreError(w http.ResponseWriter, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, core.ErrBadRequest):
		writeError(w, http.StatusBadRequest, strings.TrimSuffix(msg, ": "+core.ErrBadRequest.Error()))
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, strings.TrimSuffix(msg, ": "+core.ErrForbidden.Error()))
	default:
		logger.Errorf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// urlID парсит числовой path-параметр chi. Нечисловое значение — (0, false).
func urlID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
