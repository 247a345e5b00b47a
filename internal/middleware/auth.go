package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/workchat/internal/core"
)

// TokenAuth резолвит токен сессии из заголовка Authorization (с префиксом
// "Bearer" или без) в user_id и кладёт его в контекст. Недействительный или
// отсутствующий токен — 403.
func TokenAuth(svc *core.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			token = strings.TrimPrefix(token, "Bearer ")
			if token == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusForbidden)
				return
			}
			userID, err := svc.AuthUserID(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
