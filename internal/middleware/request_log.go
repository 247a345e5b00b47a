package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/workchat/internal/logger"
)

// RequestLog пишет каждый запрос в лог: метод, путь, код ответа и длительность
// (асинхронно, не блокирует ответ).
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			logger.DeferLogDuration("http "+r.Method+" "+r.URL.Path+" "+strconv.Itoa(wrap.status), start)()
		}()
		next.ServeHTTP(wrap, r)
	})
}
