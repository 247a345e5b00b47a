package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Скользящее окно в минуту: до 200 запросов с адреса, до 100 от пользователя.
const (
	limitWindow  = time.Minute
	limitPerIP   = 200
	limitPerUser = 100
)

type slidingWindow struct {
	mu    sync.Mutex
	hits  map[string][]time.Time
	limit int
}

func newSlidingWindow(limit int) *slidingWindow {
	return &slidingWindow{hits: make(map[string][]time.Time), limit: limit}
}

func (s *slidingWindow) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-limitWindow)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= s.limit {
		s.hits[key] = kept
		return false
	}
	s.hits[key] = append(kept, now)
	return true
}

var (
	ipWindow   = newSlidingWindow(limitPerIP)
	userWindow = newSlidingWindow(limitPerUser)
)

// RateLimitIP отсекает слишком частые запросы по адресу клиента (RemoteAddr
// нормализуется выше через chi RealIP). Превышение — 429.
func RateLimitIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !ipWindow.allow(host, time.Now()) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitUser ограничивает запросы по пользователю из контекста, поэтому
// должен стоять после TokenAuth.
func RateLimitUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetUserID(r.Context()); id != 0 {
			if !userWindow.allow("u:"+strconv.FormatInt(id, 10), time.Now()) {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
