package core

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	sessionmemory "github.com/workchat/internal/session/memory"
	storememory "github.com/workchat/internal/store/memory"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mailerStub struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mailerStub) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *mailerStub) last() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

var resetCodeRx = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

type photoStub struct{}

func (photoStub) Fetch(ctx context.Context, url string, userID int64) (string, error) {
	return "/static/stub.jpg", nil
}

type failingPhotoStub struct{}

func (failingPhotoStub) Fetch(ctx context.Context, url string, userID int64) (string, error) {
	return "", errors.New("unreachable host")
}

func newTestService(t *testing.T) (*Service, *mailerStub) {
	t.Helper()
	mail := &mailerStub{}
	svc := NewService(storememory.New(), sessionmemory.New(), mail, photoStub{}, "/static/default.jpg")
	t.Cleanup(svc.Close)
	return svc, mail
}

// register — быстрый путь для тестов: регистрирует пользователя и
// возвращает его идентификатор.
func register(t *testing.T, svc *Service, email, first, last string) int64 {
	t.Helper()
	res, err := svc.Register(context.Background(), email, "password1", first, last)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.UserID
}

// waitFor опрашивает условие до срабатывания отложенной задачи.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
