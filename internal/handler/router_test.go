package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/workchat/internal/config"
	"github.com/workchat/internal/core"
	sessionmemory "github.com/workchat/internal/session/memory"
	storememory "github.com/workchat/internal/store/memory"
)

type nullMailer struct{}

func (nullMailer) Send(ctx context.Context, to, subject, body string) error { return nil }

type nullPhotos struct{}

func (nullPhotos) Fetch(ctx context.Context, url string, userID int64) (string, error) {
	return "/static/stub.jpg", nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := core.NewService(storememory.New(), sessionmemory.New(), nullMailer{}, nullPhotos{}, "/static/default.jpg")
	t.Cleanup(svc.Close)
	cfg := &config.Config{
		CORSAllowedOrigins: "*",
		UploadDir:          t.TempDir(),
	}
	srv := httptest.NewServer(NewRouter(svc, cfg))
	t.Cleanup(srv.Close)
	return srv
}

// do выполняет JSON-запрос и декодирует ответ в map.
func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		out = nil
	}
	return resp.StatusCode, out
}

func registerUser(t *testing.T, srv *httptest.Server, email, first, last string) string {
	t.Helper()
	status, res := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      email,
		"password":   "password1",
		"first_name": first,
		"last_name":  last,
	})
	if status != http.StatusOK {
		t.Fatalf("register %s: status %d (%v)", email, status, res)
	}
	return res["token"].(string)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	status, _ := do(t, srv, http.MethodGet, "/api/channels", "", nil)
	if status != http.StatusForbidden {
		t.Fatalf("no token: status %d, want 403", status)
	}
	status, _ = do(t, srv, http.MethodGet, "/api/channels", "bogus", nil)
	if status != http.StatusForbidden {
		t.Fatalf("bad token: status %d, want 403", status)
	}
}

func TestChannelFlow(t *testing.T) {
	srv := newTestServer(t)
	ada := registerUser(t, srv, "ada@example.com", "Ada", "Lovelace")
	bob := registerUser(t, srv, "bob@example.com", "Bob", "Jones")

	status, res := do(t, srv, http.MethodPost, "/api/channels", ada, map[string]any{
		"name":   "general",
		"public": true,
	})
	if status != http.StatusOK {
		t.Fatalf("create channel: %d (%v)", status, res)
	}
	ch := int64(res["channel_id"].(float64))

	// пустое имя — 400
	status, _ = do(t, srv, http.MethodPost, "/api/channels", ada, map[string]any{"name": ""})
	if status != http.StatusBadRequest {
		t.Fatalf("empty name: status %d, want 400", status)
	}

	status, _ = do(t, srv, http.MethodPost, fmt.Sprintf("/api/channels/%d/join", ch), bob, nil)
	if status != http.StatusOK {
		t.Fatalf("join: status %d", status)
	}

	status, res = do(t, srv, http.MethodPost, fmt.Sprintf("/api/channels/%d/messages", ch), bob, map[string]string{
		"text": "hello @adalovelace",
	})
	if status != http.StatusOK {
		t.Fatalf("send: %d (%v)", status, res)
	}
	msgID := int64(res["message_id"].(float64))

	status, res = do(t, srv, http.MethodGet, fmt.Sprintf("/api/channels/%d/messages?start=0", ch), ada, nil)
	if status != http.StatusOK {
		t.Fatalf("messages: %d (%v)", status, res)
	}
	msgs := res["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if res["end"].(float64) != -1 {
		t.Fatalf("end = %v, want -1", res["end"])
	}

	// тег дошёл до ады
	status, _ = do(t, srv, http.MethodGet, "/api/users/me/notifications", ada, nil)
	if status != http.StatusOK {
		t.Fatalf("notifications: status %d", status)
	}

	// чужое сообщение обычный участник не правит
	status, _ = do(t, srv, http.MethodPut, fmt.Sprintf("/api/messages/%d", msgID+100), ada, map[string]string{"text": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("edit missing message: status %d, want 400", status)
	}

	status, _ = do(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/%d/react", msgID), ada, map[string]int{"kind": 1})
	if status != http.StatusOK {
		t.Fatalf("react: status %d", status)
	}
	status, _ = do(t, srv, http.MethodPost, fmt.Sprintf("/api/messages/%d/react", msgID), ada, map[string]int{"kind": 1})
	if status != http.StatusBadRequest {
		t.Fatalf("double react: status %d, want 400", status)
	}
}

func TestDMFlow(t *testing.T) {
	srv := newTestServer(t)
	ada := registerUser(t, srv, "ada@example.com", "Ada", "Lovelace")
	registerUser(t, srv, "bob@example.com", "Bob", "Jones")

	// id боба берём из общего списка
	status, _ := do(t, srv, http.MethodGet, "/api/users", ada, nil)
	if status != http.StatusOK {
		t.Fatalf("users: status %d", status)
	}

	status, res := do(t, srv, http.MethodPost, "/api/dms", ada, map[string]any{"user_ids": []int64{2}})
	if status != http.StatusOK {
		t.Fatalf("create dm: %d (%v)", status, res)
	}
	dm := int64(res["dm_id"].(float64))

	status, res = do(t, srv, http.MethodGet, fmt.Sprintf("/api/dms/%d", dm), ada, nil)
	if status != http.StatusOK {
		t.Fatalf("dm details: %d (%v)", status, res)
	}
	if res["name"].(string) != "adalovelace, bobjones" {
		t.Fatalf("dm name = %v", res["name"])
	}

	status, _ = do(t, srv, http.MethodDelete, fmt.Sprintf("/api/dms/%d", dm), ada, nil)
	if status != http.StatusOK {
		t.Fatalf("remove dm: status %d", status)
	}
	status, _ = do(t, srv, http.MethodGet, fmt.Sprintf("/api/dms/%d", dm), ada, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("details after remove: status %d, want 400", status)
	}
}

func TestLogoutFlow(t *testing.T) {
	srv := newTestServer(t)
	ada := registerUser(t, srv, "ada@example.com", "Ada", "Lovelace")

	status, _ := do(t, srv, http.MethodPost, "/api/auth/logout", ada, nil)
	if status != http.StatusOK {
		t.Fatalf("logout: status %d", status)
	}
	status, _ = do(t, srv, http.MethodGet, "/api/channels", ada, nil)
	if status != http.StatusForbidden {
		t.Fatalf("after logout: status %d, want 403", status)
	}
}
