package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/workchat/internal/session"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestTokens(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.UserByToken(ctx, "ghost"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("missing token: got %v, want ErrNotFound", err)
	}

	if err := c.SaveToken(ctx, "tok-1", 42); err != nil {
		t.Fatal(err)
	}
	id, err := c.UserByToken(ctx, "tok-1")
	if err != nil || id != 42 {
		t.Fatalf("UserByToken = %d, %v", id, err)
	}

	if err := c.DeleteToken(ctx, "tok-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UserByToken(ctx, "tok-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("deleted token: got %v, want ErrNotFound", err)
	}
	if err := c.DeleteToken(ctx, "tok-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteUserTokens(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for _, tok := range []string{"a", "b", "c"} {
		if err := c.SaveToken(ctx, tok, 7); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.SaveToken(ctx, "other", 8); err != nil {
		t.Fatal(err)
	}

	if err := c.DeleteUserTokens(ctx, 7); err != nil {
		t.Fatal(err)
	}
	for _, tok := range []string{"a", "b", "c"} {
		if _, err := c.UserByToken(ctx, tok); !errors.Is(err, session.ErrNotFound) {
			t.Fatalf("token %q survived revocation: %v", tok, err)
		}
	}
	// чужой токен не тронут
	if id, err := c.UserByToken(ctx, "other"); err != nil || id != 8 {
		t.Fatalf("other token = %d, %v", id, err)
	}
}

func TestTokenExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.SaveToken(ctx, "tok", 1); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(session.TokenTTL + time.Hour)
	if _, err := c.UserByToken(ctx, "tok"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expired token: got %v, want ErrNotFound", err)
	}
}

func TestResetCodes(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.SaveResetCode(ctx, "code-1", 42); err != nil {
		t.Fatal(err)
	}
	id, err := c.UserByResetCode(ctx, "code-1")
	if err != nil || id != 42 {
		t.Fatalf("UserByResetCode = %d, %v", id, err)
	}

	if err := c.DeleteResetCode(ctx, "code-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.UserByResetCode(ctx, "code-1"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("deleted code: got %v, want ErrNotFound", err)
	}

	// код живёт 15 минут
	if err := c.SaveResetCode(ctx, "code-2", 42); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(session.ResetCodeTTL + time.Minute)
	if _, err := c.UserByResetCode(ctx, "code-2"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expired code: got %v, want ErrNotFound", err)
	}
}
