package core

import (
	"context"
	"errors"
	"testing"

	sessionmemory "github.com/workchat/internal/session/memory"
	storememory "github.com/workchat/internal/store/memory"
)

func TestSetName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")

	if err := svc.SetName(ctx, ada, "", "Lovelace"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("empty first name: got %v, want ErrBadRequest", err)
	}
	if err := svc.SetName(ctx, ada, "Augusta", "King"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	p, _ := svc.Profile(ctx, ada)
	if p.FirstName != "Augusta" || p.LastName != "King" {
		t.Fatalf("profile = %+v", p)
	}
	// ник при смене имени не меняется
	if p.Handle != "adalovelace" {
		t.Fatalf("handle = %q, want adalovelace", p.Handle)
	}
}

func TestSetEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	register(t, svc, "bob@example.com", "Bob", "Jones")

	if err := svc.SetEmail(ctx, ada, "not-an-email"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("bad email: got %v, want ErrBadRequest", err)
	}
	if err := svc.SetEmail(ctx, ada, "bob@example.com"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("taken email: got %v, want ErrBadRequest", err)
	}
	// свой собственный адрес — не ошибка
	if err := svc.SetEmail(ctx, ada, "ada@example.com"); err != nil {
		t.Fatalf("same email: %v", err)
	}
	if err := svc.SetEmail(ctx, ada, "countess@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if _, err := svc.Login(ctx, "countess@example.com", "password1"); err != nil {
		t.Fatalf("login with new email: %v", err)
	}
}

func TestSetHandle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	register(t, svc, "bob@example.com", "Bob", "Jones")

	cases := []struct {
		name   string
		handle string
	}{
		{"too short", "ab"},
		{"too long", "abcdefghijklmnopqrstu"},
		{"uppercase", "AdaL"},
		{"symbols", "ada_l"},
		{"taken", "bobjones"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.SetHandle(ctx, ada, tc.handle); !errors.Is(err, ErrBadRequest) {
				t.Fatalf("got %v, want ErrBadRequest", err)
			}
		})
	}

	if err := svc.SetHandle(ctx, ada, "countess"); err != nil {
		t.Fatalf("set handle: %v", err)
	}
	p, _ := svc.Profile(ctx, ada)
	if p.Handle != "countess" {
		t.Fatalf("handle = %q", p.Handle)
	}
}

func TestSetPhoto(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")

	p, _ := svc.Profile(ctx, ada)
	if p.PhotoURL != "/static/default.jpg" {
		t.Fatalf("default photo = %q", p.PhotoURL)
	}

	if err := svc.SetPhoto(ctx, ada, ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("empty url: got %v, want ErrBadRequest", err)
	}
	if err := svc.SetPhoto(ctx, ada, "http://example.com/me.jpg"); err != nil {
		t.Fatalf("set photo: %v", err)
	}
	p, _ = svc.Profile(ctx, ada)
	if p.PhotoURL != "/static/stub.jpg" {
		t.Fatalf("photo = %q", p.PhotoURL)
	}
}

func TestSetPhotoFetchFailureFallsBack(t *testing.T) {
	mail := &mailerStub{}
	svc := NewService(storememory.New(), sessionmemory.New(), mail, failingPhotoStub{}, "/static/default.jpg")
	t.Cleanup(svc.Close)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")

	if err := svc.SetPhoto(ctx, ada, "http://example.com/broken.jpg"); err != nil {
		t.Fatalf("set photo: %v", err)
	}
	p, _ := svc.Profile(ctx, ada)
	if p.PhotoURL != "/static/default.jpg" {
		t.Fatalf("photo = %q, want default", p.PhotoURL)
	}
}

func TestProfileMissingUser(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Profile(context.Background(), 99999); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
}
