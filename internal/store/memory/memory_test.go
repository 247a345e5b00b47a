package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/workchat/internal/model"
	"github.com/workchat/internal/store"
)

func TestUserCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.NextID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	u := &model.User{ID: id, Email: "ada@example.com", Handle: "ada"}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}

	got, err := s.User(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("email = %q", got.Email)
	}
	// хранилище отдаёт копию
	got.Email = "mutated"
	again, _ := s.User(ctx, id)
	if again.Email != "ada@example.com" {
		t.Fatal("store returned a shared pointer")
	}

	if _, err := s.UserByEmail(ctx, "ada@example.com"); err != nil {
		t.Fatalf("by email: %v", err)
	}
	if _, err := s.UserByHandle(ctx, "ada"); err != nil {
		t.Fatalf("by handle: %v", err)
	}
	if _, err := s.User(ctx, 999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}

	err = s.UpdateUser(ctx, id, func(u *model.User) error {
		u.FirstName = "Ada"
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = s.User(ctx, id)
	if got.FirstName != "Ada" {
		t.Fatalf("first name = %q", got.FirstName)
	}

	// ошибка из fn отменяет запись
	wantErr := errors.New("nope")
	err = s.UpdateUser(ctx, id, func(u *model.User) error {
		u.FirstName = "Mutated"
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want wrapped fn error", err)
	}
	got, _ = s.User(ctx, id)
	if got.FirstName != "Ada" {
		t.Fatal("failed update mutated the record")
	}
}

func TestMessageIndex(t *testing.T) {
	s := New()
	ctx := context.Background()

	cid, _ := s.NextID(ctx)
	c := &model.Conversation{ID: cid, Kind: model.KindChannel, Name: "general"}
	if err := s.CreateConversation(ctx, c); err != nil {
		t.Fatal(err)
	}

	mid, _ := s.NextID(ctx)
	err := s.UpdateConversation(ctx, cid, func(c *model.Conversation) error {
		c.Messages = append(c.Messages, model.Message{ID: mid, Text: "hi"})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	found, err := s.ConversationByMessage(ctx, mid)
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != cid {
		t.Fatalf("conversation = %d, want %d", found.ID, cid)
	}

	// удаление сообщения убирает его из индекса
	err = s.UpdateConversation(ctx, cid, func(c *model.Conversation) error {
		c.DeleteMessage(mid)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ConversationByMessage(ctx, mid); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteConversation(t *testing.T) {
	s := New()
	ctx := context.Background()

	cid, _ := s.NextID(ctx)
	mid, _ := s.NextID(ctx)
	c := &model.Conversation{
		ID:       cid,
		Kind:     model.KindDM,
		Messages: []model.Message{{ID: mid, Text: "hi"}},
	}
	if err := s.CreateConversation(ctx, c); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteConversation(ctx, cid); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Conversation(ctx, cid); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted conversation: got %v, want ErrNotFound", err)
	}
	if _, err := s.ConversationByMessage(ctx, mid); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("message of deleted conversation: got %v, want ErrNotFound", err)
	}
	if err := s.DeleteConversation(ctx, cid); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s := New()
	ctx := context.Background()

	cid, _ := s.NextID(ctx)
	if err := s.CreateConversation(ctx, &model.Conversation{ID: cid, Kind: model.KindChannel}); err != nil {
		t.Fatal(err)
	}

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			id, _ := s.NextID(ctx)
			_ = s.UpdateConversation(ctx, cid, func(c *model.Conversation) error {
				c.Messages = append(c.Messages, model.Message{ID: id})
				return nil
			})
		}()
	}
	wg.Wait()

	c, err := s.Conversation(ctx, cid)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Messages) != n {
		t.Fatalf("messages = %d, want %d", len(c.Messages), n)
	}
	seen := make(map[int64]bool)
	for _, m := range c.Messages {
		if seen[m.ID] {
			t.Fatalf("duplicate message id %d", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestWorkspaceSingleton(t *testing.T) {
	s := New()
	ctx := context.Background()

	w, err := s.Workspace(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.ChannelsExist) != 0 {
		t.Fatalf("fresh workspace = %+v", w)
	}
	err = s.UpdateWorkspace(ctx, func(w *model.Workspace) error {
		w.ChannelsExist = append(w.ChannelsExist, model.StatPoint{Count: 1, At: 1})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	w, _ = s.Workspace(ctx)
	if len(w.ChannelsExist) != 1 {
		t.Fatalf("workspace after update = %+v", w)
	}
}
