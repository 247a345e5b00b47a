package core

import (
	"context"
	"errors"
	"testing"

	"github.com/workchat/internal/model"
)

func TestCreateDM(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")
	eve := register(t, svc, "eve@example.com", "Eve", "Smith")

	if _, err := svc.CreateDM(ctx, ada, []int64{bob, 99999}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("missing invitee: got %v, want ErrBadRequest", err)
	}
	if _, err := svc.CreateDM(ctx, ada, []int64{bob, bob}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("duplicate invitee: got %v, want ErrBadRequest", err)
	}
	if _, err := svc.CreateDM(ctx, ada, []int64{ada}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("self invite: got %v, want ErrBadRequest", err)
	}

	dm, err := svc.CreateDM(ctx, ada, []int64{eve, bob})
	if err != nil {
		t.Fatalf("create dm: %v", err)
	}
	d, err := svc.DMDetails(ctx, ada, dm)
	if err != nil {
		t.Fatal(err)
	}
	// имя — отсортированные ники всех участников
	if d.Name != "adalovelace, bobjones, evesmith" {
		t.Fatalf("dm name = %q", d.Name)
	}
	if len(d.Members) != 3 {
		t.Fatalf("members = %d, want 3", len(d.Members))
	}

	// приглашённые уведомлены, создатель — нет
	for _, id := range []int64{bob, eve} {
		ns, err := svc.Notifications(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if len(ns) != 1 || ns[0].Message != "adalovelace added you to adalovelace, bobjones, evesmith" {
			t.Fatalf("user %d notifications = %v", id, ns)
		}
		if ns[0].DMID != dm || ns[0].ChannelID != model.NoConversation {
			t.Fatalf("notification target = %d/%d", ns[0].ChannelID, ns[0].DMID)
		}
	}
	ns, _ := svc.Notifications(ctx, ada)
	if len(ns) != 0 {
		t.Fatalf("creator notifications = %v, want none", ns)
	}
}

func TestDMOnlyForMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")
	eve := register(t, svc, "eve@example.com", "Eve", "Smith")

	dm, _ := svc.CreateDM(ctx, ada, []int64{bob})

	if _, err := svc.DMDetails(ctx, eve, dm); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider details: got %v, want ErrForbidden", err)
	}
	list, err := svc.DMs(ctx, eve)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("outsider dm list = %v", list)
	}
}

func TestLeaveDM(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")

	dm, _ := svc.CreateDM(ctx, ada, []int64{bob})
	if _, err := svc.SendDMMessage(ctx, bob, dm, "bye"); err != nil {
		t.Fatal(err)
	}

	if err := svc.LeaveDM(ctx, bob, dm); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if err := svc.LeaveDM(ctx, bob, dm); !errors.Is(err, ErrForbidden) {
		t.Fatalf("leave twice: got %v, want ErrForbidden", err)
	}

	// имя не пересчитывается, сообщения остаются
	d, err := svc.DMDetails(ctx, ada, dm)
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "adalovelace, bobjones" {
		t.Fatalf("dm name after leave = %q", d.Name)
	}
	page, err := svc.DMMessages(ctx, ada, dm, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 1 || page.Messages[0].Text != "bye" {
		t.Fatalf("messages after leave = %v", page.Messages)
	}
}

func TestRemoveDM(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")

	dm, _ := svc.CreateDM(ctx, ada, []int64{bob})
	if _, err := svc.SendDMMessage(ctx, ada, dm, "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SendDMMessage(ctx, bob, dm, "two"); err != nil {
		t.Fatal(err)
	}

	// удалять может только создатель
	if err := svc.RemoveDM(ctx, bob, dm); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-creator remove: got %v, want ErrForbidden", err)
	}

	// создатель, вышедший из беседы, теряет право удаления
	dm2, _ := svc.CreateDM(ctx, ada, []int64{bob})
	if err := svc.LeaveDM(ctx, ada, dm2); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveDM(ctx, ada, dm2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("departed creator remove: got %v, want ErrForbidden", err)
	}

	if err := svc.RemoveDM(ctx, ada, dm); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.DMDetails(ctx, ada, dm); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("details after remove: got %v, want ErrBadRequest", err)
	}

	// счётчик сообщений воркспейса уменьшился на удалённые вместе с беседой
	ws, err := svc.WorkspaceStatsFor(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := seriesLast(ws.MessagesExist); got != 0 {
		t.Fatalf("messages exist = %d, want 0", got)
	}
	if got := seriesLast(ws.DMsExist); got != 1 {
		t.Fatalf("dms exist = %d, want 1", got)
	}
}
