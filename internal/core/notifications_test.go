package core

import (
	"context"
	"fmt"
	"testing"
)

func TestTagNotifications(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")
	eve := register(t, svc, "eve@example.com", "Eve", "Smith")

	ch, _ := svc.CreateChannel(ctx, ada, "general", true)
	if err := svc.JoinChannel(ctx, bob, ch); err != nil {
		t.Fatal(err)
	}

	// тег участника уведомляет, тег не-участника и несуществующий — нет
	if _, err := svc.SendMessage(ctx, ada, ch, "hey @bobjones and @evesmith and @nobody"); err != nil {
		t.Fatal(err)
	}
	ns, _ := svc.Notifications(ctx, bob)
	if len(ns) != 1 {
		t.Fatalf("bob notifications = %d, want 1", len(ns))
	}
	// превью — первые 20 символов текста
	want := "adalovelace tagged you in general: hey @bobjones and @e"
	if ns[0].Message != want {
		t.Fatalf("notification = %q, want %q", ns[0].Message, want)
	}
	ns, _ = svc.Notifications(ctx, eve)
	if len(ns) != 0 {
		t.Fatalf("eve notifications = %v, want none", ns)
	}

	// двойной тег — одно уведомление
	if _, err := svc.SendMessage(ctx, ada, ch, "@bobjones @bobjones"); err != nil {
		t.Fatal(err)
	}
	ns, _ = svc.Notifications(ctx, bob)
	if len(ns) != 2 {
		t.Fatalf("bob notifications = %d, want 2", len(ns))
	}
}

func TestTagInShortDMMessage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := register(t, svc, "a@example.com", "A", "A")
	b := register(t, svc, "b@example.com", "B", "B")

	dm, _ := svc.CreateDM(ctx, b, []int64{a})
	if _, err := svc.SendDMMessage(ctx, b, dm, "hi @aa"); err != nil {
		t.Fatal(err)
	}

	ns, _ := svc.Notifications(ctx, a)
	// первое уведомление — тег, за ним приглашение в беседу
	if len(ns) != 2 {
		t.Fatalf("notifications = %d, want 2", len(ns))
	}
	if ns[0].Message != "bb tagged you in aa, bb: hi @aa" {
		t.Fatalf("tag notification = %q", ns[0].Message)
	}
	if ns[1].Message != "bb added you to aa, bb" {
		t.Fatalf("invite notification = %q", ns[1].Message)
	}
}

func TestEditRetagsMembers(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")

	ch, _ := svc.CreateChannel(ctx, ada, "general", true)
	if err := svc.JoinChannel(ctx, bob, ch); err != nil {
		t.Fatal(err)
	}
	msg, _ := svc.SendMessage(ctx, ada, ch, "plain text")
	ns, _ := svc.Notifications(ctx, bob)
	if len(ns) != 0 {
		t.Fatalf("premature notifications = %v", ns)
	}

	if err := svc.EditMessage(ctx, ada, msg, "now @bobjones"); err != nil {
		t.Fatal(err)
	}
	ns, _ = svc.Notifications(ctx, bob)
	if len(ns) != 1 || ns[0].Message != "adalovelace tagged you in general: now @bobjones" {
		t.Fatalf("notifications after edit = %v", ns)
	}
}

func TestNotificationsCappedAtTwenty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	ada := register(t, svc, "ada@example.com", "Ada", "Lovelace")
	bob := register(t, svc, "bob@example.com", "Bob", "Jones")

	ch, _ := svc.CreateChannel(ctx, ada, "general", true)
	if err := svc.JoinChannel(ctx, bob, ch); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 25; i++ {
		if _, err := svc.SendMessage(ctx, ada, ch, fmt.Sprintf("n%d @bobjones", i)); err != nil {
			t.Fatal(err)
		}
	}
	ns, err := svc.Notifications(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 20 {
		t.Fatalf("notifications = %d, want 20", len(ns))
	}
	// новые впереди
	if ns[0].Message != "adalovelace tagged you in general: n24 @bobjones" {
		t.Fatalf("first notification = %q", ns[0].Message)
	}
}
