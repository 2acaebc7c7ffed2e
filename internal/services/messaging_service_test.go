package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

func TestMessagingAppend_Validation(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	it := m.listItem(t, "alice", "Bike", "40")

	if _, err := m.messages.Append(ctx, "bob", "bob", it.ID, "hi"); !errors.Is(err, ErrInvalidParty) || !errors.Is(err, ErrSelfReference) {
		t.Fatalf("expected ErrInvalidParty, got %v", err)
	}
	if _, err := m.messages.Append(ctx, "bob", "alice", it.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := m.messages.Append(ctx, "bob", "", it.ID, "hi"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing receiver, got %v", err)
	}
	if _, err := m.messages.Append(ctx, "bob", "alice", 999, "hi"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	m.messages.MaxContentRunes = 3
	if _, err := m.messages.Append(ctx, "bob", "alice", it.ID, strings.Repeat("x", 4)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long content, got %v", err)
	}
}

func TestMessagingConversation_Symmetric(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	it := m.listItem(t, "alice", "Bike", "40")

	for i, pair := range [][2]string{{"bob", "alice"}, {"alice", "bob"}, {"bob", "alice"}} {
		if _, err := m.messages.Append(ctx, pair[0], pair[1], it.ID, "msg"+key(uint64(i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ab, err := m.messages.Conversation(ctx, "alice", "bob", it.ID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	ba, _ := m.messages.Conversation(ctx, "bob", "alice", it.ID)
	if len(ab) != 3 || len(ba) != 3 {
		t.Fatalf("lengths %d / %d", len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatalf("position %d differs: %d vs %d", i, ab[i].ID, ba[i].ID)
		}
		if i > 0 && ab[i].ID < ab[i-1].ID {
			t.Fatalf("not oldest first: %+v", ab)
		}
	}
}

func TestMessagingOpenConversation_MarksViewerRead(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	it := m.listItem(t, "alice", "Bike", "40")
	_, _ = m.messages.Append(ctx, "bob", "alice", it.ID, "one")
	_, _ = m.messages.Append(ctx, "bob", "alice", it.ID, "two")
	_, _ = m.messages.Append(ctx, "alice", "bob", it.ID, "reply")

	got, err := m.messages.OpenConversation(ctx, "alice", "bob", it.ID)
	if err != nil {
		t.Fatalf("OpenConversation: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for _, msg := range got {
		if msg.ReceiverID == "alice" && !msg.IsRead {
			t.Fatalf("message %d to viewer not marked read", msg.ID)
		}
	}
	if n, _ := m.messages.UnreadCount(ctx, "alice"); n != 0 {
		t.Fatalf("alice unread = %d", n)
	}
	if n, _ := m.messages.UnreadCount(ctx, "bob"); n != 1 {
		t.Fatalf("bob unread = %d, want 1", n)
	}
}

func TestMessagingMarkRead(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	it := m.listItem(t, "alice", "Bike", "40")
	msg, err := m.messages.Append(ctx, "bob", "alice", it.ID, "hi")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := m.messages.MarkRead(ctx, msg.ID, "bob"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("sender cannot mark read: %v", err)
	}
	if err := m.messages.MarkRead(ctx, 999, "alice"); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := m.messages.MarkRead(ctx, msg.ID, "alice"); err != nil {
			t.Fatalf("MarkRead #%d: %v", i+1, err)
		}
	}
	got, _ := repo.GetMessage(ctx, m.db, msg.ID)
	if !got.IsRead {
		t.Fatalf("message not read")
	}
}

func TestMessagingInbox_GroupsThreads(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	if err := repo.UpsertUser(ctx, m.db, &domain.User{ID: "bob", Name: "Bob"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	bike := m.listItem(t, "alice", "Bike", "40")
	pump := m.listItem(t, "alice", "Pump", "5")

	t0 := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []domain.Message{
		{SenderID: "bob", ReceiverID: "alice", ItemID: bike.ID, Content: "b1", CreatedAt: t0},
		{SenderID: "alice", ReceiverID: "bob", ItemID: bike.ID, Content: "b2", CreatedAt: t0.Add(time.Minute)},
		{SenderID: "bob", ReceiverID: "alice", ItemID: bike.ID, Content: "b3", CreatedAt: t0.Add(2 * time.Minute)},
		{SenderID: "carol", ReceiverID: "alice", ItemID: bike.ID, Content: "c1", CreatedAt: t0.Add(3 * time.Minute)},
		{SenderID: "bob", ReceiverID: "alice", ItemID: pump.ID, Content: "p1", CreatedAt: t0.Add(time.Second)},
	}
	for i := range seed {
		if err := repo.CreateMessage(ctx, m.db, &seed[i]); err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	rows, err := m.messages.Inbox(ctx, "alice")
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 threads, got %+v", rows)
	}

	// carol/bike, bob/bike, bob/pump by last activity
	if rows[0].CounterpartyID != "carol" || rows[0].LastMessage != "c1" || rows[0].Unread != 1 {
		t.Fatalf("row 0: %+v", rows[0])
	}
	if rows[1].CounterpartyID != "bob" || rows[1].ItemID != bike.ID || rows[1].LastMessage != "b3" ||
		rows[1].Unread != 2 || rows[1].CounterpartyName != "Bob" || rows[1].ItemTitle != "Bike" {
		t.Fatalf("row 1: %+v", rows[1])
	}
	if rows[2].ItemID != pump.ID || rows[2].Unread != 1 {
		t.Fatalf("row 2: %+v", rows[2])
	}

	empty, err := m.messages.Inbox(ctx, "nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty inbox: %v, %v", empty, err)
	}
}
