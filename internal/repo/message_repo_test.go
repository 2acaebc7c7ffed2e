package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
)

func TestCreateMessage_InsertsAndGets(t *testing.T) {
	db := newMarketDB(t)
	ctx := context.Background()
	it := seedItem(t, db, "alice", "Bike", "40")

	m := &domain.Message{SenderID: "bob", ReceiverID: "alice", ItemID: it.ID, Content: "hello"}
	if err := CreateMessage(ctx, db, m); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == 0 || m.IsRead || m.CreatedAt.IsZero() || time.Since(m.CreatedAt) > time.Minute {
		t.Fatalf("unexpected message: %+v", m)
	}

	got, err := GetMessage(ctx, db, m.ID)
	if err != nil || got.Content != "hello" {
		t.Fatalf("GetMessage: %+v, %v", got, err)
	}
	if _, err := GetMessage(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListConversation_SymmetricAndOrdered(t *testing.T) {
	db := newMarketDB(t)
	ctx := context.Background()
	it := seedItem(t, db, "alice", "Bike", "40")
	other := seedItem(t, db, "alice", "Pump", "5")

	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	msgs := []*domain.Message{
		{SenderID: "alice", ReceiverID: "bob", ItemID: it.ID, Content: "second", CreatedAt: t0.Add(time.Second)},
		{SenderID: "bob", ReceiverID: "alice", ItemID: it.ID, Content: "first", CreatedAt: t0},
		{SenderID: "bob", ReceiverID: "alice", ItemID: it.ID, Content: "tie", CreatedAt: t0.Add(time.Second)},
		{SenderID: "carol", ReceiverID: "alice", ItemID: it.ID, Content: "other thread", CreatedAt: t0},
		{SenderID: "bob", ReceiverID: "alice", ItemID: other.ID, Content: "other item", CreatedAt: t0},
	}
	for _, m := range msgs {
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	ab, err := ListConversation(ctx, db, "alice", "bob", it.ID)
	if err != nil {
		t.Fatalf("ListConversation: %v", err)
	}
	ba, _ := ListConversation(ctx, db, "bob", "alice", it.ID)
	if len(ab) != 3 || len(ba) != 3 {
		t.Fatalf("expected 3 messages each way, got %d and %d", len(ab), len(ba))
	}
	want := []string{"first", "second", "tie"}
	for i, m := range ab {
		if m.Content != want[i] || ba[i].ID != m.ID {
			t.Fatalf("position %d: got %q (ba id %d), want %q", i, m.Content, ba[i].ID, want[i])
		}
	}
}

func TestMarkRead_And_CountUnread(t *testing.T) {
	db := newMarketDB(t)
	ctx := context.Background()
	it := seedItem(t, db, "alice", "Bike", "40")

	var ids []uint64
	for _, c := range []string{"a", "b", "c"} {
		m := &domain.Message{SenderID: "bob", ReceiverID: "alice", ItemID: it.ID, Content: c}
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
		ids = append(ids, m.ID)
	}
	reply := &domain.Message{SenderID: "alice", ReceiverID: "bob", ItemID: it.ID, Content: "r"}
	if err := CreateMessage(ctx, db, reply); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	if n, err := CountUnread(ctx, db, "alice"); err != nil || n != 3 {
		t.Fatalf("CountUnread(alice) = %d, %v", n, err)
	}

	n, err := MarkMessageRead(ctx, db, ids[0])
	if err != nil || n != 1 {
		t.Fatalf("MarkMessageRead: n=%d err=%v", n, err)
	}
	if n, _ := MarkMessageRead(ctx, db, ids[0]); n != 0 {
		t.Fatalf("second MarkMessageRead should touch nothing, got %d", n)
	}

	// viewer alice reads bob's messages; her own reply stays unread for bob
	n, err = MarkConversationRead(ctx, db, "alice", "bob", it.ID)
	if err != nil || n != 2 {
		t.Fatalf("MarkConversationRead: n=%d err=%v", n, err)
	}
	if n, _ := CountUnread(ctx, db, "alice"); n != 0 {
		t.Fatalf("alice unread = %d, want 0", n)
	}
	if n, _ := CountUnread(ctx, db, "bob"); n != 1 {
		t.Fatalf("bob unread = %d, want 1", n)
	}
}

func TestListMessagesInvolving_NewestFirstWithTitle(t *testing.T) {
	db := newMarketDB(t)
	ctx := context.Background()
	it := seedItem(t, db, "alice", "Bike", "40")

	t0 := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	older := &domain.Message{SenderID: "bob", ReceiverID: "alice", ItemID: it.ID, Content: "old", CreatedAt: t0}
	newer := &domain.Message{SenderID: "alice", ReceiverID: "bob", ItemID: it.ID, Content: "new", CreatedAt: t0.Add(time.Minute)}
	unrelated := &domain.Message{SenderID: "carol", ReceiverID: "dave", ItemID: it.ID, Content: "x", CreatedAt: t0}
	for _, m := range []*domain.Message{older, newer, unrelated} {
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	rows, err := ListMessagesInvolving(ctx, db, "bob")
	if err != nil {
		t.Fatalf("ListMessagesInvolving: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != newer.ID || rows[1].ID != older.ID || rows[0].ItemTitle != "Bike" {
		t.Fatalf("unexpected inbox rows: %+v", rows)
	}
}

func TestCountUnread_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migration for Message */)
	if _, err := CountUnread(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error due to missing messages table")
	}
}
