// Package services – MessagingService
//
// This file implements MessagingService, the append-only log of messages
// exchanged between two identities about one item. Messages are never edited;
// only their read flag moves from false to true, and only by the receiver.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include the item and user identifiers where applicable.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/roomie-mart-backend/internal/domain"
	"github.com/tbourn/roomie-mart-backend/internal/repo"
)

// MessagingService stores and reads conversations.
type MessagingService struct {
	DB *gorm.DB

	// MaxContentRunes rejects longer messages when positive.
	MaxContentRunes int
}

// Append stores a message from sender to receiver about itemID.
func (s *MessagingService) Append(ctx context.Context, sender, receiver string, itemID uint64, content string) (*domain.Message, error) {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("user.id", sender),
			attribute.Int64("item.id", int64(itemID)),
		),
	)
	defer span.End()

	sender, receiver = strings.TrimSpace(sender), strings.TrimSpace(receiver)
	content = strings.TrimSpace(content)
	switch {
	case receiver == "":
		return nil, blank("receiver_id")
	case sender == receiver:
		return nil, ErrInvalidParty
	case content == "":
		return nil, blank("content")
	case s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes:
		return nil, ErrInvalidInput
	}

	if _, err := repo.GetItem(ctx, s.DB, itemID); err != nil {
		return nil, notFoundAs(err, ErrItemNotFound)
	}

	m := &domain.Message{SenderID: sender, ReceiverID: receiver, ItemID: itemID, Content: content}
	if err := repo.CreateMessage(ctx, s.DB, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Conversation returns the messages between userA and userB about itemID,
// oldest first. Swapping the two users yields the same sequence.
func (s *MessagingService) Conversation(ctx context.Context, userA, userB string, itemID uint64) ([]domain.Message, error) {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "Conversation",
		trace.WithAttributes(attribute.Int64("item.id", int64(itemID))),
	)
	defer span.End()

	return repo.ListConversation(ctx, s.DB, userA, userB, itemID)
}

// OpenConversation is Conversation as seen by viewer: every message from
// other to viewer in the thread is marked read before it is returned.
func (s *MessagingService) OpenConversation(ctx context.Context, viewer, other string, itemID uint64) ([]domain.Message, error) {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "OpenConversation",
		trace.WithAttributes(
			attribute.String("user.id", viewer),
			attribute.Int64("item.id", int64(itemID)),
		),
	)
	defer span.End()

	var out []domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.MarkConversationRead(ctx, tx, viewer, other, itemID); err != nil {
			return err
		}
		var err error
		out, err = repo.ListConversation(ctx, tx, viewer, other, itemID)
		return err
	})
	return out, err
}

// MarkRead marks a message read on behalf of its receiver. Already-read
// messages are left as they are.
func (s *MessagingService) MarkRead(ctx context.Context, messageID uint64, actor string) error {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "MarkRead",
		trace.WithAttributes(
			attribute.Int64("message.id", int64(messageID)),
			attribute.String("user.id", actor),
		),
	)
	defer span.End()

	m, err := repo.GetMessage(ctx, s.DB, messageID)
	if err != nil {
		return notFoundAs(err, ErrMessageNotFound)
	}
	if m.ReceiverID != actor {
		return ErrForbidden
	}
	if m.IsRead {
		return nil
	}
	_, err = repo.MarkMessageRead(ctx, s.DB, messageID)
	return err
}

// UnreadCount returns the number of unread messages addressed to user.
func (s *MessagingService) UnreadCount(ctx context.Context, user string) (int64, error) {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "UnreadCount",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	return repo.CountUnread(ctx, s.DB, user)
}

// Inbox groups the messages of user into one row per (item, counterparty),
// most recently active first.
func (s *MessagingService) Inbox(ctx context.Context, user string) ([]domain.Conversation, error) {
	ctx, span := otel.Tracer("services/MessagingService").Start(ctx, "Inbox",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	rows, err := repo.ListMessagesInvolving(ctx, s.DB, user)
	if err != nil {
		return nil, err
	}

	type threadKey struct {
		item  uint64
		other string
	}
	// rows arrive newest first, so the first row of a thread is its last message
	idx := make(map[threadKey]int)
	out := []domain.Conversation{}
	var others []string
	for _, r := range rows {
		other := r.SenderID
		if other == user {
			other = r.ReceiverID
		}
		k := threadKey{r.ItemID, other}
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, domain.Conversation{
				ItemID:         r.ItemID,
				ItemTitle:      r.ItemTitle,
				CounterpartyID: other,
				LastMessageID:  r.ID,
				LastMessage:    r.Content,
				LastAt:         r.CreatedAt,
			})
			others = append(others, other)
		}
		if r.ReceiverID == user && !r.IsRead {
			out[i].Unread++
		}
	}

	names, err := repo.UserNames(ctx, s.DB, others)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].CounterpartyName = names[out[i].CounterpartyID]
	}
	return out, nil
}
