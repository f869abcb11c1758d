// Package store holds the chat and message persistence contracts and their
// MongoDB implementations. The coordinator only needs a handful of
// primitives; anything transactional is pushed into single-document atomic
// update operators.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a chat or message does not exist.
var ErrNotFound = errors.New("not found")

// ChatStore is the coordinator's view of chat records.
type ChatStore interface {
	// Find loads a chat, including both participant identifiers.
	Find(ctx context.Context, chatID string) (*Chat, error)

	// ApplyMessageUpdate records a new last message and increments the
	// unread counter of the given slot in one atomic operation. Two
	// concurrent calls may race on the preview (last write wins) but
	// must never lose an increment.
	ApplyMessageUpdate(ctx context.Context, chatID, preview string, at time.Time, increment Slot) error

	// ResetUnread atomically sets the unread counter of slot to zero.
	ResetUnread(ctx context.Context, chatID string, slot Slot) error
}

// MessageStore is the coordinator's view of message records.
type MessageStore interface {
	// Create persists a new message and fills in its identifier.
	Create(ctx context.Context, m *Message) (*Message, error)

	// SetStatus advances a message's status. The transition is
	// forward-only: a message already at or past the target status is
	// left untouched and no error is returned.
	SetStatus(ctx context.Context, id string, status Status) error

	// BulkSetRead marks every message in chatID sent by senderID that is
	// not yet read as read, returning the number of messages changed.
	BulkSetRead(ctx context.Context, chatID, senderID string) (int64, error)
}
