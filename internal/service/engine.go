// Package service owns the message delivery state machine and the
// read-receipt transition, the two flows that mutate chat and message
// records and fan events out to both participants.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ayanasamuel8/chat-backend/internal/metrics"
	"github.com/ayanasamuel8/chat-backend/internal/store"
	"github.com/ayanasamuel8/chat-backend/internal/wire"
)

var (
	// ErrNotParticipant rejects operations on chats the caller does not
	// belong to, before anything is written.
	ErrNotParticipant = errors.New("user is not a chat participant")

	// ErrEmptyContent rejects text messages with no content. Media
	// messages may be empty; their content reference lives elsewhere.
	ErrEmptyContent = errors.New("content is required for text messages")

	// ErrInvalidMediaType rejects unknown media types.
	ErrInvalidMediaType = errors.New("invalid media type")
)

// Broadcaster fans a frame out to every live connection of one user.
type Broadcaster interface {
	SendToUser(userID string, payload []byte) int
}

// Publisher emits message events to the downstream firehose.
type Publisher interface {
	PublishMessageSent(ctx context.Context, m *store.Message) error
}

// Engine coordinates sends and read receipts over the stores and the hub.
type Engine struct {
	chats store.ChatStore
	msgs  store.MessageStore
	bcast Broadcaster
	pub   Publisher // optional
	met   *metrics.Metrics
	log   *zap.SugaredLogger
}

func NewEngine(chats store.ChatStore, msgs store.MessageStore, bcast Broadcaster, pub Publisher, met *metrics.Metrics, log *zap.SugaredLogger) *Engine {
	return &Engine{chats: chats, msgs: msgs, bcast: bcast, pub: pub, met: met, log: log}
}

// SendMessage runs the full delivery state machine:
// validate, authorize, persist as sent, ack the sender, atomically bump
// the receiver's unread counter together with the chat preview, fan out to
// the receiver, then advance the message to delivered.
func (e *Engine) SendMessage(ctx context.Context, senderID, chatID, content string, media store.MediaType) (*store.Message, error) {
	if !media.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, media)
	}
	if content == "" && media == store.MediaText {
		return nil, ErrEmptyContent
	}

	chat, err := e.chats.Find(ctx, chatID)
	if err != nil {
		return nil, err
	}
	receiverID, ok := chat.Other(senderID)
	if !ok {
		return nil, ErrNotParticipant
	}

	msg, err := e.msgs.Create(ctx, &store.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		MediaType: media,
		Status:    store.StatusSent,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	// Ack the sender first so its UI can replace the optimistic
	// placeholder with the persisted message.
	e.bcast.SendToUser(senderID, wire.Marshal(wire.EvMessageDelivered, msg))

	slot, _ := chat.SlotOf(receiverID)
	if err := e.chats.ApplyMessageUpdate(ctx, chatID, msg.Content, msg.CreatedAt, slot); err != nil {
		e.log.Errorw("chat aggregate update failed", "chat_id", chatID, "message_id", msg.ID, "err", err)
		return nil, err
	}

	e.bcast.SendToUser(receiverID, wire.Marshal(wire.EvMessageReceived, msg))

	// Secondary effects: the send is already successful, failures here
	// are logged and never surfaced.
	if err := e.msgs.SetStatus(ctx, msg.ID, store.StatusDelivered); err != nil {
		e.log.Warnw("delivered transition failed", "message_id", msg.ID, "err", err)
	} else {
		msg.Status = store.StatusDelivered
	}
	if e.pub != nil {
		if err := e.pub.PublishMessageSent(ctx, msg); err != nil {
			e.log.Warnw("message event publish failed", "message_id", msg.ID, "err", err)
		}
	}

	e.met.MessagesSent.Inc()
	return msg, nil
}

// MarkChatRead resets the reader's unread counter, bulk-advances the other
// participant's messages to read, and notifies them if anything changed.
// A missing chat is a silent no-op: a race with chat deletion is tolerated.
func (e *Engine) MarkChatRead(ctx context.Context, readerID, chatID string) error {
	chat, err := e.chats.Find(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	otherID, ok := chat.Other(readerID)
	if !ok {
		return ErrNotParticipant
	}

	slot, _ := chat.SlotOf(readerID)
	if err := e.chats.ResetUnread(ctx, chatID, slot); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	modified, err := e.msgs.BulkSetRead(ctx, chatID, otherID)
	if err != nil {
		return err
	}
	if modified == 0 {
		return nil
	}

	e.bcast.SendToUser(otherID, wire.Marshal(wire.EvMessagesWereRead, wire.MessagesWereRead{
		ChatID:   chatID,
		ReaderID: readerID,
	}))
	e.met.ReadEvents.Inc()
	return nil
}

// Typing forwards a typing indicator to the other participant. Nothing is
// persisted; an unknown chat or non-participant sender is dropped.
func (e *Engine) Typing(ctx context.Context, userID, chatID string) {
	chat, err := e.chats.Find(ctx, chatID)
	if err != nil {
		return
	}
	otherID, ok := chat.Other(userID)
	if !ok {
		return
	}
	e.bcast.SendToUser(otherID, wire.Marshal(wire.EvChatTyping, wire.ChatTyping{
		ChatID: chatID,
		UserID: userID,
	}))
}
