package store

import "time"

// Status is the delivery state of a message. Transitions are forward-only:
// sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank orders statuses so updates can refuse to move backwards.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// Before reports whether s is strictly earlier in the lifecycle than other.
func (s Status) Before(other Status) bool {
	return s.rank() < other.rank()
}

// MediaType classifies message content.
type MediaType string

const (
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaText, MediaImage, MediaVideo:
		return true
	}
	return false
}

// Slot identifies which of the two fixed participant positions of a chat a
// user occupies, and therefore which unread counter belongs to them.
type Slot int

const (
	Slot1 Slot = 1
	Slot2 Slot = 2
)

// Chat is a two-party conversation with denormalized last-message and
// unread-counter fields for O(1) badge rendering.
type Chat struct {
	ID              string    `bson:"_id" json:"id"`
	User1           string    `bson:"user1" json:"user1"`
	User2           string    `bson:"user2" json:"user2"`
	LastMessage     string    `bson:"last_message" json:"lastMessage"`
	LastMessageTime time.Time `bson:"last_message_time" json:"lastMessageTime"`
	UnreadCount1    int64     `bson:"unread_count1" json:"unreadCount1"`
	UnreadCount2    int64     `bson:"unread_count2" json:"unreadCount2"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}

// SlotOf resolves a participant's slot by identifier comparison.
func (c *Chat) SlotOf(userID string) (Slot, bool) {
	switch userID {
	case c.User1:
		return Slot1, true
	case c.User2:
		return Slot2, true
	}
	return 0, false
}

// Other returns the participant that is not userID. ok is false when
// userID is not a participant at all.
func (c *Chat) Other(userID string) (string, bool) {
	switch userID {
	case c.User1:
		return c.User2, true
	case c.User2:
		return c.User1, true
	}
	return "", false
}

// Message is a single chat message.
type Message struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ChatID    string    `bson:"chat_id" json:"chatId"`
	SenderID  string    `bson:"sender_id" json:"senderId"`
	Content   string    `bson:"content" json:"content"`
	MediaType MediaType `bson:"media_type" json:"mediaType"`
	Status    Status    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
