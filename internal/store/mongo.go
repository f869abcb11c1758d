package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 3 * time.Second

// MongoChatStore implements ChatStore on a "chats" collection.
type MongoChatStore struct {
	coll *mongo.Collection
}

func NewMongoChatStore(db *mongo.Database) *MongoChatStore {
	coll := db.Collection("chats")
	_, _ = coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "user1", Value: 1}, {Key: "user2", Value: 1}},
		Options: options.Index().SetName("participants_idx"),
	})
	return &MongoChatStore{coll: coll}
}

func (s *MongoChatStore) Find(ctx context.Context, chatID string) (*Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var c Chat
	if err := s.coll.FindOne(ctx, bson.M{"_id": chatID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find chat %s: %w", chatID, err)
	}
	return &c, nil
}

func (s *MongoChatStore) ApplyMessageUpdate(ctx context.Context, chatID, preview string, at time.Time, increment Slot) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"last_message":      preview,
			"last_message_time": at,
			"updated_at":        at,
		},
		"$inc": bson.M{unreadField(increment): 1},
	}
	res, err := s.coll.UpdateByID(ctx, chatID, update)
	if err != nil {
		return fmt.Errorf("apply message update on chat %s: %w", chatID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoChatStore) ResetUnread(ctx context.Context, chatID string, slot Slot) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{unreadField(slot): 0},
	})
	if err != nil {
		return fmt.Errorf("reset unread on chat %s: %w", chatID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func unreadField(slot Slot) string {
	if slot == Slot1 {
		return "unread_count1"
	}
	return "unread_count2"
}

// MongoMessageStore implements MessageStore on a "messages" collection.
type MongoMessageStore struct {
	coll *mongo.Collection
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	coll := db.Collection("messages")
	_, _ = coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("chat_created_idx"),
	})
	// serves the bulk read transition
	_, _ = coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "sender_id", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("chat_sender_status_idx"),
	})
	return &MongoMessageStore{coll: coll}
}

func (s *MongoMessageStore) Create(ctx context.Context, m *Message) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = primitive.NewObjectID().Hex()
	}
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (s *MongoMessageStore) SetStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Filter on earlier statuses only so the transition can never
	// regress; matching nothing means the message is already at or past
	// the target (or gone), which is fine for an idempotent advance.
	filter := bson.M{"_id": id, "status": bson.M{"$in": statusesBefore(status)}}
	if _, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": status}}); err != nil {
		return fmt.Errorf("set message %s status %s: %w", id, status, err)
	}
	return nil
}

func (s *MongoMessageStore) BulkSetRead(ctx context.Context, chatID, senderID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.UpdateMany(ctx,
		bson.M{"chat_id": chatID, "sender_id": senderID, "status": bson.M{"$ne": StatusRead}},
		bson.M{"$set": bson.M{"status": StatusRead}},
	)
	if err != nil {
		return 0, fmt.Errorf("bulk mark read in chat %s: %w", chatID, err)
	}
	return res.ModifiedCount, nil
}

func statusesBefore(status Status) []Status {
	var out []Status
	for _, s := range []Status{StatusSent, StatusDelivered, StatusRead} {
		if s.Before(status) {
			out = append(out, s)
		}
	}
	return out
}
