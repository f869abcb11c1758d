// Package presence mirrors live-connection state into Redis so other
// instances and the REST services can see who is online.
//
// Keys:
//   - <prefix>:conn:<userID>      set of connection metadata JSON
//   - <prefix>:presence:<userID>  {"status","last_seen"} JSON
//
// Status flips are also published on <prefix>:events.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type ConnMeta struct {
	SocketID    string `json:"socket_id"`
	ConnectedAt int64  `json:"connected_at"`
}

type State struct {
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen"`
}

func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "ws"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *Store) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

func (s *Store) eventsChannel() string {
	return s.prefix + ":events"
}

// AddConnection records a new live connection and marks the user online.
func (s *Store) AddConnection(ctx context.Context, userID, socketID string) error {
	meta, _ := json.Marshal(ConnMeta{SocketID: socketID, ConnectedAt: time.Now().Unix()})
	if err := s.client.SAdd(ctx, s.connKey(userID), meta).Err(); err != nil {
		return fmt.Errorf("presence add connection: %w", err)
	}
	_ = s.client.Expire(ctx, s.connKey(userID), s.ttl).Err()
	return s.setState(ctx, userID, "online")
}

// RemoveConnection drops one connection's metadata and, when it was the
// user's last connection, flips them offline.
func (s *Store) RemoveConnection(ctx context.Context, userID, socketID string) error {
	key := s.connKey(userID)
	members, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("presence list connections: %w", err)
	}
	for _, m := range members {
		var meta ConnMeta
		if json.Unmarshal([]byte(m), &meta) == nil && meta.SocketID == socketID {
			_ = s.client.SRem(ctx, key, m).Err()
		}
	}
	remaining, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("presence count connections: %w", err)
	}
	if remaining == 0 {
		return s.setState(ctx, userID, "offline")
	}
	return nil
}

// Online reports whether the user currently has any recorded connection.
func (s *Store) Online(ctx context.Context, userID string) (bool, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return st.Status == "online", nil
}

// Get returns the stored presence state; a user never seen is offline.
func (s *Store) Get(ctx context.Context, userID string) (*State, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if err == redis.Nil {
		return &State{Status: "offline"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("presence get: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("presence decode: %w", err)
	}
	return &st, nil
}

func (s *Store) setState(ctx context.Context, userID, status string) error {
	st, _ := json.Marshal(State{Status: status, LastSeen: time.Now().Unix()})
	if err := s.client.Set(ctx, s.presenceKey(userID), st, s.ttl).Err(); err != nil {
		return fmt.Errorf("presence set %s: %w", status, err)
	}
	event, _ := json.Marshal(map[string]string{"user_id": userID, "status": status})
	_ = s.client.Publish(ctx, s.eventsChannel(), event).Err()
	return nil
}
