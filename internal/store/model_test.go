package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusOrdering(t *testing.T) {
	req := require.New(t)
	req.True(StatusSent.Before(StatusDelivered))
	req.True(StatusSent.Before(StatusRead))
	req.True(StatusDelivered.Before(StatusRead))
	req.False(StatusRead.Before(StatusDelivered))
	req.False(StatusRead.Before(StatusSent))
	req.False(StatusSent.Before(StatusSent))
}

func TestStatusesBefore(t *testing.T) {
	req := require.New(t)
	req.Equal([]Status{StatusSent}, statusesBefore(StatusDelivered))
	req.Equal([]Status{StatusSent, StatusDelivered}, statusesBefore(StatusRead))
	req.Empty(statusesBefore(StatusSent))
}

func TestMediaTypeValid(t *testing.T) {
	req := require.New(t)
	for _, m := range []MediaType{MediaText, MediaImage, MediaVideo} {
		req.True(m.Valid(), string(m))
	}
	req.False(MediaType("gif").Valid())
	req.False(MediaType("").Valid())
}

func TestChatSlotResolution(t *testing.T) {
	req := require.New(t)
	c := &Chat{ID: "c1", User1: "alice", User2: "bob"}

	slot, ok := c.SlotOf("alice")
	req.True(ok)
	req.Equal(Slot1, slot)

	slot, ok = c.SlotOf("bob")
	req.True(ok)
	req.Equal(Slot2, slot)

	_, ok = c.SlotOf("mallory")
	req.False(ok)

	other, ok := c.Other("alice")
	req.True(ok)
	req.Equal("bob", other)

	other, ok = c.Other("bob")
	req.True(ok)
	req.Equal("alice", other)

	_, ok = c.Other("mallory")
	req.False(ok)
}
