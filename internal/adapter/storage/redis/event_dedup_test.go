package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDedupStore_MarkSeen_FreshEvent(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventDedupStore(client)
	ctx := context.Background()

	fresh, err := store.MarkSeen(ctx, "evt_001", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh, "first delivery should be fresh")
}

func TestEventDedupStore_MarkSeen_Redelivery(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventDedupStore(client)
	ctx := context.Background()

	fresh, err := store.MarkSeen(ctx, "evt_002", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkSeen(ctx, "evt_002", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh, "redelivered event id should not be fresh")
}

func TestEventDedupStore_MarkSeen_Expired(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventDedupStore(client)
	ctx := context.Background()

	fresh, err := store.MarkSeen(ctx, "evt_003", time.Second)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Past the TTL the id is forgotten; the ownership records take over.
	s.FastForward(2 * time.Second)

	fresh, err = store.MarkSeen(ctx, "evt_003", time.Second)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestEventDedupStore_Forget(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewEventDedupStore(client)
	ctx := context.Background()

	fresh, err := store.MarkSeen(ctx, "evt_004", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	// After a failed settlement the claim is released and the retry proceeds.
	require.NoError(t, store.Forget(ctx, "evt_004"))

	fresh, err = store.MarkSeen(ctx, "evt_004", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)
}
