package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"forum/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "forum:events:topic:7", TopicChannel(7))

	id, ok := ParseTopicChannel(TopicChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"forum:events:topic:", "forum:events:topic:x", "forum:events:topic:0", "other:1"} {
		_, ok := ParseTopicChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestNotifier_LocalFallbackWithoutRedis(t *testing.T) {
	hub := NewTopicHub()
	c, err := hub.Register(9, 1, nil)
	require.NoError(t, err)

	n := NewNotifier(nil, hub)
	n.PublishTopicEvent(context.Background(), 9, "post_created", map[string]string{"content": "hi"})

	var event TopicEvent
	require.NoError(t, json.Unmarshal(<-c.Send, &event))
	assert.Equal(t, "post_created", event.Type)
	assert.Equal(t, uint(9), event.TopicID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestNotifier_RedisFanOut(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewTopicHub()
	c, err := hub.Register(5, 0, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := NewNotifier(rdb, hub)
	require.NoError(t, hub.StartWiring(ctx, n))

	n.PublishTopicEvent(context.Background(), 5, "post_deleted", map[string]uint{"post_id": 3})

	select {
	case msg := <-c.Send:
		var event TopicEvent
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "post_deleted", event.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered through redis")
	}
}

func TestNotifier_PublishFailureFallsBackToLocal(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	hub := NewTopicHub()
	c, err := hub.Register(2, 0, nil)
	require.NoError(t, err)

	NewNotifier(rdb, hub).PublishTopicEvent(context.Background(), 2, "topic_updated", nil)
	assert.Len(t, c.Send, 1)
}

// lockedBuffer lets the subscriber goroutine log while the test reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNotifier_SubscriberSurvivesPanic(t *testing.T) {
	var logs lockedBuffer
	prev := middleware.Logger
	middleware.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	t.Cleanup(func() { middleware.Logger = prev })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 2)
	n := NewNotifier(rdb, nil)
	require.NoError(t, n.StartTopicSubscriber(ctx, func(channel, payload string) {
		if payload == "boom" {
			panic("bad handler")
		}
		got <- payload
	}))

	require.NoError(t, rdb.Publish(ctx, TopicChannel(1), "boom").Err())
	require.NoError(t, rdb.Publish(ctx, TopicChannel(1), "ok").Err())

	select {
	case payload := <-got:
		assert.Equal(t, "ok", payload)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber stopped after a panic")
	}

	out := logs.String()
	assert.Contains(t, out, "panic in topic subscriber")
	assert.Contains(t, out, "bad handler")
	assert.Contains(t, out, "stack=")
}
