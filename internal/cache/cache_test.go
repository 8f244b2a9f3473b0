package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestStore_NilIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()

	var dest payload
	found, err := s.GetJSON(ctx, "k", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, s.SetJSON(ctx, "k", payload{}, time.Minute))
	s.Invalidate(ctx, "k")
	s.InvalidateAll(ctx)
	assert.Nil(t, s.Client())

	calls := 0
	err = NewStore(nil).CacheAside(ctx, "k", &dest, time.Minute, func() error {
		calls++
		dest = payload{Name: "fresh"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "fresh", dest.Name)
}

func TestStore_CacheAside(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "general", Count: 3}
			return nil
		}
	}

	var first payload
	require.NoError(t, s.CacheAside(ctx, CategoryStatsKey, &first, time.Minute, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(CategoryStatsKey))

	var second payload
	require.NoError(t, s.CacheAside(ctx, CategoryStatsKey, &second, time.Minute, fetch(&second)))
	assert.Equal(t, 1, calls, "second read should hit the cache")
	assert.Equal(t, first, second)

	s.InvalidateCategories(ctx)
	assert.False(t, mr.Exists(CategoryStatsKey))
}

func TestStore_CacheAsideFetchError(t *testing.T) {
	s, mr := newTestStore(t)
	boom := errors.New("boom")

	var dest payload
	err := s.CacheAside(context.Background(), ForumStatsKey, &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(ForumStatsKey))
}

func TestStore_TTL(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.SetJSON(context.Background(), ForumStatsKey, payload{Count: 1}, ForumStatsTTL))

	mr.FastForward(ForumStatsTTL + time.Second)
	var dest payload
	found, err := s.GetJSON(context.Background(), ForumStatsKey, &dest)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_InvalidateAll(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetJSON(ctx, TopicKey(1), payload{}, time.Minute))
	require.NoError(t, s.SetJSON(ctx, TopicKey(2), payload{}, time.Minute))
	require.NoError(t, mr.Set("rl:login:ip:1", "3"))

	s.InvalidateAll(ctx)
	assert.False(t, mr.Exists(TopicKey(1)))
	assert.False(t, mr.Exists(TopicKey(2)))
	assert.True(t, mr.Exists("rl:login:ip:1"))
}

func TestInitRedis(t *testing.T) {
	assert.Nil(t, InitRedis(""))
	assert.Nil(t, InitRedis("redis://%zz"))

	mr := miniredis.RunT(t)
	c := InitRedis("redis://" + mr.Addr())
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("http://localhost:6379")
	assert.Error(t, err)
}
