package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ForumStatsKey     = "forum:stats"
	CategoryIndexKey  = "forum:categories"
	CategoryStatsKey  = "forum:categories:stats"
	UserStatsIndexKey = "forum:users:stats"
	TopicKeyPrefix    = "forum:topic:%d"
)

const (
	ForumStatsTTL    = time.Minute
	CategoryIndexTTL = 10 * time.Minute
	CategoryStatsTTL = time.Minute
	UserStatsTTL     = time.Minute
	TopicTTL         = 5 * time.Minute
)

func TopicKey(topicID uint) string {
	return fmt.Sprintf(TopicKeyPrefix, topicID)
}

// InvalidateCategories drops every cached aggregate that depends on categories.
func (s *Store) InvalidateCategories(ctx context.Context) {
	s.Invalidate(ctx, CategoryIndexKey, CategoryStatsKey, ForumStatsKey)
}

// InvalidateTopic drops a cached topic and the counters that include it.
func (s *Store) InvalidateTopic(ctx context.Context, topicID uint) {
	s.Invalidate(ctx, TopicKey(topicID), CategoryStatsKey, ForumStatsKey, UserStatsIndexKey)
}

// InvalidatePosts drops the counters that include posts.
func (s *Store) InvalidatePosts(ctx context.Context, topicID uint) {
	s.Invalidate(ctx, TopicKey(topicID), CategoryStatsKey, ForumStatsKey, UserStatsIndexKey)
}

// InvalidateUsers drops user listings and the forum counters.
func (s *Store) InvalidateUsers(ctx context.Context) {
	s.Invalidate(ctx, UserStatsIndexKey, ForumStatsKey, CategoryIndexKey)
}

// InvalidateAll drops every forum key; used after cascading deletes.
func (s *Store) InvalidateAll(ctx context.Context) {
	if s == nil || s.rdb == nil {
		return
	}
	iter := s.rdb.Scan(ctx, 0, "forum:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	s.Invalidate(ctx, keys...)
}
