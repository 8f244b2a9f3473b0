package notifications

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"forum/internal/middleware"
	"forum/internal/observability"

	"github.com/redis/go-redis/v9"
)

const topicChannelPrefix = "forum:events:topic:"

// TopicEvent is the envelope pushed to topic feed subscribers.
type TopicEvent struct {
	Type      string      `json:"type"`
	TopicID   uint        `json:"topic_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Notifier publishes topic events through Redis so every instance sees them.
// Without Redis, or when a publish fails, events go straight to the local hub.
type Notifier struct {
	rdb   *redis.Client
	local *TopicHub
}

func NewNotifier(rdb *redis.Client, local *TopicHub) *Notifier {
	return &Notifier{rdb: rdb, local: local}
}

// PublishTopicEvent encodes and publishes an event for topicID.
func (n *Notifier) PublishTopicEvent(ctx context.Context, topicID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(TopicEvent{
		Type:      eventType,
		TopicID:   topicID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to encode topic event", "type", eventType, "error", err)
		return
	}

	if n.rdb != nil {
		err := n.rdb.Publish(ctx, TopicChannel(topicID), string(data)).Err()
		if err == nil {
			return
		}
		observability.RedisErrorRate.WithLabelValues("publish").Inc()
		middleware.Logger.WarnContext(ctx, "topic event publish failed, delivering locally",
			"topic_id", topicID, "error", err)
	}

	if n.local != nil {
		n.local.Broadcast(topicID, data)
	}
}

// StartTopicSubscriber subscribes to every topic channel and calls onMessage
// for each incoming message until ctx is done.
func (n *Notifier) StartTopicSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, topicChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in topic subscriber",
								"channel", msg.Channel, "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// TopicChannel derives the Redis channel name for a topic.
func TopicChannel(topicID uint) string {
	return topicChannelPrefix + strconv.FormatUint(uint64(topicID), 10)
}

// ParseTopicChannel extracts the topic id from a channel name.
func ParseTopicChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, topicChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
