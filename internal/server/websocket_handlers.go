package server

import (
	"errors"

	"forum/internal/featureflags"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// TopicFeedUpgrade checks the topic exists and the request is a websocket
// upgrade before TopicFeedHandler takes over.
func (s *Server) TopicFeedUpgrade(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	if !s.flags.Enabled(featureflags.TopicFeed, userID) {
		return fiber.ErrNotFound
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	topicID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.forumService.GetTopic(c.UserContext(), topicID); err != nil {
		return s.respondError(c, err)
	}

	c.Locals("topicID", topicID)
	return c.Next()
}

// TopicFeedHandler streams post and topic events of one topic. Anonymous
// readers are allowed; the feed is read-only.
func (s *Server) TopicFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		topicID, _ := conn.Locals("topicID").(uint)
		userID, _ := conn.Locals("userID").(uint)

		client, err := s.topicHub.Register(topicID, userID, conn)
		if err != nil {
			if errors.Is(err, notifications.ErrServerFull) || errors.Is(err, notifications.ErrTopicFull) {
				middleware.Logger.Warn("topic feed rejected", "topic_id", topicID, "error", err)
			}
			_ = conn.WriteJSON(models.ErrorResponse{Error: err.Error()})
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("topic feed connected", "topic_id", topicID, "user_id", userID)

		go client.WritePump()
		client.ReadPump()
	})
}
