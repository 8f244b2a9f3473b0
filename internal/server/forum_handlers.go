package server

import (
	"strings"

	"forum/internal/models"
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TopicForm is the body of POST /category/:id and PUT /topic/:id.
type TopicForm struct {
	Action  string  `json:"action" form:"action"`
	TopicID FormID  `json:"topic_id" form:"topic_id"`
	Title   *string `json:"title" form:"title"`
	Content *string `json:"content" form:"content"`
}

// PostForm is the body of POST /topic/:id and PUT /post/:id.
type PostForm struct {
	Action  string  `json:"action" form:"action"`
	PostID  FormID  `json:"post_id" form:"post_id"`
	Content *string `json:"content" form:"content"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isDelete(action string) bool {
	return strings.EqualFold(strings.TrimSpace(action), "delete")
}

// Index handles GET /
// @Summary Forum index
// @Description List all categories with their topic and post counts
// @Tags forum
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (s *Server) Index(c *fiber.Ctx) error {
	categories, err := s.forumService.ListCategories(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// About handles GET /about
// @Summary Forum statistics
// @Tags forum
// @Produce json
// @Success 200 {object} service.AboutPage
// @Router /about [get]
func (s *Server) About(c *fiber.Ctx) error {
	page, err := s.forumService.About(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// ListTopics handles GET /topics
// @Summary Latest topics
// @Tags topics
// @Produce json
// @Param category_id query int false "Only topics of this category"
// @Param author_id query int false "Only topics of this author"
// @Param limit query int false "Maximum number of topics" default(10)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /topics [get]
func (s *Server) ListTopics(c *fiber.Ctx) error {
	filter := models.TopicFilter{Limit: parseLimit(c)}

	if raw := c.Query("category_id"); raw != "" {
		id, err := parseFormID(FormID(raw), "category_id")
		if err != nil {
			return s.respondError(c, err)
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("author_id"); raw != "" {
		id, err := parseFormID(FormID(raw), "author_id")
		if err != nil {
			return s.respondError(c, err)
		}
		filter.AuthorID = &id
	}

	topics, err := s.forumService.ListTopics(c.UserContext(), filter)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"topics": topics})
}

// GetCategory handles GET /category/:id
// @Summary Category page
// @Description Get a category with its latest topics
// @Tags categories
// @Produce json
// @Param id path int true "Category ID"
// @Param limit query int false "Maximum number of topics" default(10)
// @Success 200 {object} service.CategoryPage
// @Failure 404 {object} models.ErrorResponse
// @Router /category/{id} [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.forumService.CategoryPage(c.UserContext(), id, parseLimit(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// PostCategory handles POST /category/:id
// @Summary Create or delete a topic in a category
// @Description Creates a topic, or deletes topic_id when action=delete (author or admin)
// @Tags categories
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Category ID"
// @Param request body TopicForm true "Topic"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /category/{id} [post]
func (s *Server) PostCategory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := currentUserID(c)

	categoryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var form TopicForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	if isDelete(form.Action) {
		topicID, err := parseFormID(form.TopicID, "topic_id")
		if err != nil {
			return s.respondError(c, err)
		}
		if err := s.forumService.DeleteTopic(ctx, userID, topicID); err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(message("Topic deleted", fiber.Map{"category_id": categoryID}))
	}

	topic, err := s.forumService.CreateTopic(ctx, service.CreateTopicInput{
		UserID:     userID,
		CategoryID: categoryID,
		Title:      deref(form.Title),
		Content:    deref(form.Content),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message("Topic created", fiber.Map{"topic": topic}))
}

// GetTopic handles GET /topic/:id
// @Summary Topic page
// @Description Get a topic with all of its posts in creation order
// @Tags topics
// @Produce json
// @Param id path int true "Topic ID"
// @Success 200 {object} service.TopicPage
// @Failure 404 {object} models.ErrorResponse
// @Router /topic/{id} [get]
func (s *Server) GetTopic(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.forumService.TopicPage(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// PostTopic handles POST /topic/:id
// @Summary Reply to or delete a post in a topic
// @Description Adds a post, or deletes post_id when action=delete (author or admin)
// @Tags topics
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Topic ID"
// @Param request body PostForm true "Post"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /topic/{id} [post]
func (s *Server) PostTopic(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := currentUserID(c)

	topicID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var form PostForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	if isDelete(form.Action) {
		postID, err := parseFormID(form.PostID, "post_id")
		if err != nil {
			return s.respondError(c, err)
		}
		if err := s.forumService.DeletePost(ctx, userID, postID); err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(message("Post deleted", fiber.Map{"topic_id": topicID}))
	}

	post, err := s.forumService.CreatePost(ctx, service.CreatePostInput{
		UserID:  userID,
		TopicID: topicID,
		Content: deref(form.Content),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message("Post added", fiber.Map{"post": post}))
}

// UpdateTopic handles PUT /topic/:id
// @Summary Edit a topic
// @Tags topics
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Topic ID"
// @Param request body TopicForm true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /topic/{id} [put]
func (s *Server) UpdateTopic(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	topicID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var form TopicForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	topic, err := s.forumService.UpdateTopic(c.UserContext(), service.UpdateTopicInput{
		UserID:  userID,
		TopicID: topicID,
		Title:   form.Title,
		Content: form.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("Topic updated", fiber.Map{"topic": topic}))
}

// GetPost handles GET /post/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.forumService.GetPost(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /post/:id
// @Summary Edit a post
// @Tags posts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Post ID"
// @Param request body PostForm true "New content"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /post/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var form PostForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	post, err := s.forumService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  userID,
		PostID:  postID,
		Content: form.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("Post updated", fiber.Map{"post": post}))
}
