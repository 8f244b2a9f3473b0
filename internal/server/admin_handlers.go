package server

import (
	"forum/internal/service"

	"github.com/gofiber/fiber/v2"
)

const adminRecentPosts = 50

// CategoryForm is the body of POST /admin/categories and PUT /admin/categories/:id.
type CategoryForm struct {
	Action      string  `json:"action" form:"action"`
	CategoryID  FormID  `json:"category_id" form:"category_id"`
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

// DashboardResponse is the admin dashboard plus the feature flags as seen by the admin.
type DashboardResponse struct {
	*service.Dashboard
	Features map[string]bool `json:"features"`
}

// AdminDashboard handles GET /admin
// @Summary Admin dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin [get]
func (s *Server) AdminDashboard(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	dashboard, err := s.adminService.Dashboard(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(DashboardResponse{Dashboard: dashboard, Features: s.flags.Snapshot(userID)})
}

// AdminListUsers handles GET /admin/users
// @Summary List users with activity counts
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.adminService.ListUsers(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// AdminToggleAdmin handles POST /admin/users/:id/toggle-admin
// @Summary Grant or revoke admin rights
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/toggle-admin [post]
func (s *Server) AdminToggleAdmin(c *fiber.Ctx) error {
	actorID, _ := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.adminService.ToggleAdmin(c.UserContext(), actorID, targetID)
	if err != nil {
		return s.respondError(c, err)
	}

	text := "Admin rights removed from " + user.Username
	if user.IsAdmin {
		text = "Admin rights granted to " + user.Username
	}
	return c.JSON(message(text, fiber.Map{"user": user}))
}

// AdminDeleteUser handles POST /admin/users/:id/delete
// @Summary Delete a user
// @Description Users who still author categories, topics or posts cannot be deleted
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/delete [post]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	actorID, _ := currentUserID(c)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.adminService.DeleteUser(c.UserContext(), actorID, targetID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("User deleted", fiber.Map{"user_id": targetID}))
}

// AdminListCategories handles GET /admin/categories
// @Summary List categories with counts
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/categories [get]
func (s *Server) AdminListCategories(c *fiber.Ctx) error {
	categories, err := s.adminService.ListCategories(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// AdminPostCategories handles POST /admin/categories
// @Summary Create or delete a category
// @Description Creates a category, or deletes category_id with all its topics and posts when action=delete
// @Tags admin
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body CategoryForm true "Category"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories [post]
func (s *Server) AdminPostCategories(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := currentUserID(c)

	var form CategoryForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	if isDelete(form.Action) {
		categoryID, err := parseFormID(form.CategoryID, "category_id")
		if err != nil {
			return s.respondError(c, err)
		}
		if err := s.forumService.DeleteCategory(ctx, userID, categoryID); err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(message("Category deleted", fiber.Map{"category_id": categoryID}))
	}

	category, err := s.forumService.CreateCategory(ctx, service.CreateCategoryInput{
		UserID:      userID,
		Name:        deref(form.Name),
		Description: deref(form.Description),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(message("Category created", fiber.Map{"category": category}))
}

// AdminUpdateCategory handles PUT /admin/categories/:id
// @Summary Edit a category
// @Tags admin
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Category ID"
// @Param request body CategoryForm true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/categories/{id} [put]
func (s *Server) AdminUpdateCategory(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	categoryID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var form CategoryForm
	if err := s.parseBody(c, &form); err != nil {
		return s.respondError(c, err)
	}

	category, err := s.forumService.UpdateCategory(c.UserContext(), service.UpdateCategoryInput{
		UserID:      userID,
		CategoryID:  categoryID,
		Name:        form.Name,
		Description: form.Description,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("Category updated", fiber.Map{"category": category}))
}

// AdminListTopics handles GET /admin/topics
// @Summary List all topics
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/topics [get]
func (s *Server) AdminListTopics(c *fiber.Ctx) error {
	topics, err := s.adminService.ListTopics(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"topics": topics})
}

// AdminDeleteTopic handles POST /admin/topics/:id/delete
// @Summary Delete a topic and its posts
// @Tags admin
// @Produce json
// @Param id path int true "Topic ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/topics/{id}/delete [post]
func (s *Server) AdminDeleteTopic(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	topicID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.forumService.DeleteTopic(c.UserContext(), userID, topicID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("Topic deleted", fiber.Map{"topic_id": topicID}))
}

// AdminListPosts handles GET /admin/posts
// @Summary Recent posts with excerpts
// @Tags admin
// @Produce json
// @Param limit query int false "Maximum number of posts" default(50)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	limit := parseLimit(c)
	if limit == 0 {
		limit = adminRecentPosts
	}

	posts, err := s.adminService.ListRecentPosts(c.UserContext(), limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// AdminDeletePost handles POST /admin/posts/:id/delete
// @Summary Delete a post
// @Tags admin
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/posts/{id}/delete [post]
func (s *Server) AdminDeletePost(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.forumService.DeletePost(c.UserContext(), userID, postID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(message("Post deleted", fiber.Map{"post_id": postID}))
}
