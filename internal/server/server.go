// Package server contains the HTTP and WebSocket handlers of the forum.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	_ "forum/docs" // swagger docs
	"forum/internal/cache"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/featureflags"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/notifications"
	"forum/internal/repository"
	"forum/internal/service"
	"forum/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// initMetrics registers the HTTP collectors once per process.
func initMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	sessions       *session.Manager
	flags          *featureflags.Manager
	userRepo       repository.UserRepository
	categoryRepo   repository.CategoryRepository
	topicRepo      repository.TopicRepository
	postRepo       repository.PostRepository
	statsRepo      repository.StatsRepository
	topicHub       *notifications.TopicHub
	notifier       *notifications.Notifier
	authService    *service.AuthService
	forumService   *service.ForumService
	adminService   *service.AdminService
	userService    *service.UserService
}

// NewServer connects to the database and Redis named by cfg and wires the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, revocation and rate limiting are then off
// and topic events are delivered in-process only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store := cache.NewStore(redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: initMetrics("forum"),
		sessions:       session.NewManager(cfg.SessionSecret, cfg.SessionTTL(), redisClient),
		flags:          featureflags.NewManager(cfg.FeatureFlags),
		userRepo:       repository.NewUserRepository(db, store),
		categoryRepo:   repository.NewCategoryRepository(db, store),
		topicRepo:      repository.NewTopicRepository(db, store),
		postRepo:       repository.NewPostRepository(db, store),
		statsRepo:      repository.NewStatsRepository(db, store),
		topicHub:       notifications.NewTopicHub(),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	s.notifier = notifications.NewNotifier(redisClient, s.topicHub)

	s.userService = service.NewUserService(s.userRepo, s.postRepo)
	s.authService = service.NewAuthService(s.userRepo, 0)
	s.forumService = service.NewForumService(s.categoryRepo, s.topicRepo, s.postRepo, s.statsRepo,
		s.isAdminByUserID, s.notifier)
	s.adminService = service.NewAdminService(s.userRepo, s.categoryRepo, s.topicRepo, s.postRepo, s.statsRepo)

	return s, nil
}

// NewApp builds a Fiber app with the server's middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Forum API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			return s.respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())

	// CORS runs before middlewares that can short-circuit so error responses
	// still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: s.config.AllowedOrigins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	// Session before context so user_id reaches the logger.
	app.Use(s.LoadSession())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	authLimit := s.config.RateLimitAuthPerMinute
	if authLimit <= 0 {
		authLimit = 10
	}

	// Browsing
	app.Get("/", s.Index)
	app.Get("/about", s.About)
	app.Get("/topics", s.ListTopics)
	app.Get("/category/:id", s.GetCategory)
	app.Get("/topic/:id", s.GetTopic)
	app.Get("/post/:id", s.GetPost)
	app.Get("/profile/:username", s.GetProfile)

	// Accounts
	app.Post("/register", middleware.RateLimit(s.redis, authLimit, time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(s.redis, authLimit, time.Minute, "login"), s.Login)
	app.Get("/logout", s.Logout)
	app.Post("/logout", s.Logout)
	app.Get("/profile", s.AuthRequired(), s.GetMyProfile)
	app.Put("/profile", s.AuthRequired(), s.UpdateMyProfile)

	// Writing
	app.Post("/category/:id", s.AuthRequired(),
		middleware.RateLimit(s.redis, 30, time.Minute, "category_action"), s.PostCategory)
	app.Post("/topic/:id", s.AuthRequired(),
		middleware.RateLimit(s.redis, 60, time.Minute, "topic_action"), s.PostTopic)
	app.Put("/topic/:id", s.AuthRequired(), s.UpdateTopic)
	app.Put("/post/:id", s.AuthRequired(), s.UpdatePost)

	// Live topic feed
	app.Get("/ws/topic/:id", s.TopicFeedUpgrade, s.TopicFeedHandler())

	// Admin routes
	admin := app.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/", s.AdminDashboard)
	admin.Get("/users", s.AdminListUsers)
	admin.Post("/users/:id/toggle-admin", s.AdminToggleAdmin)
	admin.Post("/users/:id/delete", s.AdminDeleteUser)
	admin.Get("/categories", s.AdminListCategories)
	admin.Post("/categories", s.AdminPostCategories)
	admin.Put("/categories/:id", s.AdminUpdateCategory)
	admin.Get("/topics", s.AdminListTopics)
	admin.Post("/topics/:id/delete", s.AdminDeleteTopic)
	admin.Get("/posts", s.AdminListPosts)
	admin.Post("/posts/:id/delete", s.AdminDeletePost)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// a configured but unreachable Redis makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the topic feed to Redis and blocks serving HTTP.
func (s *Server) Start() error {
	s.app = s.NewApp()

	if err := s.topicHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Warn("topic feed pub/sub unavailable, using local delivery", "error", err)
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.topicHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down topic hub", "error", err)
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
