// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"charitydesk/internal/access"
	"charitydesk/internal/cache"
	"charitydesk/internal/config"
	"charitydesk/internal/database"
	"charitydesk/internal/featureflags"
	"charitydesk/internal/middleware"
	"charitydesk/internal/models"
	"charitydesk/internal/repository"
	"charitydesk/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Request budgets for the write endpoints. Public forms allow signed-in
// accounts a larger allowance than anonymous visitors sharing an IP.
var (
	signupBudget   = middleware.Budget{Name: "signup", Anonymous: 5, Window: 10 * time.Minute}
	loginBudget    = middleware.Budget{Name: "login", Anonymous: 10, Window: 5 * time.Minute}
	contactBudget  = middleware.Budget{Name: "contact", Anonymous: 5, Member: 10, Window: 10 * time.Minute}
	donationBudget = middleware.Budget{Name: "donation", Anonymous: 5, Member: 10, Window: 10 * time.Minute}
	commentBudget  = middleware.Budget{Name: "comment", Anonymous: 10, Window: time.Minute}
	likeBudget     = middleware.Budget{Name: "like", Anonymous: 30, Window: time.Minute}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	flags          *featureflags.Set
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	news           *service.NewsService
	stories        *service.StoryService
	interactions   *service.InteractionService
	users          *service.UserService
	backOffice     *service.BackOfficeService
}

// NewServer connects to the database and Redis and builds a server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil, which disables caching and rate limiting.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}

	contentRepo := repository.NewContentRepository(db)
	userRepo := repository.NewUserRepository(db)
	contentCache := cache.NewContentCache(redisClient)

	return &Server{
		config:         cfg,
		flags:          featureflags.Parse(cfg.FeatureFlags),
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("charitydesk-api"),
		userRepo:       userRepo,
		news:           service.NewNewsService(contentRepo, contentCache),
		stories:        service.NewStoryService(contentRepo, contentCache),
		interactions: service.NewInteractionService(
			repository.NewCommentRepository(db),
			repository.NewLikeRepository(db),
			contentRepo,
			contentCache,
		),
		users: service.NewUserService(userRepo),
		backOffice: service.NewBackOfficeService(
			repository.NewBankRepository(db),
			repository.NewContactRepository(db),
			repository.NewDonationRepository(db),
		),
	}, nil
}

// NewApp returns a Fiber app whose error handler renders the standard error body.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "CharityDesk API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        120,
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", s.ResolvePrincipal())
	api.Get("/features", s.GetFeatures)

	auth := api.Group("/auth")
	auth.Post("/signup", s.requireFeature(featureflags.Signup, access.SubmitPublicForms), middleware.RateLimit(s.redis, signupBudget), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, loginBudget), s.Login)
	auth.Post("/verify-email", s.ConfirmEmail)

	news := api.Group("/news")
	news.Post("/:id/archive", s.ArchiveNews)
	news.Post("/:id/unarchive", s.UnarchiveNews)
	s.contentRoutes(news, s.news.ContentService)
	s.contentRoutes(api.Group("/stories"), s.stories.ContentService)

	users := api.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/staff", s.ListStaff)
	users.Get("/", s.ListUsers)
	users.Put("/:id/role", s.AssignRole)
	users.Post("/:id/verify-email", s.VerifyUserEmail)
	users.Delete("/:id", s.DeleteUser)

	banks := api.Group("/banks")
	banks.Get("/", s.ListBanks)
	banks.Get("/:id", s.GetBank)
	banks.Post("/", s.CreateBank)
	banks.Put("/:id", s.UpdateBank)
	banks.Delete("/:id", s.DeleteBank)

	contact := api.Group("/contact")
	contact.Post("/", s.requireFeature(featureflags.ContactForm, access.SubmitPublicForms), middleware.RateLimit(s.redis, contactBudget), s.SubmitContact)
	contact.Get("/", s.ListContacts)
	contact.Get("/:id", s.ShowContact)
	contact.Delete("/:id", s.DeleteContact)

	donations := api.Group("/donations")
	donations.Post("/", s.requireFeature(featureflags.Donations, access.SubmitPublicForms), middleware.RateLimit(s.redis, donationBudget), s.SubmitDonation)
	donations.Get("/", s.ListDonations)
	donations.Get("/:reference", s.GetDonation)
}

// contentRoutes registers the lifecycle shared by news and stories.
func (s *Server) contentRoutes(r fiber.Router, svc *service.ContentService) {
	h := contentHandlers{server: s, svc: svc}
	r.Get("/", h.List)
	r.Post("/", h.Create)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	r.Get("/:id/comments", h.ListComments)
	r.Post("/:id/comments", s.requireFeature(featureflags.Comments, access.CommentOnContent), middleware.RateLimit(s.redis, commentBudget), h.AddComment)
	r.Delete("/:id/comments/:commentId", h.RemoveComment)
	r.Post("/:id/like", s.requireFeature(featureflags.Likes, access.LikeContent), middleware.RateLimit(s.redis, likeBudget), h.ToggleLike)
	r.Get("/:id", h.Show)
	r.Put("/:id", h.Update)
	r.Delete("/:id", h.Delete)
}

// LivenessCheck handles liveness checks from the orchestrator
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks from the orchestrator
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional.
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = NewApp()
	s.SetupMiddleware(s.app)
	s.SetupRoutes(s.app)

	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
