// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"gamerate/internal/catalog"
	"gamerate/internal/config"
	"gamerate/internal/database"
	"gamerate/internal/events"
	"gamerate/internal/middleware"
	"gamerate/internal/models"
	"gamerate/internal/registry"
	"gamerate/internal/repository"
	"gamerate/internal/store"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	app    *fiber.App
	prom   *fiberprometheus.FiberPrometheus

	kv          store.Store
	bus         *events.Bus
	catalogRepo repository.CatalogRepository
	catalog     *catalog.Registry
	users       *registry.UserRegistry
	reviews     *registry.ReviewRegistry
	games       *registry.GameRegistry
}

// NewServer creates a server instance, establishing the catalog database and
// Redis connections from config. When Redis is unreachable the registries run
// on the in-memory store.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := store.ConnectRedis(cfg.RedisURL)
	var kv store.Store
	if redisClient != nil {
		kv = store.NewRedisStore(redisClient, "gamerate")
	} else {
		middleware.Logger.Warn("Redis unavailable, registries run on the in-memory store")
		kv = store.NewMemoryStore()
	}

	return NewServerWithDeps(cfg, db, redisClient, kv), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, kv store.Store) *Server {
	bus := events.NewBus()
	cat := catalog.NewRegistry(cfg.CatalogURL, bus, middleware.Logger)
	users := registry.NewUserRegistry(kv, bus, middleware.Logger)

	return &Server{
		config:      cfg,
		db:          db,
		redis:       redisClient,
		prom:        fiberprometheus.New("gamerate-api"),
		kv:          kv,
		bus:         bus,
		catalogRepo: repository.NewCatalogRepository(db),
		catalog:     cat,
		users:       users,
		reviews:     registry.NewReviewRegistry(kv, users, bus, middleware.Logger),
		games:       registry.NewGameRegistry(kv, cat),
	}
}

// LoadCatalog performs the one-shot catalog fetch. Failure degrades to an
// empty catalog; the server still starts.
func (s *Server) LoadCatalog(ctx context.Context) {
	if err := s.catalog.Load(ctx); err != nil {
		middleware.Logger.Warn("starting with an empty catalog", "error", err.Error())
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user identity
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Prometheus metrics
	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	// The original backend allowed every origin; credentials ride in the
	// Authorization header, not cookies.
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Origin, X-Requested-With, Content-Type, Accept, Authorization",
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
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

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	// Steam catalog passthrough (the original backend's two endpoints)
	api.Get("/steam-games", s.GetSteamGames)
	api.Get("/steam-games/:id", s.GetSteamGame)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Public game routes. Specific routes before the generic /:id.
	games := api.Group("/games")
	games.Get("/", s.GetGames)
	games.Get("/popular", s.GetPopularGames)
	games.Get("/recommended", s.GetRecommendedGames)
	games.Get("/:id/reviews", s.GetGameReviews)
	games.Get("/:id", s.GetGame)

	// Public review reads
	api.Get("/reviews/recent", s.GetRecentReviews)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	reviews := protected.Group("/reviews")
	reviews.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_review"), s.CreateReview)
	// Specific /:id/:resource routes before the generic /:id.
	reviews.Post("/:id/like", s.LikeReview)
	reviews.Delete("/:id/like", s.UnlikeReview)
	reviews.Post("/:id/toggle-like", s.ToggleLikeReview)
	reviews.Put("/:id", s.UpdateReview)
	reviews.Delete("/:id", s.DeleteReview)

	users := protected.Group("/users")
	users.Get("/me/reviews", s.GetMyReviews)
	users.Put("/me/profile-image", s.UpdateProfileImage)

	collection := protected.Group("/collection")
	collection.Get("/", s.GetCollection)
	collection.Post("/:gameId", s.AddToCollection)
	collection.Delete("/:gameId", s.RemoveFromCollection)
}

// HealthCheck is a simple alias for ReadinessCheck.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the catalog database, Redis and catalog load state.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The in-memory store keeps the app functional without Redis.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Game Rate",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database":      dbStatus,
			"redis":         redisStatus,
			"catalogLoaded": s.catalog.IsLoaded(),
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The subject claim
// carries the user's email; registries still consult their own session state
// for the operations that require one.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.config.JWTSecret)
}

// sessionEmail returns the authenticated email set by AuthRequired.
func sessionEmail(c *fiber.Ctx) string {
	email, _ := c.Locals("userEmail").(string)
	return email
}

// generateToken creates a JWT for the given user email.
func (s *Server) generateToken(email, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strings.ToLower(email),
		"username": username,
		"iss":      middleware.TokenIssuer,
		"aud":      middleware.TokenAudience,
		"exp":      now.Add(time.Hour * 24 * 7).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// Start starts the server.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Game Rate API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
