// Package server is the development backend for the Taskdeck client: the
// tenant API the CLI consumes, runnable locally so the client can be
// exercised end to end. Tenants are resolved from the Host header of each
// request, never from an explicit parameter.
package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taskdeck-dev/taskdeck/internal/auth"
	"github.com/taskdeck-dev/taskdeck/internal/models"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *Config
	logger  zerolog.Logger
	issuer  *auth.TokenIssuer
	version string
}

// New creates a new server instance
func New(cfg *Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		if err := SeedFromFile(db, cfg.SeedFile); err != nil {
			return nil, fmt.Errorf("failed to load seed file: %w", err)
		}
		zlog.Info().Str("file", cfg.SeedFile).Msg("Loaded seed fixtures")
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		issuer:  auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		version: version,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the sqlite database with dev-friendly settings
func initDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				LogLevel:                  gormlogger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// Browser clients live on tenant subdomains, so origins vary by host
	s.router.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/login-jwt", s.loginJWT)
	s.router.POST("/api/auth/register-jwt", s.registerJWT)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(s.jwtAuthMiddleware())
	{
		api.GET("/auth/check-auth-jwt", s.checkAuthJWT)
		api.GET("/auth/profile-jwt", s.profileJWT)
		api.POST("/auth/logout-jwt", s.logoutJWT)
		api.POST("/auth/create-user-tenant", s.createUserTenant)

		// Project and task CRUD, scoped to the caller's tenant
		api.GET("/projects", s.listProjects)
		api.POST("/projects", s.createProject)
		api.GET("/projects/:id", s.getProject)
		api.PUT("/projects/:id", s.updateProject)
		api.DELETE("/projects/:id", s.deleteProject)
		api.GET("/projects/:id/tasks", s.listProjectTasks)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("host", c.Request.Host).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "taskdeck-api",
		"version":   s.version,
	})
}

// Router exposes the HTTP handler. Tests mount it on httptest servers.
func (s *Server) Router() http.Handler {
	return s.router
}

// DB returns the database handle. Tests use it to seed fixtures.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server (blocks)
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().Str("addr", s.config.Addr).Msg("Dev server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
