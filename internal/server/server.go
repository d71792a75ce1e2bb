package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alkime/liftlog/internal/config"
	"github.com/alkime/liftlog/internal/store"
	"github.com/alkime/liftlog/internal/workout"
	"github.com/gin-gonic/gin"
)

// History is the read side of the set store.
type History interface {
	SetsByDate(ctx context.Context, date string) ([]workout.LoggedSet, error)
	SetByID(ctx context.Context, id int64) (workout.LoggedSet, error)
	MostRecentDateBefore(ctx context.Context, date string) (string, bool, error)
}

// Server represents the HTTP server
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	history History
	metrics http.Handler
	now     func() time.Time
}

type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithClock sets the clock used for the default date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger, history History, opts ...Option) *Server {
	// Set Gin mode based on environment
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	server := &Server{
		config:  cfg,
		logger:  logger,
		router:  router,
		history: history,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(server)
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router exposes the handler, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server
func Run(s *Server) error {
	s.logger.Info("Server listening", "port", s.config.Port)
	return s.router.Run(":" + s.config.Port)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := s.router.Group("/api/v1")
	{
		api.GET("/sets", s.handleSetsByDate)
		api.GET("/sets/previous", s.handlePreviousDate)
		api.GET("/sets/:id", s.handleSetByID)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "liftlog",
	})
}

func (s *Server) handleSetsByDate(c *gin.Context) {
	date, ok := s.dateParam(c, "date")
	if !ok {
		return
	}

	sets, err := s.history.SetsByDate(c.Request.Context(), date)
	if err != nil {
		s.internalError(c, "failed to list sets", err)
		return
	}
	if sets == nil {
		sets = []workout.LoggedSet{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":   date,
		"sets":   sets,
		"volume": workout.Volume(sets),
	})
}

func (s *Server) handlePreviousDate(c *gin.Context) {
	date, ok := s.dateParam(c, "before")
	if !ok {
		return
	}

	prev, found, err := s.history.MostRecentDateBefore(c.Request.Context(), date)
	if err != nil {
		s.internalError(c, "failed to find previous workout", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no workout before " + date})
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": prev})
}

func (s *Server) handleSetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid set id"})
		return
	}

	set, err := s.history.SetByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "set not found"})
		return
	}
	if err != nil {
		s.internalError(c, "failed to get set", err)
		return
	}

	c.JSON(http.StatusOK, set)
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func (s *Server) dateParam(c *gin.Context, name string) (string, bool) {
	date := c.Query(name)
	if date == "" {
		return workout.DateOf(s.now()), true
	}
	if _, err := time.Parse(workout.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
