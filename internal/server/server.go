package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/auth"
	"taskflow/internal/progress"
	"taskflow/internal/storage"
)

// Options configure the HTTP server.
type Options struct {
	Logger       *slog.Logger
	StaticDir    string
	CookieName   string
	SessionTTL   time.Duration
	RememberFor  time.Duration
	SecureCookie bool
	Sessions     *auth.Sessions
}

// Server provides HTTP handlers for the task tracker.
type Server struct {
	engine   *gin.Engine
	svc      *progress.Service
	store    storage.Store
	sessions *auth.Sessions
	logger   *slog.Logger
	opts     Options
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *progress.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sessions == nil {
		opts.Sessions = auth.NewSessions(nil)
	}
	if opts.CookieName == "" {
		opts.CookieName = "taskflow_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RememberFor <= 0 {
		opts.RememberFor = 30 * 24 * time.Hour
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:   router,
		svc:      svc,
		store:    svc.Store(),
		sessions: opts.Sessions,
		logger:   opts.Logger,
		opts:     opts,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.loadUser)
	{
		api.GET("/healthz", s.handleHealth)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", s.handleLogin)
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/logout", s.handleLogout)
		}

		api.GET("/daily", s.handleDaily)
		api.GET("/board", s.handleBoard)
		api.GET("/board/archive", s.handleArchive)
		api.GET("/map", s.handleMap)

		member := api.Group("")
		member.Use(s.requireUser)
		{
			member.GET("/me", s.handleMe)
			member.POST("/daily/mark", s.handleMarkDaily)
			member.POST("/daily/unmark", s.handleUnmarkDaily)
			member.POST("/board/:id/claim", s.handleClaim)
			member.POST("/board/:id/complete", s.handleComplete)
			member.GET("/progress", s.handleProgress)
			member.PUT("/map/pin", s.handleSetPin)
		}

		admin := api.Group("/admin")
		admin.Use(s.requireUser, s.requireAdmin)
		{
			admin.GET("/catalog", s.handleGetCatalog)
			admin.PUT("/catalog", s.handleReplaceCatalog)
			admin.POST("/daily/regenerate", s.handleRegenerateDaily)
			admin.POST("/board", s.handleAddBoardTasks)
			admin.PUT("/board", s.handleReplaceBoard)
			admin.PUT("/map", s.handleSaveMap)
			admin.GET("/users", s.handleListUsers)
			admin.PUT("/users/:username/coins", s.handleSetCoins)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, progress.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, progress.ErrInvalid), errors.Is(err, auth.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status matching err.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("request rejected", slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondSuccess writes payload as JSON, or only the status when it is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
