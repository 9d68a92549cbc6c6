package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/board"
	"fourgears/internal/notify"
	"fourgears/internal/secrets"
	"fourgears/internal/storage"
	"fourgears/internal/storage/sqlstore"
)

// Options wires the server to its collaborators.
type Options struct {
	Board         *board.Service
	Vault         *secrets.Vault
	Notifier      *notify.Notifier
	Logger        *slog.Logger
	StaticDir     string
	WebhookSecret string
}

// Server provides HTTP handlers for the 4Gears platform backend.
type Server struct {
	engine        *gin.Engine
	board         *board.Service
	store         *sqlstore.Store
	vault         *secrets.Vault
	notifier      *notify.Notifier
	logger        *slog.Logger
	staticDir     string
	webhookSecret string
}

// New constructs the HTTP server with routes and middleware configured.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.New(opts.Logger)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:        router,
		board:         opts.Board,
		store:         opts.Board.Store(),
		vault:         opts.Vault,
		notifier:      opts.Notifier,
		logger:        opts.Logger,
		staticDir:     opts.StaticDir,
		webhookSecret: opts.WebhookSecret,
	}
	router.Use(srv.requestID(), srv.requestLogger())
	if srv.webhookSecret == "" {
		srv.logger.Warn("webhook secret not set; notify-admin accepts unauthenticated calls")
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
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/auth/signup", s.handleSignup)
		api.POST("/functions/notify-admin", s.handleNotifyAdmin)
	}

	user := api.Group("", s.requireAuth())
	{
		user.GET("/me", s.handleMe)
		user.POST("/submissions", s.handleCreateSubmission)
		user.GET("/submissions", s.handleListSubmissions)
		user.GET("/submissions/:id", s.handleGetSubmission)
		user.GET("/quotes/:id", s.handleGetQuote)
		user.POST("/quotes/:id/accept", s.handleDecideQuote(true))
		user.POST("/quotes/:id/reject", s.handleDecideQuote(false))
	}

	admin := api.Group("", s.requireAuth(), s.requireAdmin())
	{
		admin.POST("/invite-codes", s.handleCreateInviteCode)
		admin.GET("/invite-codes", s.handleListInviteCodes)
		admin.PUT("/submissions/:id/status", s.handleSetSubmissionStatus)

		projects := admin.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.GET(":id", s.handleGetProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
			projects.GET(":id/columns", s.handleListColumns)
			projects.POST(":id/columns", s.handleCreateColumn)
			projects.GET(":id/tasks", s.handleListTasks)
			projects.POST(":id/tasks", s.handleCreateTask)
			projects.GET(":id/quote", s.handleGetProjectQuote)
			projects.PUT(":id/quote", s.handleSaveProjectQuote)
		}

		admin.PUT("/columns/:id", s.handleUpdateColumn)
		admin.DELETE("/columns/:id", s.handleDeleteColumn)

		tasks := admin.Group("/tasks")
		{
			tasks.GET(":id", s.handleGetTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
			tasks.POST(":id/mirror", s.handleMirrorTask)
			tasks.PUT(":id/labels/:labelId", s.handleAttachLabel)
			tasks.DELETE(":id/labels/:labelId", s.handleDetachLabel)
		}

		admin.GET("/labels", s.handleListLabels)
		admin.POST("/labels", s.handleCreateLabel)
		admin.DELETE("/labels/:id", s.handleDeleteLabel)

		admin.GET("/settings/github-token", s.handleGetGitHubToken)
		admin.PUT("/settings/github-token", s.handlePutGitHubToken)
	}

	s.mountStatic()
}

// handleHealth reports whether the database answers.
func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": s.store.Driver()})
}

// statusFor maps an error onto the HTTP status of the error taxonomy.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrInvalid), errors.Is(err, sqlstore.ErrInviteExpired):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", board.ErrInvalid, fmt.Sprintf(format, args...))
}

// fail responds with the status the error maps to.
func (s *Server) fail(c *gin.Context, err error) {
	s.respondError(c, statusFor(err), err)
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	logger := s.logFor(c)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		logger.Info("request rejected", slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// bind decodes the JSON body and answers 400 on failure.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}
