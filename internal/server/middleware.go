package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fourgears/internal/models"
	"fourgears/internal/storage"
)

const (
	ctxKeyRequestID = "request_id"
	ctxKeyLogger    = "logger"
	ctxKeyProfile   = "profile"
)

var errUnauthorized = errors.New("unauthorized")

func unauthorized(msg string) error {
	return fmt.Errorf("%w: %s", errUnauthorized, msg)
}

// requestID tags every request and response with an X-Request-ID.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		c.Set(ctxKeyRequestID, id)
		c.Set(ctxKeyLogger, s.logger.With(slog.String("rid", id)))
		c.Next()
	}
}

// requestLogger writes one line per API request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			return
		}
		s.logFor(c).Info("req",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.String("dur", time.Since(start).String()),
		)
	}
}

// logFor returns the request-scoped logger.
func (s *Server) logFor(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return s.logger
}

// requireAuth resolves the bearer token to a profile.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			s.fail(c, unauthorized("missing authorization header"))
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			s.fail(c, unauthorized("invalid authorization format"))
			return
		}

		profile, err := s.store.ProfileByToken(c.Request.Context(), strings.TrimSpace(token))
		if errors.Is(err, storage.ErrNotFound) {
			s.fail(c, unauthorized("invalid api token"))
			return
		}
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, err)
			return
		}

		c.Set(ctxKeyProfile, profile)
		c.Set(ctxKeyLogger, s.logFor(c).With(slog.String("uid", profile.ID)))
		c.Next()
	}
}

// requireAdmin rejects profiles without the admin role.
func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentProfile(c).IsAdmin() {
			s.fail(c, unauthorized("admin role required"))
			return
		}
		c.Next()
	}
}

// currentProfile returns the authenticated profile. It is the zero value on
// public routes.
func currentProfile(c *gin.Context) models.Profile {
	if v, ok := c.Get(ctxKeyProfile); ok {
		if p, ok := v.(models.Profile); ok {
			return p
		}
	}
	return models.Profile{}
}
