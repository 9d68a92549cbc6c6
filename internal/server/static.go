package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the admin and customer frontend build next to the API.
// Unknown non-API paths fall back to index.html for client-side routing.
func (s *Server) mountStatic() {
	s.engine.NoRoute(s.apiNotFound)

	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}
	if info, err := os.Stat(s.staticDir); err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", slog.String("path", s.staticDir), slog.Any("error", err))
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", slog.String("path", indexPath), slog.Any("error", err))
	} else {
		s.engine.GET("/", func(c *gin.Context) { c.File(indexPath) })
		s.engine.NoRoute(func(c *gin.Context) {
			if isAPIPath(c.Request.URL.Path) {
				s.apiNotFound(c)
				return
			}
			c.File(indexPath)
		})
	}

	assets := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assets); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assets, false))
	}

	favicon := filepath.Join(s.staticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func (s *Server) apiNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
}
