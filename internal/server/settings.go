package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type githubTokenRequest struct {
	Token string `json:"token"`
}

var errNoVault = errors.New("secret key not configured")

// handleGetGitHubToken reports whether a token is stored, masked.
func (s *Server) handleGetGitHubToken(c *gin.Context) {
	if s.vault == nil {
		s.fail(c, errNoVault)
		return
	}
	masked, ok, err := s.vault.MaskedGitHubToken(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"configured": ok, "token": masked})
}

// handlePutGitHubToken stores (or clears, when empty) the GitHub token.
func (s *Server) handlePutGitHubToken(c *gin.Context) {
	if s.vault == nil {
		s.fail(c, errNoVault)
		return
	}
	var req githubTokenRequest
	if !s.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if err := s.vault.SetGitHubToken(ctx, req.Token); err != nil {
		s.fail(c, err)
		return
	}
	masked, ok, err := s.vault.MaskedGitHubToken(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logFor(c).Info("github token updated", "configured", ok)
	respondSuccess(c, http.StatusOK, gin.H{"configured": ok, "token": masked})
}
