package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type labelRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (s *Server) handleListLabels(c *gin.Context) {
	labels, err := s.store.ListLabels(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"labels": labels})
}

// handleCreateLabel adds a global label. Duplicate names answer 409.
func (s *Server) handleCreateLabel(c *gin.Context) {
	var req labelRequest
	if !s.bind(c, &req) {
		return
	}
	label, err := s.store.CreateLabel(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"label": label})
}

func (s *Server) handleDeleteLabel(c *gin.Context) {
	if err := s.store.DeleteLabel(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
