package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/board"
)

func (s *Server) handleListColumns(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		s.fail(c, err)
		return
	}
	columns, err := s.store.ListColumns(ctx, projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"columns": columns})
}

func (s *Server) handleCreateColumn(c *gin.Context) {
	var req board.ColumnInput
	if !s.bind(c, &req) {
		return
	}
	column, err := s.board.CreateColumn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"column": column})
}

func (s *Server) handleUpdateColumn(c *gin.Context) {
	var req board.ColumnPatch
	if !s.bind(c, &req) {
		return
	}
	column, err := s.board.UpdateColumn(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"column": column})
}

// handleDeleteColumn removes a column; its tasks stay in the project unplaced.
func (s *Server) handleDeleteColumn(c *gin.Context) {
	if err := s.store.DeleteColumn(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
