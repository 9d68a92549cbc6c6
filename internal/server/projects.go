package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/board"
)

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"projects": projects})
}

// handleCreateProject creates a project with its default columns and, on
// request, a GitHub repository.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req board.ProjectInput
	if !s.bind(c, &req) {
		return
	}

	creator := currentProfile(c).ID
	project, columns, err := s.board.CreateProject(c.Request.Context(), req, &creator)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project, "columns": columns})
}

// handleGetProject returns a project with its columns.
func (s *Server) handleGetProject(c *gin.Context) {
	ctx := c.Request.Context()
	project, err := s.store.GetProject(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	columns, err := s.store.ListColumns(ctx, project.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project, "columns": columns})
}

// handleUpdateProject edits the name, description or status of a project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	var req board.ProjectPatch
	if !s.bind(c, &req) {
		return
	}

	project, err := s.board.UpdateProject(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project with its columns, tasks and quote.
func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
