package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/board"
)

// handleListTasks fetches tasks for a project in board order.
func (s *Server) handleListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	projectID := c.Param("id")
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		s.fail(c, err)
		return
	}

	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"tasks": tasks})
}

// handleCreateTask appends a new task to a project column.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req board.TaskInput
	if !s.bind(c, &req) {
		return
	}

	task, err := s.board.CreateTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask edits a task or moves it to another column.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req board.TaskPatch
	if !s.bind(c, &req) {
		return
	}

	task, err := s.board.UpdateTask(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task by identifier.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.board.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleMirrorTask re-runs GitHub mirroring for a task.
func (s *Server) handleMirrorTask(c *gin.Context) {
	task, err := s.board.MirrorTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleAttachLabel(c *gin.Context) {
	ctx := c.Request.Context()
	taskID := c.Param("id")
	if err := s.store.AttachLabel(ctx, taskID, c.Param("labelId")); err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

func (s *Server) handleDetachLabel(c *gin.Context) {
	ctx := c.Request.Context()
	taskID := c.Param("id")
	if err := s.store.DetachLabel(ctx, taskID, c.Param("labelId")); err != nil {
		s.fail(c, err)
		return
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}
