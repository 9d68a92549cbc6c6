package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/models"
)

type submissionRequest struct {
	TeamName string          `json:"team_name" binding:"required"`
	Config   json.RawMessage `json:"config"`
}

type submissionStatusRequest struct {
	Status     models.SubmissionStatus `json:"status" binding:"required"`
	AdminNotes string                  `json:"admin_notes"`
}

// handleCreateSubmission stores the caller's app configuration and tells
// the admins about it.
func (s *Server) handleCreateSubmission(c *gin.Context) {
	var req submissionRequest
	if !s.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	sub, err := s.store.CreateSubmission(ctx, models.Submission{
		UserID:   currentProfile(c).ID,
		TeamName: req.TeamName,
		Config:   req.Config,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.notifier.SubmissionCreated(ctx, sub)
	respondSuccess(c, http.StatusCreated, gin.H{"submission": sub})
}

// handleListSubmissions lists the caller's submissions, or all of them for
// admins.
func (s *Server) handleListSubmissions(c *gin.Context) {
	profile := currentProfile(c)
	owner := profile.ID
	if profile.IsAdmin() {
		owner = ""
	}
	subs, err := s.store.ListSubmissions(c.Request.Context(), owner)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"submissions": subs})
}

func (s *Server) handleGetSubmission(c *gin.Context) {
	sub, err := s.store.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	profile := currentProfile(c)
	if !profile.IsAdmin() && sub.UserID != profile.ID {
		s.fail(c, unauthorized("submission belongs to another customer"))
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"submission": sub})
}

func (s *Server) handleSetSubmissionStatus(c *gin.Context) {
	var req submissionStatusRequest
	if !s.bind(c, &req) {
		return
	}
	if !req.Status.Valid() {
		s.fail(c, invalidRequest("unknown submission status %q", req.Status))
		return
	}
	sub, err := s.store.SetSubmissionStatus(c.Request.Context(), c.Param("id"), req.Status, req.AdminNotes)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"submission": sub})
}
