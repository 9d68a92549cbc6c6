package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/board"
	"fourgears/internal/models"
	"fourgears/internal/storage"
)

// handleGetProjectQuote returns the live estimate and the saved quote, if any.
func (s *Server) handleGetProjectQuote(c *gin.Context) {
	est, saved, err := s.board.Estimate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"estimate": est, "quote": saved})
}

func (s *Server) handleSaveProjectQuote(c *gin.Context) {
	var req board.QuoteInput
	if !s.bind(c, &req) {
		return
	}
	saved, err := s.board.SaveQuote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"quote": saved})
}

// quoteFor loads a quote visible to the caller: admins see every quote,
// customers only the ones tied to their own submissions.
func (s *Server) quoteFor(c *gin.Context) (models.Quote, bool) {
	ctx := c.Request.Context()
	q, err := s.store.GetQuote(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return models.Quote{}, false
	}

	profile := currentProfile(c)
	if profile.IsAdmin() {
		return q, true
	}
	if q.SubmissionID != nil {
		sub, err := s.store.GetSubmission(ctx, *q.SubmissionID)
		switch {
		case err == nil && sub.UserID == profile.ID:
			return q, true
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.fail(c, err)
			return models.Quote{}, false
		}
	}
	s.fail(c, unauthorized("quote belongs to another customer"))
	return models.Quote{}, false
}

func (s *Server) handleGetQuote(c *gin.Context) {
	q, ok := s.quoteFor(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"quote": q})
}

// handleDecideQuote records the customer's acceptance or rejection.
func (s *Server) handleDecideQuote(accept bool) gin.HandlerFunc {
	status := models.QuoteRejected
	if accept {
		status = models.QuoteAccepted
	}
	return func(c *gin.Context) {
		q, ok := s.quoteFor(c)
		if !ok {
			return
		}
		decided, err := s.board.DecideQuote(c.Request.Context(), q.ID, status)
		if err != nil {
			s.fail(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, gin.H{"quote": decided})
	}
}
