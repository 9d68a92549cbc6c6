package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"fourgears/internal/models"
)

// notifyRequest is the database webhook payload for an inserted submission.
type notifyRequest struct {
	Type   string            `json:"type"`
	Table  string            `json:"table"`
	Record models.Submission `json:"record"`
}

// handleNotifyAdmin is the webhook fired when a submission row is inserted.
// When a secret is configured the caller must present it in X-Webhook-Secret.
func (s *Server) handleNotifyAdmin(c *gin.Context) {
	if s.webhookSecret != "" {
		got := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			s.fail(c, unauthorized("invalid webhook secret"))
			return
		}
	}

	var req notifyRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Record.ID == "" {
		s.fail(c, invalidRequest("record.id is required"))
		return
	}
	respondSuccess(c, http.StatusOK, s.notifier.SubmissionCreated(c.Request.Context(), req.Record))
}
