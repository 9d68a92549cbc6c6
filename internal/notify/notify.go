// Package notify tells admins about new submissions. Nothing is delivered
// outside the process yet; the notification is written to the log.
package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"fourgears/internal/models"
)

// Result is the outcome reported to the caller.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Notifier announces submissions.
type Notifier struct {
	logger *slog.Logger
}

// New returns a Notifier that writes to logger.
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{logger: logger}
}

// SubmissionCreated logs a new submission for the admins.
func (n *Notifier) SubmissionCreated(ctx context.Context, sub models.Submission) Result {
	n.logger.InfoContext(ctx, "new submission",
		slog.String("submission_id", sub.ID),
		slog.String("team_name", sub.TeamName),
		slog.String("user_id", sub.UserID),
		slog.String("status", string(sub.Status)),
	)
	return Result{
		Success: true,
		Message: fmt.Sprintf("Admin notified of submission from %s", sub.TeamName),
	}
}
