package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/models"
)

var submissionColumns = []string{
	"id", "user_id", "team_name", "config", "status", "admin_notes", "created_at", "updated_at",
}

func scanSubmission(row rowScanner) (models.Submission, error) {
	var (
		sub    models.Submission
		config string
	)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.TeamName, &config, &sub.Status, &sub.AdminNotes,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return models.Submission{}, err
	}
	sub.Config = json.RawMessage(config)
	return sub, nil
}

// CreateSubmission stores a customer's app configuration as pending.
func (s *Store) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	now := s.now()
	sub.ID = uuid.NewString()
	sub.TeamName = strings.TrimSpace(sub.TeamName)
	sub.Status = models.SubmissionPending
	sub.CreatedAt, sub.UpdatedAt = now, now
	if len(sub.Config) == 0 {
		sub.Config = json.RawMessage("{}")
	}
	_, err := s.exec(ctx, s.db, s.sb.Insert("submissions").Columns(submissionColumns...).Values(
		sub.ID, sub.UserID, sub.TeamName, string(sub.Config), string(sub.Status), sub.AdminNotes,
		sub.CreatedAt, sub.UpdatedAt,
	))
	if err != nil {
		return models.Submission{}, mapErr(err, "insert submission")
	}
	return sub, nil
}

// GetSubmission fetches a submission by id.
func (s *Store) GetSubmission(ctx context.Context, id string) (models.Submission, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select(submissionColumns...).From("submissions").Where(sq.Eq{"id": id}))
	if err != nil {
		return models.Submission{}, err
	}
	sub, err := scanSubmission(row)
	if err != nil {
		return models.Submission{}, mapErr(err, "submission "+id)
	}
	return sub, nil
}

// ListSubmissions returns submissions newest first. An empty userID lists
// every submission.
func (s *Store) ListSubmissions(ctx context.Context, userID string) ([]models.Submission, error) {
	b := s.sb.Select(submissionColumns...).From("submissions").OrderBy("created_at DESC", "id ASC")
	if userID != "" {
		b = b.Where(sq.Eq{"user_id": userID})
	}
	rows, err := s.query(ctx, s.db, b)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SetSubmissionStatus records an admin's triage decision.
func (s *Store) SetSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, notes string) (models.Submission, error) {
	err := s.execAffecting(ctx, s.db, s.sb.Update("submissions").
		Set("status", string(status)).
		Set("admin_notes", notes).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}), "submission "+id)
	if err != nil {
		return models.Submission{}, err
	}
	return s.GetSubmission(ctx, id)
}
