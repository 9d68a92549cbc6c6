package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/models"
)

var quoteColumns = []string{
	"id", "project_id", "submission_id", "total_amount", "hypothetical_market_price",
	"notes", "status", "created_at", "updated_at",
}

func scanQuote(row rowScanner) (models.Quote, error) {
	var (
		q          models.Quote
		submission sql.NullString
	)
	err := row.Scan(&q.ID, &q.ProjectID, &submission, &q.TotalAmount, &q.HypotheticalMarketPrice,
		&q.Notes, &q.Status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return models.Quote{}, err
	}
	q.SubmissionID = stringPtr(submission)
	return q, nil
}

// GetQuote fetches a quote by id.
func (s *Store) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	return s.getQuoteWhere(ctx, sq.Eq{"id": id}, "quote "+id)
}

// GetProjectQuote fetches the quote of a project.
func (s *Store) GetProjectQuote(ctx context.Context, projectID string) (models.Quote, error) {
	return s.getQuoteWhere(ctx, sq.Eq{"project_id": projectID}, "quote for project "+projectID)
}

func (s *Store) getQuoteWhere(ctx context.Context, where sq.Eq, what string) (models.Quote, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select(quoteColumns...).From("quotes").Where(where))
	if err != nil {
		return models.Quote{}, err
	}
	q, err := scanQuote(row)
	if err != nil {
		return models.Quote{}, mapErr(err, what)
	}
	return q, nil
}

// UpsertQuote creates the project's quote or replaces its amounts, notes and
// status. The row is keyed by project id.
func (s *Store) UpsertQuote(ctx context.Context, q models.Quote) (models.Quote, error) {
	now := s.now()
	if q.Status == "" {
		q.Status = models.QuoteDraft
	}
	_, err := s.exec(ctx, s.db, s.sb.Insert("quotes").Columns(quoteColumns...).Values(
		uuid.NewString(), q.ProjectID, nullString(q.SubmissionID), q.TotalAmount,
		q.HypotheticalMarketPrice, q.Notes, string(q.Status), now, now,
	).Suffix(`ON CONFLICT (project_id) DO UPDATE SET
        submission_id = excluded.submission_id,
        total_amount = excluded.total_amount,
        hypothetical_market_price = excluded.hypothetical_market_price,
        notes = excluded.notes,
        status = excluded.status,
        updated_at = excluded.updated_at`))
	if err != nil {
		return models.Quote{}, mapErr(err, fmt.Sprintf("upsert quote for project %s", q.ProjectID))
	}
	return s.GetProjectQuote(ctx, q.ProjectID)
}

// SetQuoteStatus changes only the status of a quote.
func (s *Store) SetQuoteStatus(ctx context.Context, id string, status models.QuoteStatus) (models.Quote, error) {
	err := s.execAffecting(ctx, s.db, s.sb.Update("quotes").
		Set("status", string(status)).
		Set("updated_at", s.now()).
		Where(sq.Eq{"id": id}), "quote "+id)
	if err != nil {
		return models.Quote{}, err
	}
	return s.GetQuote(ctx, id)
}
