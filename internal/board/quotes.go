package board

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"fourgears/internal/models"
	"fourgears/internal/quote"
	"fourgears/internal/storage"
)

// QuoteInput is the seller's decision for a project. A nil amount saves the
// calculated price.
type QuoteInput struct {
	TotalAmount *decimal.Decimal   `json:"total_amount"`
	Notes       string             `json:"notes"`
	Status      models.QuoteStatus `json:"status"`
}

// Estimate prices a project from its current tasks. The saved quote, if any,
// is returned alongside the breakdown.
func (s *Service) Estimate(ctx context.Context, projectID string) (quote.Estimate, *models.Quote, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return quote.Estimate{}, nil, err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return quote.Estimate{}, nil, err
	}
	existing, err := s.projectQuote(ctx, projectID)
	if err != nil {
		return quote.Estimate{}, nil, err
	}
	return s.pricing.Estimate(tasks, existing), existing, nil
}

func (s *Service) projectQuote(ctx context.Context, projectID string) (*models.Quote, error) {
	q, err := s.store.GetProjectQuote(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// SaveQuote creates or replaces the project's quote. The market comparison
// price is recomputed at save time.
func (s *Service) SaveQuote(ctx context.Context, projectID string, in QuoteInput) (models.Quote, error) {
	if in.Status == "" {
		in.Status = models.QuoteDraft
	}
	if !in.Status.Valid() {
		return models.Quote{}, invalid("unknown quote status %q", in.Status)
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return models.Quote{}, invalid("total_amount must not be negative")
	}

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return models.Quote{}, err
	}
	tasks, err := s.store.ListTasks(ctx, projectID)
	if err != nil {
		return models.Quote{}, err
	}
	existing, err := s.projectQuote(ctx, projectID)
	if err != nil {
		return models.Quote{}, err
	}
	est := s.pricing.Estimate(tasks, existing)

	total := est.CalculatedPrice
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	saved, err := s.store.UpsertQuote(ctx, models.Quote{
		ProjectID:               projectID,
		SubmissionID:            project.SubmissionID,
		TotalAmount:             total.Round(2),
		HypotheticalMarketPrice: est.MarketPrice.Round(2),
		Notes:                   in.Notes,
		Status:                  in.Status,
	})
	if err != nil {
		return models.Quote{}, err
	}
	s.logger.Info("quote saved",
		slog.String("project_id", projectID),
		slog.String("total", saved.TotalAmount.StringFixed(2)),
		slog.String("status", string(saved.Status)),
	)
	return saved, nil
}

// DecideQuote records the customer's answer to a quote.
func (s *Service) DecideQuote(ctx context.Context, quoteID string, status models.QuoteStatus) (models.Quote, error) {
	if status != models.QuoteAccepted && status != models.QuoteRejected {
		return models.Quote{}, invalid("a quote can only be accepted or rejected")
	}
	return s.store.SetQuoteStatus(ctx, quoteID, status)
}
