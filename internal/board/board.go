// Package board implements the Kanban lifecycle: projects with their default
// columns, task placement and moves, best-effort GitHub mirroring and quotes.
package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fourgears/internal/github"
	"fourgears/internal/quote"
	"fourgears/internal/storage/sqlstore"
)

// ErrInvalid marks input rejected by validation.
var ErrInvalid = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Tracker is the external issue tracker tasks are mirrored to.
type Tracker interface {
	CreateRepository(ctx context.Context, name, description string, private bool) (*github.Repository, error)
	CreateBranch(ctx context.Context, repo, branch string) error
	CreateIssue(ctx context.Context, repo, title, body string) (*github.Issue, error)
	CreateComment(ctx context.Context, repo string, number int, body string) error
}

// DefaultMirrorTimeout bounds each call to the tracker.
const DefaultMirrorTimeout = 10 * time.Second

// Options configures a Service.
type Options struct {
	Tracker       Tracker
	Pricing       quote.Pricing
	Logger        *slog.Logger
	MirrorTimeout time.Duration
	Clock         func() time.Time
}

// Service applies the board rules on top of the store.
type Service struct {
	store         *sqlstore.Store
	tracker       Tracker
	pricing       quote.Pricing
	logger        *slog.Logger
	mirrorTimeout time.Duration
	now           func() time.Time
}

// New builds a Service. A nil tracker disables mirroring.
func New(store *sqlstore.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = DefaultMirrorTimeout
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.Pricing == (quote.Pricing{}) {
		opts.Pricing = quote.DefaultPricing()
	}
	return &Service{
		store:         store,
		tracker:       opts.Tracker,
		pricing:       opts.Pricing,
		logger:        opts.Logger,
		mirrorTimeout: opts.MirrorTimeout,
		now:           opts.Clock,
	}
}

// Store exposes the underlying store for read-only handlers.
func (s *Service) Store() *sqlstore.Store {
	return s.store
}

// Pricing reports the rate card in use.
func (s *Service) Pricing() quote.Pricing {
	return s.pricing
}
