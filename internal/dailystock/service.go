package dailystock

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts the reads the aggregator needs. Both listings
// return approved movements only, in (date, seq) order.
type RepositoryPort interface {
	ListApprovedBefore(ctx context.Context, before time.Time) ([]Row, error)
	ListApprovedBetween(ctx context.Context, from, to time.Time) ([]Row, error)
}

// Service exposes the daily stock report over a repository.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// DailyStock returns per-day opening stock, signed transaction deltas and
// closing stock for every aggregation key in the range, inclusive.
func (s *Service) DailyStock(ctx context.Context, from, to time.Time) ([]Day, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	var openingRows, rangeRows []Row
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.ListApprovedBefore(gctx, from)
		openingRows = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.ListApprovedBetween(gctx, from, to)
		rangeRows = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return Aggregate(openingRows, rangeRows, from, to)
}

// Verify runs the report for the range and returns any continuity breaks.
func (s *Service) Verify(ctx context.Context, from, to time.Time) ([]Violation, error) {
	days, err := s.DailyStock(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return CheckContinuity(days), nil
}
