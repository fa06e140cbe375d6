package stock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/grainledger/grainledger/internal/movement"
)

// RepositoryPort abstracts the reads the replay engine needs.
type RepositoryPort interface {
	// ListApprovedTouching returns approved movements whose source or
	// destination is the sub-location, ordered by (date asc, seq asc).
	// A zero asOf means no upper bound; otherwise movements dated after
	// asOf are excluded.
	ListApprovedTouching(ctx context.Context, subLocationID int64, asOf time.Time) ([]movement.Movement, error)
	// GetStoredState reads the cached cost-state columns of the
	// sub-location row.
	GetStoredState(ctx context.Context, subLocationID int64) (State, error)
	// ListSubLocationIDs returns every registered sub-location id.
	ListSubLocationIDs(ctx context.Context) ([]int64, error)
}

// Service computes location quantity and weighted-average rate by replaying
// approved movements. The sub-location row's cached state is an optimization
// maintained by the approval workflow; this service is the source of truth
// it must reconcile against.
type Service struct {
	repo  RepositoryPort
	cache *Cache
	group singleflight.Group
}

// NewService builds Service. cache may be nil, in which case every read
// replays.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ComputeState replays every approved movement touching the sub-location in
// (date, seq) order and returns the resulting balance. asOf, when non-zero,
// bounds the replay to movements dated on or before it.
func (s *Service) ComputeState(ctx context.Context, subLocationID int64, asOf time.Time) (State, error) {
	if subLocationID == 0 {
		return State{}, fmt.Errorf("stock: sub-location required")
	}
	movements, err := s.repo.ListApprovedTouching(ctx, subLocationID, asOf)
	if err != nil {
		return State{}, err
	}
	return Replay(subLocationID, movements)
}

// Replay folds ordered approved movements into a balance for one
// sub-location. Inbound legs merge at the movement's recorded acquisition
// rate; outbound legs reduce quantity and leave the rate untouched.
func Replay(subLocationID int64, movements []movement.Movement) (State, error) {
	state := State{SubLocationID: subLocationID}
	for _, m := range movements {
		if m.Status != movement.StatusApproved {
			continue
		}
		if m.ToSubLocationID == subLocationID {
			state = state.Receive(m.Bags, m.NetWeight, m.AcquisitionRate)
		}
		if m.FromSubLocationID == subLocationID {
			next, err := state.Issue(m.Bags, m.NetWeight)
			if err != nil {
				return state, fmt.Errorf("stock: replay %s at sub-location %d: %w", m.Serial, subLocationID, err)
			}
			state = next
		}
	}
	return state, nil
}

// CurrentState returns the location's present balance, served from the
// versioned cache when warm. Concurrent misses for the same location share a
// single replay.
func (s *Service) CurrentState(ctx context.Context, subLocationID int64) (State, error) {
	if s.cache == nil {
		return s.ComputeState(ctx, subLocationID, time.Time{})
	}
	key, err := s.cache.BuildKey(ctx, "stock", "state", fmt.Sprintf("%d", subLocationID))
	if err != nil {
		return State{}, err
	}
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		var state State
		err := s.cache.FetchJSON(ctx, key, &state, func(ctx context.Context) (interface{}, error) {
			return s.ComputeState(ctx, subLocationID, time.Time{})
		})
		return state, err
	})
	if err != nil {
		return State{}, err
	}
	return value.(State), nil
}

// Invalidate bumps the cache version after an approval has changed any
// location state. Stale entries become unreachable immediately because keys
// embed the version.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

// Reconcile compares the cached row state of every sub-location against a
// fresh replay and returns the divergent ones. Drift means an upstream
// defect; it is reported, never auto-healed.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	ids, err := s.repo.ListSubLocationIDs(ctx)
	if err != nil {
		return nil, err
	}
	var drifts []Drift
	for _, id := range ids {
		stored, err := s.repo.GetStoredState(ctx, id)
		if err != nil {
			return nil, err
		}
		replayed, err := s.ComputeState(ctx, id, time.Time{})
		if err != nil {
			return nil, err
		}
		if stored.Bags != replayed.Bags || !closeEnough(stored.Rate, replayed.Rate) || !closeEnough(stored.NetWeight, replayed.NetWeight) {
			drifts = append(drifts, Drift{SubLocationID: id, Stored: stored, Replayed: replayed})
		}
	}
	return drifts, nil
}

func closeEnough(a, b float64) bool {
	diff := a - b
	return diff < 0.0001 && diff > -0.0001
}
