package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/grainledger/grainledger/internal/movement"
)

type fakeRepo struct {
	movements []movement.Movement
	stored    map[int64]State
}

func (r *fakeRepo) ListApprovedTouching(ctx context.Context, subLocationID int64, asOf time.Time) ([]movement.Movement, error) {
	var result []movement.Movement
	for _, m := range r.movements {
		if m.Status != movement.StatusApproved {
			continue
		}
		if m.FromSubLocationID != subLocationID && m.ToSubLocationID != subLocationID {
			continue
		}
		if !asOf.IsZero() && m.Date.After(asOf) {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func (r *fakeRepo) GetStoredState(ctx context.Context, subLocationID int64) (State, error) {
	state, ok := r.stored[subLocationID]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (r *fakeRepo) ListSubLocationIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(r.stored))
	for id := range r.stored {
		ids = append(ids, id)
	}
	return ids, nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStateReplaysInOrder(t *testing.T) {
	repo := &fakeRepo{movements: []movement.Movement{
		{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 100, NetWeight: 5000, AcquisitionRate: 1000},
		{Serial: "MV-2", Date: day(2), Seq: 2, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 50, NetWeight: 2500, AcquisitionRate: 2000},
		{Serial: "MV-3", Date: day(3), Seq: 3, Status: movement.StatusApproved, FromSubLocationID: 1, Bags: 50, NetWeight: 2500},
	}}
	svc := NewService(repo, nil)

	state, err := svc.ComputeState(context.Background(), 1, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 100, state.Bags)
	require.InDelta(t, 1333.3333, state.Rate, 0.01)
	require.InDelta(t, 5000, state.NetWeight, 0.0001)
}

func TestComputeStateAsOf(t *testing.T) {
	repo := &fakeRepo{movements: []movement.Movement{
		{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 100, NetWeight: 5000, AcquisitionRate: 1000},
		{Serial: "MV-2", Date: day(5), Seq: 2, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 50, NetWeight: 2500, AcquisitionRate: 2000},
	}}
	svc := NewService(repo, nil)

	state, err := svc.ComputeState(context.Background(), 1, day(2))
	require.NoError(t, err)
	require.Equal(t, 100, state.Bags)
	require.InDelta(t, 1000, state.Rate, 0.0001)
}

func TestComputeStateIgnoresPending(t *testing.T) {
	repo := &fakeRepo{movements: []movement.Movement{
		{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 10, NetWeight: 500, AcquisitionRate: 900},
		{Serial: "MV-2", Date: day(1), Seq: 2, Status: movement.StatusPending, ToSubLocationID: 1, Bags: 10, NetWeight: 500, AcquisitionRate: 900},
	}}
	svc := NewService(repo, nil)

	state, err := svc.ComputeState(context.Background(), 1, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 10, state.Bags)
}

func TestReplayUnderflowReported(t *testing.T) {
	movements := []movement.Movement{
		{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 10, NetWeight: 500, AcquisitionRate: 900},
		{Serial: "MV-2", Date: day(2), Seq: 2, Status: movement.StatusApproved, FromSubLocationID: 1, Bags: 20, NetWeight: 1000},
	}
	_, err := Replay(1, movements)
	require.ErrorIs(t, err, ErrStockUnderflow)
}

func TestReconcileFlagsDrift(t *testing.T) {
	repo := &fakeRepo{
		movements: []movement.Movement{
			{Serial: "MV-1", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 1, Bags: 100, NetWeight: 5000, AcquisitionRate: 1000},
			{Serial: "MV-2", Date: day(1), Seq: 1, Status: movement.StatusApproved, ToSubLocationID: 2, Bags: 10, NetWeight: 500, AcquisitionRate: 700},
		},
		stored: map[int64]State{
			1: {SubLocationID: 1, Bags: 100, NetWeight: 5000, Rate: 1000},
			2: {SubLocationID: 2, Bags: 10, NetWeight: 500, Rate: 999}, // corrupted cache
		},
	}
	svc := NewService(repo, nil)

	drifts, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	require.EqualValues(t, 2, drifts[0].SubLocationID)
	require.InDelta(t, 700, drifts[0].Replayed.Rate, 0.0001)
}
