package movement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	movements map[int64]Movement
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{movements: make(map[int64]Movement)}
}

func (r *memoryRepo) Insert(ctx context.Context, m Movement) (Movement, error) {
	r.nextID++
	m.ID = r.nextID
	m.Seq = r.nextID
	m.CreatedAt = time.Now()
	r.movements[m.ID] = m
	return m, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Movement, error) {
	m, ok := r.movements[id]
	if !ok {
		return Movement{}, ErrNotFound
	}
	return m, nil
}

func (r *memoryRepo) List(ctx context.Context, filter Filter) ([]Movement, error) {
	var result []Movement
	for _, m := range r.movements {
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		result = append(result, m)
	}
	return result, nil
}

func TestCreatePurchase(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Type:            TypePurchase,
		VarietyID:       1,
		Bags:            100,
		GrossWeight:     7600,
		TareWeight:      100,
		ToSubLocationID: 3,
		ToWarehouseID:   2,
		AcquisitionRate: 2000,
		ActorID:         9,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.NotEmpty(t, created.Serial)
	require.InDelta(t, 7500, created.NetWeight, 0.0001)
	require.InDelta(t, 2000, created.AcquisitionRate, 0.0001)
}

func TestCreateRejectsBadRouting(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{
		Type: TypePurchase, VarietyID: 1, Bags: 10, GrossWeight: 510, TareWeight: 10,
		ToSubLocationID: 3, ToWarehouseID: 2, OutturnID: 7, AcquisitionRate: 2000,
	})
	require.ErrorIs(t, err, ErrAmbiguousClassification)

	_, err = svc.Create(ctx, CreateInput{
		Type: TypePurchase, VarietyID: 1, Bags: 10, GrossWeight: 510, TareWeight: 10,
		AcquisitionRate: 2000,
	})
	require.ErrorIs(t, err, ErrUnclassified)
	require.Empty(t, repo.movements)
}

func TestCreateRequiresPurchaseRate(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Type: TypePurchase, VarietyID: 1, Bags: 10, GrossWeight: 510, TareWeight: 10,
		ToSubLocationID: 3, ToWarehouseID: 2,
	})
	require.ErrorIs(t, err, ErrMissingRate)
}

func TestCreateDropsRateOnTransfers(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		Type: TypeShifting, VarietyID: 1, Bags: 10, GrossWeight: 510, TareWeight: 10,
		FromSubLocationID: 1, ToSubLocationID: 2,
		AcquisitionRate:   1234, // ignored: transfers snapshot at approval
	})
	require.NoError(t, err)
	require.Zero(t, created.AcquisitionRate)
}

func TestReverseShifting(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	orig := Movement{
		Type: TypeShifting, VarietyID: 1, Bags: 50, GrossWeight: 2550, TareWeight: 50, NetWeight: 2500,
		FromSubLocationID: 1, FromWarehouseID: 10, ToSubLocationID: 2, ToWarehouseID: 20,
		Status: StatusApproved,
	}
	orig, err := repo.Insert(ctx, orig)
	require.NoError(t, err)

	rev, err := svc.Reverse(ctx, orig.ID, 9)
	require.NoError(t, err)
	require.Equal(t, StatusPending, rev.Status)
	require.Equal(t, orig.ID, rev.ReversalOfID)
	require.Equal(t, orig.ToSubLocationID, rev.FromSubLocationID)
	require.Equal(t, orig.FromSubLocationID, rev.ToSubLocationID)
}

func TestReverseRequiresApproved(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	pending, err := repo.Insert(ctx, Movement{Type: TypeLoading, FromSubLocationID: 1, Status: StatusPending})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, pending.ID, 9)
	require.ErrorIs(t, err, ErrInvalidState)
}
