package dailystock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	rows []Row
	err  error
}

func (f *fakeRepo) ListApprovedBefore(_ context.Context, before time.Time) ([]Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Row
	for _, r := range f.rows {
		if r.Date.Before(before) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListApprovedBetween(_ context.Context, from, to time.Time) ([]Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Row
	for _, r := range f.rows {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestServiceDailyStockSplitsOpeningFromRange(t *testing.T) {
	repo := &fakeRepo{rows: []Row{
		purchaseRow("MV-1", day(1), 1, 100, 7500, "K1", "Main"),
		loadingRow("MV-2", day(3), 2, 40, 3000, "K1", "Main"),
	}}
	svc := NewService(repo)

	days, err := svc.DailyStock(context.Background(), day(3), day(3))
	require.NoError(t, err)
	require.Len(t, days, 1)

	k := findKey(t, days[0], "Sona-K1 - Main")
	assert.Equal(t, Position{Bags: 100, NetWeight: 7500}, k.Opening)
	assert.Equal(t, Position{Bags: 60, NetWeight: 4500}, k.Closing)
}

func TestServiceDailyStockRejectsReversedRange(t *testing.T) {
	svc := NewService(&fakeRepo{})
	_, err := svc.DailyStock(context.Background(), day(4), day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestServiceDailyStockPropagatesRepoError(t *testing.T) {
	cause := errors.New("connection reset")
	svc := NewService(&fakeRepo{err: cause})
	_, err := svc.DailyStock(context.Background(), day(1), day(2))
	assert.ErrorIs(t, err, cause)
}

func TestServiceVerifyCleanLedger(t *testing.T) {
	repo := &fakeRepo{rows: []Row{
		purchaseRow("MV-1", day(1), 1, 100, 7500, "K1", "Main"),
		shiftingRow("MV-2", day(2), 2, 30, 2250, "K1", "K2", "Main"),
		loadingRow("MV-3", day(4), 3, 20, 1500, "K2", "Main"),
	}}
	svc := NewService(repo)

	violations, err := svc.Verify(context.Background(), day(1), day(5))
	require.NoError(t, err)
	assert.Empty(t, violations)
}
