package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository

	subLocations map[int64]SubLocation
	deleted      []int64
}

func (f *fakeRepo) GetSubLocation(_ context.Context, id int64) (SubLocation, error) {
	loc, ok := f.subLocations[id]
	if !ok {
		return SubLocation{}, ErrNotFound
	}
	return loc, nil
}

func (f *fakeRepo) DeleteSubLocation(_ context.Context, id int64) error {
	if _, ok := f.subLocations[id]; !ok {
		return ErrNotFound
	}
	delete(f.subLocations, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRepo) CreateSubLocation(_ context.Context, loc SubLocation) (SubLocation, error) {
	loc.ID = int64(len(f.subLocations) + 1)
	f.subLocations[loc.ID] = loc
	return loc, nil
}

func (f *fakeRepo) CreateWarehouse(_ context.Context, w Warehouse) (Warehouse, error) {
	w.ID = 1
	return w, nil
}

func (f *fakeRepo) CreateVariety(_ context.Context, v Variety) (Variety, error) {
	v.ID = 1
	return v, nil
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subLocations: map[int64]SubLocation{}}
}

func TestCreateWarehouseRequiresCodeAndName(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateWarehouse(context.Background(), Warehouse{Name: "Main"})
	assert.ErrorIs(t, err, ErrRequiredField)

	_, err = svc.CreateWarehouse(context.Background(), Warehouse{Code: "WH1", Name: "  "})
	assert.ErrorIs(t, err, ErrRequiredField)

	created, err := svc.CreateWarehouse(context.Background(), Warehouse{Code: "WH1", Name: "Main"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
}

func TestCreateSubLocationRequiresWarehouse(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.CreateSubLocation(context.Background(), SubLocation{Code: "K1"})
	assert.ErrorIs(t, err, ErrRequiredField)

	created, err := svc.CreateSubLocation(context.Background(), SubLocation{WarehouseID: 1, Code: "K1"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestDeleteSubLocationRefusedWhileStocked(t *testing.T) {
	repo := newFakeRepo()
	repo.subLocations[7] = SubLocation{ID: 7, WarehouseID: 1, Code: "K1", StockBags: 12, StockNetWeight: 900}
	svc := NewService(repo)

	err := svc.DeleteSubLocation(context.Background(), 7)
	assert.ErrorIs(t, err, ErrInUse)
	assert.Empty(t, repo.deleted)
}

func TestDeleteSubLocationEmptySucceeds(t *testing.T) {
	repo := newFakeRepo()
	repo.subLocations[7] = SubLocation{ID: 7, WarehouseID: 1, Code: "K1"}
	svc := NewService(repo)

	require.NoError(t, svc.DeleteSubLocation(context.Background(), 7))
	assert.Equal(t, []int64{7}, repo.deleted)
}

func TestDeleteSubLocationUnknownID(t *testing.T) {
	svc := NewService(newFakeRepo())
	assert.ErrorIs(t, svc.DeleteSubLocation(context.Background(), 99), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteSubLocation(context.Background(), 0), ErrInvalidID)
}

func TestCreateVarietyRequiresName(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.CreateVariety(context.Background(), Variety{})
	assert.ErrorIs(t, err, ErrRequiredField)
}
