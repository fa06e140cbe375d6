package masterdata

import (
	"context"
	"fmt"
	"strings"
)

// Service wraps the repository with input validation.
type Service struct {
	repo Repository
}

// NewService creates the master data service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListWarehouses(ctx context.Context, search string) ([]Warehouse, error) {
	return s.repo.ListWarehouses(ctx, search)
}

func (s *Service) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	if id <= 0 {
		return Warehouse{}, ErrInvalidID
	}
	return s.repo.GetWarehouse(ctx, id)
}

func (s *Service) CreateWarehouse(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	if err := validateWarehouse(warehouse); err != nil {
		return Warehouse{}, err
	}
	return s.repo.CreateWarehouse(ctx, warehouse)
}

func (s *Service) UpdateWarehouse(ctx context.Context, id int64, warehouse Warehouse) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := validateWarehouse(warehouse); err != nil {
		return err
	}
	return s.repo.UpdateWarehouse(ctx, id, warehouse)
}

func (s *Service) DeleteWarehouse(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.repo.DeleteWarehouse(ctx, id)
}

func (s *Service) ListSubLocations(ctx context.Context, warehouseID *int64) ([]SubLocation, error) {
	return s.repo.ListSubLocations(ctx, warehouseID)
}

func (s *Service) GetSubLocation(ctx context.Context, id int64) (SubLocation, error) {
	if id <= 0 {
		return SubLocation{}, ErrInvalidID
	}
	return s.repo.GetSubLocation(ctx, id)
}

func (s *Service) CreateSubLocation(ctx context.Context, loc SubLocation) (SubLocation, error) {
	if err := validateSubLocation(loc); err != nil {
		return SubLocation{}, err
	}
	return s.repo.CreateSubLocation(ctx, loc)
}

func (s *Service) UpdateSubLocation(ctx context.Context, id int64, loc SubLocation) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := validateSubLocation(loc); err != nil {
		return err
	}
	return s.repo.UpdateSubLocation(ctx, id, loc)
}

// DeleteSubLocation removes an empty sub-location. Locations holding stock or
// referenced by movements are refused.
func (s *Service) DeleteSubLocation(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	loc, err := s.repo.GetSubLocation(ctx, id)
	if err != nil {
		return err
	}
	if loc.StockBags != 0 || loc.StockNetWeight != 0 {
		return fmt.Errorf("%w: sub-location still holds stock", ErrInUse)
	}
	return s.repo.DeleteSubLocation(ctx, id)
}

func (s *Service) ListVarieties(ctx context.Context, search string) ([]Variety, error) {
	return s.repo.ListVarieties(ctx, search)
}

func (s *Service) CreateVariety(ctx context.Context, variety Variety) (Variety, error) {
	if strings.TrimSpace(variety.Name) == "" {
		return Variety{}, fmt.Errorf("%w: name", ErrRequiredField)
	}
	return s.repo.CreateVariety(ctx, variety)
}

func (s *Service) UpdateVariety(ctx context.Context, id int64, variety Variety) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(variety.Name) == "" {
		return fmt.Errorf("%w: name", ErrRequiredField)
	}
	return s.repo.UpdateVariety(ctx, id, variety)
}

func (s *Service) DeleteVariety(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.repo.DeleteVariety(ctx, id)
}

func (s *Service) ListOutturns(ctx context.Context, search string) ([]Outturn, error) {
	return s.repo.ListOutturns(ctx, search)
}

func (s *Service) CreateOutturn(ctx context.Context, outturn Outturn) (Outturn, error) {
	if strings.TrimSpace(outturn.Code) == "" {
		return Outturn{}, fmt.Errorf("%w: code", ErrRequiredField)
	}
	return s.repo.CreateOutturn(ctx, outturn)
}

func (s *Service) UpdateOutturn(ctx context.Context, id int64, outturn Outturn) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if strings.TrimSpace(outturn.Code) == "" {
		return fmt.Errorf("%w: code", ErrRequiredField)
	}
	return s.repo.UpdateOutturn(ctx, id, outturn)
}

func (s *Service) DeleteOutturn(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	return s.repo.DeleteOutturn(ctx, id)
}

func validateWarehouse(w Warehouse) error {
	if strings.TrimSpace(w.Code) == "" {
		return fmt.Errorf("%w: code", ErrRequiredField)
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: name", ErrRequiredField)
	}
	return nil
}

func validateSubLocation(loc SubLocation) error {
	if loc.WarehouseID <= 0 {
		return fmt.Errorf("%w: warehouse", ErrRequiredField)
	}
	if strings.TrimSpace(loc.Code) == "" {
		return fmt.Errorf("%w: code", ErrRequiredField)
	}
	return nil
}
