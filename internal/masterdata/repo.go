package masterdata

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository exposes master data persistence.
type Repository interface {
	ListWarehouses(ctx context.Context, search string) ([]Warehouse, error)
	GetWarehouse(ctx context.Context, id int64) (Warehouse, error)
	CreateWarehouse(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	UpdateWarehouse(ctx context.Context, id int64, warehouse Warehouse) error
	DeleteWarehouse(ctx context.Context, id int64) error

	ListSubLocations(ctx context.Context, warehouseID *int64) ([]SubLocation, error)
	GetSubLocation(ctx context.Context, id int64) (SubLocation, error)
	CreateSubLocation(ctx context.Context, loc SubLocation) (SubLocation, error)
	UpdateSubLocation(ctx context.Context, id int64, loc SubLocation) error
	DeleteSubLocation(ctx context.Context, id int64) error

	ListVarieties(ctx context.Context, search string) ([]Variety, error)
	CreateVariety(ctx context.Context, variety Variety) (Variety, error)
	UpdateVariety(ctx context.Context, id int64, variety Variety) error
	DeleteVariety(ctx context.Context, id int64) error

	ListOutturns(ctx context.Context, search string) ([]Outturn, error)
	CreateOutturn(ctx context.Context, outturn Outturn) (Outturn, error)
	UpdateOutturn(ctx context.Context, id int64, outturn Outturn) error
	DeleteOutturn(ctx context.Context, id int64) error
}

// repo implements Repository interface
type repo struct {
	db *pgxpool.Pool
}

// NewRepository creates a new master data repository
func NewRepository(db *pgxpool.Pool) Repository {
	return &repo{db: db}
}

// mapPgError converts the constraint violations the schema can raise into
// domain errors.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateCode
		case "23503":
			return ErrInUse
		}
	}
	return err
}

// Warehouse operations

func (r *repo) ListWarehouses(ctx context.Context, search string) ([]Warehouse, error) {
	query := `SELECT id, code, name, address, created_at, updated_at FROM warehouses`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR code ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var warehouses []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r *repo) GetWarehouse(ctx context.Context, id int64) (Warehouse, error) {
	query := `SELECT id, code, name, address, created_at, updated_at FROM warehouses WHERE id = $1`
	var w Warehouse
	err := r.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt)
	return w, mapPgError(err)
}

func (r *repo) CreateWarehouse(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	query := `INSERT INTO warehouses (code, name, address, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, warehouse.Code, warehouse.Name, warehouse.Address, now, now).Scan(&warehouse.ID)
	if err != nil {
		return Warehouse{}, mapPgError(err)
	}
	warehouse.CreatedAt = now
	warehouse.UpdatedAt = now
	return warehouse, nil
}

func (r *repo) UpdateWarehouse(ctx context.Context, id int64, warehouse Warehouse) error {
	query := `UPDATE warehouses SET code = $1, name = $2, address = $3, updated_at = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, warehouse.Code, warehouse.Name, warehouse.Address, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteWarehouse(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Sub-location operations

const subLocationColumns = `id, warehouse_id, code, name, created_at, updated_at,
stock_bags, stock_net_weight, avg_rate, COALESCE(state_updated_at, created_at)`

func (r *repo) ListSubLocations(ctx context.Context, warehouseID *int64) ([]SubLocation, error) {
	query := `SELECT ` + subLocationColumns + ` FROM sub_locations`
	args := []interface{}{}
	if warehouseID != nil {
		query += ` WHERE warehouse_id = $1`
		args = append(args, *warehouseID)
	}
	query += ` ORDER BY code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locs []SubLocation
	for rows.Next() {
		loc, err := scanSubLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

func (r *repo) GetSubLocation(ctx context.Context, id int64) (SubLocation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subLocationColumns+` FROM sub_locations WHERE id = $1`, id)
	loc, err := scanSubLocation(row)
	return loc, mapPgError(err)
}

func (r *repo) CreateSubLocation(ctx context.Context, loc SubLocation) (SubLocation, error) {
	query := `INSERT INTO sub_locations (warehouse_id, code, name, created_at, updated_at, stock_bags, stock_net_weight, avg_rate)
	          VALUES ($1, $2, $3, $4, $5, 0, 0, 0) RETURNING id`
	now := time.Now()
	err := r.db.QueryRow(ctx, query, loc.WarehouseID, loc.Code, loc.Name, now, now).Scan(&loc.ID)
	if err != nil {
		return SubLocation{}, mapPgError(err)
	}
	loc.CreatedAt = now
	loc.UpdatedAt = now
	return loc, nil
}

func (r *repo) UpdateSubLocation(ctx context.Context, id int64, loc SubLocation) error {
	query := `UPDATE sub_locations SET warehouse_id = $1, code = $2, name = $3, updated_at = $4 WHERE id = $5`
	tag, err := r.db.Exec(ctx, query, loc.WarehouseID, loc.Code, loc.Name, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteSubLocation(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sub_locations WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubLocation(row pgx.Row) (SubLocation, error) {
	var loc SubLocation
	err := row.Scan(&loc.ID, &loc.WarehouseID, &loc.Code, &loc.Name, &loc.CreatedAt, &loc.UpdatedAt,
		&loc.StockBags, &loc.StockNetWeight, &loc.AvgRate, &loc.StateUpdatedAt)
	return loc, err
}

// Variety operations

func (r *repo) ListVarieties(ctx context.Context, search string) ([]Variety, error) {
	query := `SELECT id, name, created_at, updated_at FROM varieties`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var varieties []Variety
	for rows.Next() {
		var v Variety
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		varieties = append(varieties, v)
	}
	return varieties, rows.Err()
}

func (r *repo) CreateVariety(ctx context.Context, variety Variety) (Variety, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO varieties (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`,
		variety.Name, now, now).Scan(&variety.ID)
	if err != nil {
		return Variety{}, mapPgError(err)
	}
	variety.CreatedAt = now
	variety.UpdatedAt = now
	return variety, nil
}

func (r *repo) UpdateVariety(ctx context.Context, id int64, variety Variety) error {
	tag, err := r.db.Exec(ctx, `UPDATE varieties SET name = $1, updated_at = $2 WHERE id = $3`, variety.Name, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteVariety(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM varieties WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Outturn operations

func (r *repo) ListOutturns(ctx context.Context, search string) ([]Outturn, error) {
	query := `SELECT id, code, mill_name, created_at, updated_at FROM outturns`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE code ILIKE $1 OR mill_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outturns []Outturn
	for rows.Next() {
		var o Outturn
		if err := rows.Scan(&o.ID, &o.Code, &o.MillName, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		outturns = append(outturns, o)
	}
	return outturns, rows.Err()
}

func (r *repo) CreateOutturn(ctx context.Context, outturn Outturn) (Outturn, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO outturns (code, mill_name, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		outturn.Code, outturn.MillName, now, now).Scan(&outturn.ID)
	if err != nil {
		return Outturn{}, mapPgError(err)
	}
	outturn.CreatedAt = now
	outturn.UpdatedAt = now
	return outturn, nil
}

func (r *repo) UpdateOutturn(ctx context.Context, id int64, outturn Outturn) error {
	tag, err := r.db.Exec(ctx, `UPDATE outturns SET code = $1, mill_name = $2, updated_at = $3 WHERE id = $4`,
		outturn.Code, outturn.MillName, time.Now(), id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) DeleteOutturn(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM outturns WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
