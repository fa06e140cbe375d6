package stock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grainledger/grainledger/internal/movement"
)

// Repository reads replay inputs and cached state from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListApprovedTouching returns approved movements with the sub-location as
// source or destination, in replay order.
func (r *Repository) ListApprovedTouching(ctx context.Context, subLocationID int64, asOf time.Time) ([]movement.Movement, error) {
	query := `SELECT id, serial, movement_date, seq, movement_type, variety_id,
bags, net_weight,
COALESCE(from_sub_location_id, 0), COALESCE(to_sub_location_id, 0),
COALESCE(acquisition_rate, 0)
FROM movements
WHERE status = 'APPROVED'
  AND (from_sub_location_id = $1 OR to_sub_location_id = $1)
  AND ($2::timestamptz IS NULL OR movement_date <= $2)
ORDER BY movement_date ASC, seq ASC`
	var bound *time.Time
	if !asOf.IsZero() {
		bound = &asOf
	}
	rows, err := r.pool.Query(ctx, query, subLocationID, bound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []movement.Movement
	for rows.Next() {
		var m movement.Movement
		var mType string
		if err := rows.Scan(&m.ID, &m.Serial, &m.Date, &m.Seq, &mType, &m.VarietyID,
			&m.Bags, &m.NetWeight, &m.FromSubLocationID, &m.ToSubLocationID, &m.AcquisitionRate); err != nil {
			return nil, err
		}
		m.Type = movement.Type(mType)
		m.Status = movement.StatusApproved
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// GetStoredState reads the cached cost-state columns from the sub-location row.
func (r *Repository) GetStoredState(ctx context.Context, subLocationID int64) (State, error) {
	var state State
	err := r.pool.QueryRow(ctx, `SELECT id, stock_bags, stock_net_weight, avg_rate, COALESCE(state_updated_at, 'epoch'::timestamptz)
FROM sub_locations WHERE id = $1`, subLocationID).
		Scan(&state.SubLocationID, &state.Bags, &state.NetWeight, &state.Rate, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, ErrStateNotFound
	}
	return state, err
}

// ListSubLocationIDs returns all registered sub-location ids.
func (r *Repository) ListSubLocationIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM sub_locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
