package approval

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grainledger/grainledger/internal/movement"
	"github.com/grainledger/grainledger/internal/platform/db"
	"github.com/grainledger/grainledger/internal/stock"
)

// Repository persists approval cascades in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *txRepo) GetMovementForUpdate(ctx context.Context, id int64) (movement.Movement, error) {
	query := `SELECT id, serial, movement_date, seq, movement_type, variety_id,
bags, gross_weight, tare_weight, net_weight,
COALESCE(from_sub_location_id, 0), COALESCE(from_warehouse_id, 0),
COALESCE(to_sub_location_id, 0), COALESCE(to_warehouse_id, 0),
COALESCE(outturn_id, 0), status, COALESCE(acquisition_rate, 0)
FROM movements WHERE id = $1 FOR UPDATE`
	var m movement.Movement
	var mType, status string
	err := r.tx.QueryRow(ctx, query, id).Scan(&m.ID, &m.Serial, &m.Date, &m.Seq, &mType, &m.VarietyID,
		&m.Bags, &m.GrossWeight, &m.TareWeight, &m.NetWeight,
		&m.FromSubLocationID, &m.FromWarehouseID,
		&m.ToSubLocationID, &m.ToWarehouseID,
		&m.OutturnID, &status, &m.AcquisitionRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return movement.Movement{}, movement.ErrNotFound
	}
	if err != nil {
		return movement.Movement{}, err
	}
	m.Type = movement.Type(mType)
	m.Status = movement.Status(status)
	return m, nil
}

func (r *txRepo) GetStateForUpdate(ctx context.Context, subLocationID int64) (stock.State, error) {
	var state stock.State
	err := r.tx.QueryRow(ctx, `SELECT id, stock_bags, stock_net_weight, avg_rate, COALESCE(state_updated_at, 'epoch'::timestamptz)
FROM sub_locations WHERE id = $1 FOR UPDATE`, subLocationID).
		Scan(&state.SubLocationID, &state.Bags, &state.NetWeight, &state.Rate, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock.State{}, stock.ErrStateNotFound
	}
	return state, err
}

func (r *txRepo) UpdateState(ctx context.Context, state stock.State) error {
	tag, err := r.tx.Exec(ctx, `UPDATE sub_locations
SET stock_bags = $2, stock_net_weight = $3, avg_rate = $4, state_updated_at = $5
WHERE id = $1`, state.SubLocationID, state.Bags, state.NetWeight, state.Rate, state.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return stock.ErrStateNotFound
	}
	return nil
}

func (r *txRepo) MarkApproved(ctx context.Context, id int64, actorID int64, at time.Time, rate float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE movements
SET status = 'APPROVED', acquisition_rate = NULLIF($3, 0.0), approved_by = $2, approved_at = $4
WHERE id = $1`, id, actorID, rate, at)
	return err
}

func (r *txRepo) MarkRejected(ctx context.Context, id int64, actorID int64, at time.Time, note string) error {
	_, err := r.tx.Exec(ctx, `UPDATE movements
SET status = 'REJECTED', rejection_note = NULLIF($3, ''), approved_by = $2, approved_at = $4
WHERE id = $1`, id, actorID, note, at)
	return err
}
