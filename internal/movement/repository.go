package movement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists movements in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const movementColumns = `id, serial, movement_date, seq, movement_type, variety_id,
bags, gross_weight, tare_weight, net_weight,
COALESCE(from_sub_location_id, 0), COALESCE(from_warehouse_id, 0),
COALESCE(to_sub_location_id, 0), COALESCE(to_warehouse_id, 0),
COALESCE(outturn_id, 0), status, COALESCE(acquisition_rate, 0),
COALESCE(reversal_of_id, 0), created_by, created_at,
COALESCE(approved_by, 0), COALESCE(approved_at, 'epoch'::timestamptz)`

// Insert stores a new pending movement and returns it with id and seq set.
func (r *Repository) Insert(ctx context.Context, m Movement) (Movement, error) {
	query := `INSERT INTO movements
(serial, movement_date, movement_type, variety_id, bags, gross_weight, tare_weight, net_weight,
 from_sub_location_id, from_warehouse_id, to_sub_location_id, to_warehouse_id, outturn_id,
 status, acquisition_rate, reversal_of_id, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
 NULLIF($9, 0), NULLIF($10, 0), NULLIF($11, 0), NULLIF($12, 0), NULLIF($13, 0),
 $14, NULLIF($15, 0.0), NULLIF($16, 0), $17, NOW())
RETURNING id, seq, created_at`
	err := r.pool.QueryRow(ctx, query,
		m.Serial, m.Date, string(m.Type), m.VarietyID, m.Bags, m.GrossWeight, m.TareWeight, m.NetWeight,
		m.FromSubLocationID, m.FromWarehouseID, m.ToSubLocationID, m.ToWarehouseID, m.OutturnID,
		string(m.Status), m.AcquisitionRate, m.ReversalOfID, m.CreatedBy,
	).Scan(&m.ID, &m.Seq, &m.CreatedAt)
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

// Get fetches one movement by id.
func (r *Repository) Get(ctx context.Context, id int64) (Movement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id)
	m, err := scanMovement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, ErrNotFound
	}
	return m, err
}

// List returns movements matching the filter ordered by (date, seq).
func (r *Repository) List(ctx context.Context, filter Filter) ([]Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR movement_type = $2)
  AND ($3::timestamptz IS NULL OR movement_date >= $3)
  AND ($4::timestamptz IS NULL OR movement_date <= $4)
ORDER BY movement_date ASC, seq ASC
LIMIT $5`
	rows, err := r.pool.Query(ctx, query,
		string(filter.Status), string(filter.Type), nullableTime(filter.From), nullableTime(filter.To), filter.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanMovement(row pgx.Row) (Movement, error) {
	var m Movement
	var mType, status string
	err := row.Scan(&m.ID, &m.Serial, &m.Date, &m.Seq, &mType, &m.VarietyID,
		&m.Bags, &m.GrossWeight, &m.TareWeight, &m.NetWeight,
		&m.FromSubLocationID, &m.FromWarehouseID,
		&m.ToSubLocationID, &m.ToWarehouseID,
		&m.OutturnID, &status, &m.AcquisitionRate,
		&m.ReversalOfID, &m.CreatedBy, &m.CreatedAt,
		&m.ApprovedBy, &m.ApprovedAt)
	if err != nil {
		return Movement{}, err
	}
	m.Type = Type(mType)
	m.Status = Status(status)
	return m, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
