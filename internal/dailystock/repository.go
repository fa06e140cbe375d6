package dailystock

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grainledger/grainledger/internal/movement"
)

// Repository reads approved movements with their key labels from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const rowQuery = `SELECT m.id, m.serial, m.movement_date, m.seq, m.movement_type, m.variety_id,
m.bags, m.net_weight,
COALESCE(m.from_sub_location_id, 0), COALESCE(m.from_warehouse_id, 0),
COALESCE(m.to_sub_location_id, 0), COALESCE(m.to_warehouse_id, 0),
COALESCE(m.outturn_id, 0), COALESCE(m.acquisition_rate, 0),
v.name,
COALESCE(fsl.code, ''), COALESCE(fw.name, ''),
COALESCE(tsl.code, ''), COALESCE(tw.name, ''),
COALESCE(o.code, '')
FROM movements m
JOIN varieties v ON v.id = m.variety_id
LEFT JOIN sub_locations fsl ON fsl.id = m.from_sub_location_id
LEFT JOIN warehouses fw ON fw.id = m.from_warehouse_id
LEFT JOIN sub_locations tsl ON tsl.id = m.to_sub_location_id
LEFT JOIN warehouses tw ON tw.id = m.to_warehouse_id
LEFT JOIN outturns o ON o.id = m.outturn_id
WHERE m.status = 'APPROVED'`

// ListApprovedBefore returns approved movements dated strictly before the
// given day, in replay order.
func (r *Repository) ListApprovedBefore(ctx context.Context, before time.Time) ([]Row, error) {
	rows, err := r.pool.Query(ctx, rowQuery+` AND m.movement_date < $1 ORDER BY m.movement_date ASC, m.seq ASC`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListApprovedBetween returns approved movements within [from, to], in
// replay order.
func (r *Repository) ListApprovedBetween(ctx context.Context, from, to time.Time) ([]Row, error) {
	rows, err := r.pool.Query(ctx, rowQuery+` AND m.movement_date >= $1 AND m.movement_date <= $2 ORDER BY m.movement_date ASC, m.seq ASC`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]Row, error) {
	var result []Row
	for rows.Next() {
		var row Row
		var mType string
		err := rows.Scan(&row.ID, &row.Serial, &row.Date, &row.Seq, &mType, &row.VarietyID,
			&row.Bags, &row.NetWeight,
			&row.FromSubLocationID, &row.FromWarehouseID,
			&row.ToSubLocationID, &row.ToWarehouseID,
			&row.OutturnID, &row.AcquisitionRate,
			&row.VarietyName,
			&row.FromSubLocationCode, &row.FromWarehouseName,
			&row.ToSubLocationCode, &row.ToWarehouseName,
			&row.OutturnCode)
		if err != nil {
			return nil, err
		}
		row.Type = movement.Type(mType)
		row.Status = movement.StatusApproved
		result = append(result, row)
	}
	return result, rows.Err()
}
