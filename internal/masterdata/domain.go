package masterdata

import (
	"errors"
	"time"
)

// Warehouse represents a storage site.
type Warehouse struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubLocation represents a storage compartment inside a warehouse. Codes are
// unique per warehouse. The stock columns are owned by the approval cascade;
// master data only reads them.
type SubLocation struct {
	ID          int64     `json:"id"`
	WarehouseID int64     `json:"warehouse_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	StockBags      int       `json:"stock_bags"`
	StockNetWeight float64   `json:"stock_net_weight"`
	AvgRate        float64   `json:"avg_rate"`
	StateUpdatedAt time.Time `json:"state_updated_at"`
}

// Variety represents a grain variety.
type Variety struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outturn represents a production lot grain is milled against.
type Outturn struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	MillName  string    `json:"mill_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("masterdata: not found")
	// ErrDuplicateCode indicates a unique-code collision.
	ErrDuplicateCode = errors.New("masterdata: code already in use")
	// ErrInUse refuses deletion of a record movements still reference.
	ErrInUse = errors.New("masterdata: record is referenced by movements")
	// ErrInvalidID indicates a non-positive identifier.
	ErrInvalidID = errors.New("masterdata: invalid ID")
	// ErrRequiredField indicates a missing mandatory field.
	ErrRequiredField = errors.New("masterdata: field is required")
)
