package dailystock

import (
	"errors"
	"time"

	"github.com/grainledger/grainledger/internal/movement"
)

// Row is an approved movement joined with the labels its aggregation keys
// are built from.
type Row struct {
	movement.Movement
	VarietyName         string
	FromSubLocationCode string
	FromWarehouseName   string
	ToSubLocationCode   string
	ToWarehouseName     string
	OutturnCode         string
}

// Position is a quantity at a key: bag count plus net weight.
type Position struct {
	Bags      int     `json:"bags"`
	NetWeight float64 `json:"net_weight"`
}

// Add returns the position shifted by a signed delta.
func (p Position) Add(bags int, weight float64) Position {
	p.Bags += bags
	p.NetWeight += weight
	return p
}

// IsZero reports an empty position.
func (p Position) IsZero() bool {
	return p.Bags == 0 && p.NetWeight == 0
}

// Delta is one signed transaction line within a day. Outflows carry negative
// quantities, inflows positive.
type Delta struct {
	Serial    string            `json:"serial"`
	Category  movement.Category `json:"category"`
	Bags      int               `json:"bags"`
	NetWeight float64           `json:"net_weight"`
}

// KeyDay is one aggregation key's view of a single day.
type KeyDay struct {
	Key     string   `json:"key"`
	Opening Position `json:"opening"`
	Deltas  []Delta  `json:"deltas"`
	Closing Position `json:"closing"`
}

// Day buckets every key's snapshot for one date. Keys are sorted so equal
// inputs always produce identical output.
type Day struct {
	Date time.Time `json:"date"`
	Keys []KeyDay  `json:"keys"`
}

// Violation describes a break in the day-to-day continuity invariant:
// closing(day N) must equal opening(day N+1) for every key present in both.
type Violation struct {
	Key      string
	Date     time.Time
	NextDate time.Time
	Closing  Position
	Opening  Position
}

// ErrInvalidRange indicates a reversed or empty date range.
var ErrInvalidRange = errors.New("dailystock: invalid date range")
