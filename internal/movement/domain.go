package movement

import (
	"errors"
	"time"
)

// Type enumerates supported movement kinds.
type Type string

const (
	// TypePurchase records grain bought in, routed to storage or production.
	TypePurchase Type = "PURCHASE"
	// TypeShifting moves stock between two sub-locations.
	TypeShifting Type = "SHIFTING"
	// TypeProductionShifting routes stock from a sub-location into a production lot.
	TypeProductionShifting Type = "PRODUCTION_SHIFTING"
	// TypeLoading issues stock out of a sub-location.
	TypeLoading Type = "LOADING"
)

// Status enumerates the movement workflow states. APPROVED and REJECTED are
// terminal; corrections are reversing movements, never edits.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Movement is the atomic ledger entry. Routing fields use zero as absent.
// Only the approval workflow mutates Status, AcquisitionRate (snapshot on
// transfer approval), ApprovedBy and ApprovedAt after creation.
type Movement struct {
	ID     int64
	Serial string
	Date   time.Time
	Seq    int64 // insertion-order tiebreak within a date

	Type      Type
	VarietyID int64

	Bags        int
	GrossWeight float64
	TareWeight  float64
	NetWeight   float64 // gross minus tare, derived at creation

	FromSubLocationID int64
	FromWarehouseID   int64
	ToSubLocationID   int64
	ToWarehouseID     int64
	OutturnID         int64

	Status Status

	// AcquisitionRate is the per-bag cost basis. Purchases carry it from
	// creation; transfers receive the source location's rate as a snapshot
	// at approval time so later replays stay deterministic.
	AcquisitionRate float64

	ReversalOfID int64

	CreatedBy  int64
	CreatedAt  time.Time
	ApprovedBy int64
	ApprovedAt time.Time
}

// Counts reports the signed bag/weight contribution of the movement for a
// given direction: +1 inbound, -1 outbound.
func (m Movement) Counts(sign int) (int, float64) {
	return sign * m.Bags, float64(sign) * m.NetWeight
}

var (
	// ErrAmbiguousClassification is returned when a purchase names both a
	// destination sub-location and a production lot.
	ErrAmbiguousClassification = errors.New("movement: ambiguous classification")
	// ErrUnclassified is returned when a purchase names neither a
	// destination sub-location nor a production lot.
	ErrUnclassified = errors.New("movement: unclassified")
	// ErrUnknownType indicates an unsupported movement type.
	ErrUnknownType = errors.New("movement: unknown type")
	// ErrInvalidBags indicates a non-positive bag count.
	ErrInvalidBags = errors.New("movement: bags must be positive")
	// ErrZeroWeight flags a zero net weight, a data defect rather than a
	// valid entry.
	ErrZeroWeight = errors.New("movement: net weight is zero")
	// ErrNegativeWeight indicates tare exceeding gross weight.
	ErrNegativeWeight = errors.New("movement: tare exceeds gross weight")
	// ErrMissingSource indicates a transfer or issue without source routing.
	ErrMissingSource = errors.New("movement: source sub-location required")
	// ErrMissingDestination indicates incomplete destination routing.
	ErrMissingDestination = errors.New("movement: destination sub-location and warehouse required")
	// ErrMissingOutturn indicates production routing without a lot.
	ErrMissingOutturn = errors.New("movement: production lot required")
	// ErrSameLocation indicates a shifting onto itself.
	ErrSameLocation = errors.New("movement: source and destination must differ")
	// ErrMissingRate indicates a purchase without an acquisition rate.
	ErrMissingRate = errors.New("movement: acquisition rate required")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("movement: not found")
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = errors.New("movement: invalid state transition")
)
