package stock

import (
	"errors"
	"time"
)

// State is a sub-location's running balance: bag count, net weight and the
// weighted-average acquisition rate per bag. The persisted copy on the
// sub-location row is a cache; replaying approved movements in (date, seq)
// order must always reproduce it.
type State struct {
	SubLocationID int64     `json:"sub_location_id"`
	Bags          int       `json:"bags"`
	NetWeight     float64   `json:"net_weight"`
	Rate          float64   `json:"rate"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Receive folds an inbound parcel into the balance at the given rate.
func (s State) Receive(bags int, weight, rate float64) State {
	s.Bags, s.Rate = Merge(s.Bags, s.Rate, bags, rate)
	s.NetWeight += weight
	return s
}

// Issue removes stock at the existing average. The rate of the remaining
// balance is unchanged by outflow. Issuing more than is on hand is an
// underflow, reported rather than clamped.
func (s State) Issue(bags int, weight float64) (State, error) {
	if bags > s.Bags {
		return s, ErrStockUnderflow
	}
	s.Bags -= bags
	s.NetWeight -= weight
	if s.NetWeight < 0 {
		return s, ErrStockUnderflow
	}
	if s.Bags == 0 {
		s.Rate = 0
		s.NetWeight = 0
	}
	return s, nil
}

// Drift describes a divergence between the cached location state and a
// fresh replay.
type Drift struct {
	SubLocationID int64
	Stored        State
	Replayed      State
}

var (
	// ErrStockUnderflow signals an outflow that would drive a location's
	// quantity negative.
	ErrStockUnderflow = errors.New("stock: underflow")
	// ErrStateNotFound indicates a missing sub-location state row.
	ErrStateNotFound = errors.New("stock: state not found")
)
