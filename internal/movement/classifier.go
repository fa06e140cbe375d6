package movement

import "fmt"

// Category is the semantic class a movement resolves to. Exactly one applies
// per movement; ambiguous or unroutable records fail classification instead
// of being defaulted.
type Category string

const (
	// CategoryNormalPurchase is a purchase into a warehouse sub-location.
	CategoryNormalPurchase Category = "NORMAL_PURCHASE"
	// CategoryForProductionPurchase is a purchase routed directly into a
	// production lot, bypassing warehouse storage.
	CategoryForProductionPurchase Category = "FOR_PRODUCTION_PURCHASE"
	// CategoryShifting transfers stock between sub-locations, carrying cost.
	CategoryShifting Category = "SHIFTING"
	// CategoryProductionShifting moves stock from a sub-location into a
	// production lot.
	CategoryProductionShifting Category = "PRODUCTION_SHIFTING"
	// CategoryLoading issues stock out of a sub-location.
	CategoryLoading Category = "LOADING"
)

// Classification is the validated routing of a movement. Values exist only
// through Classify, so holding one guarantees the routing its category needs
// is present and unambiguous.
type Classification struct {
	Category Category
	Source   int64 // source sub-location id, set when stock leaves storage
	Dest     int64 // destination sub-location id, set when stock enters storage
	Outturn  int64 // production lot id, set for production categories
}

// Inbound reports whether the classification adds stock to Dest.
func (c Classification) Inbound() bool {
	return c.Dest != 0
}

// Outbound reports whether the classification removes stock from Source.
func (c Classification) Outbound() bool {
	return c.Source != 0
}

// Transfer reports whether the category snapshots the source rate on approval.
func (c Classification) Transfer() bool {
	return c.Category == CategoryShifting || c.Category == CategoryProductionShifting
}

// Classify resolves a movement's routing fields into exactly one category or
// fails validation. Rules are mutually exclusive: a purchase naming both a
// destination sub-location and a production lot is ambiguous, one naming
// neither is unclassified.
func Classify(m Movement) (Classification, error) {
	switch m.Type {
	case TypePurchase:
		switch {
		case m.ToSubLocationID != 0 && m.OutturnID != 0:
			return Classification{}, ErrAmbiguousClassification
		case m.ToSubLocationID == 0 && m.OutturnID == 0:
			return Classification{}, ErrUnclassified
		case m.OutturnID != 0:
			return Classification{Category: CategoryForProductionPurchase, Outturn: m.OutturnID}, nil
		default:
			if m.ToWarehouseID == 0 {
				return Classification{}, ErrMissingDestination
			}
			return Classification{Category: CategoryNormalPurchase, Dest: m.ToSubLocationID}, nil
		}
	case TypeShifting:
		if m.OutturnID != 0 {
			return Classification{}, ErrAmbiguousClassification
		}
		if m.FromSubLocationID == 0 {
			return Classification{}, ErrMissingSource
		}
		if m.ToSubLocationID == 0 {
			return Classification{}, ErrMissingDestination
		}
		if m.FromSubLocationID == m.ToSubLocationID {
			return Classification{}, ErrSameLocation
		}
		return Classification{Category: CategoryShifting, Source: m.FromSubLocationID, Dest: m.ToSubLocationID}, nil
	case TypeProductionShifting:
		if m.ToSubLocationID != 0 {
			return Classification{}, ErrAmbiguousClassification
		}
		if m.FromSubLocationID == 0 {
			return Classification{}, ErrMissingSource
		}
		if m.OutturnID == 0 {
			return Classification{}, ErrMissingOutturn
		}
		return Classification{Category: CategoryProductionShifting, Source: m.FromSubLocationID, Outturn: m.OutturnID}, nil
	case TypeLoading:
		if m.ToSubLocationID != 0 || m.OutturnID != 0 {
			return Classification{}, ErrAmbiguousClassification
		}
		if m.FromSubLocationID == 0 {
			return Classification{}, ErrMissingSource
		}
		return Classification{Category: CategoryLoading, Source: m.FromSubLocationID}, nil
	default:
		return Classification{}, ErrUnknownType
	}
}

// ValidateQuantities checks the bag count and derives the net weight. Zero
// net weight is flagged as a defect, never silently accepted.
func ValidateQuantities(m Movement) (float64, error) {
	if m.Bags <= 0 {
		return 0, ErrInvalidBags
	}
	net := m.GrossWeight - m.TareWeight
	if net < 0 {
		return 0, ErrNegativeWeight
	}
	if net == 0 {
		return 0, ErrZeroWeight
	}
	return net, nil
}

// ProductionKey builds the human-auditable aggregation key for production
// stock. Direct purchases have no source sub-location; lots without a code
// fall back to a synthetic OUT label.
func ProductionKey(variety, sourceSubLocationCode, outturnCode string, outturnID int64) string {
	src := sourceSubLocationCode
	if src == "" {
		src = "Direct"
	}
	lot := outturnCode
	if lot == "" {
		lot = fmt.Sprintf("OUT%d", outturnID)
	}
	return variety + "-" + src + "-" + lot
}

// StorageKey builds the aggregation key for warehouse stock.
func StorageKey(variety, subLocationCode, warehouseName string) string {
	return variety + "-" + subLocationCode + " - " + warehouseName
}
