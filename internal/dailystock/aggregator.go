package dailystock

import (
	"sort"
	"time"

	"github.com/grainledger/grainledger/internal/movement"
)

// keyDelta is one signed contribution of a movement to an aggregation key.
type keyDelta struct {
	key       string
	serial    string
	category  movement.Category
	bags      int
	netWeight float64
}

// expand maps a classified row to its signed key contributions. Loading and
// the outbound leg of transfers are negative; purchases and inbound legs are
// positive.
func expand(row Row) ([]keyDelta, error) {
	cls, err := movement.Classify(row.Movement)
	if err != nil {
		return nil, err
	}
	storageFrom := movement.StorageKey(row.VarietyName, row.FromSubLocationCode, row.FromWarehouseName)
	storageTo := movement.StorageKey(row.VarietyName, row.ToSubLocationCode, row.ToWarehouseName)

	var deltas []keyDelta
	switch cls.Category {
	case movement.CategoryNormalPurchase:
		deltas = append(deltas, signed(row, cls.Category, storageTo, +1))
	case movement.CategoryForProductionPurchase:
		deltas = append(deltas, signed(row, cls.Category, movement.ProductionKey(row.VarietyName, "", row.OutturnCode, row.OutturnID), +1))
	case movement.CategoryShifting:
		deltas = append(deltas,
			signed(row, cls.Category, storageFrom, -1),
			signed(row, cls.Category, storageTo, +1))
	case movement.CategoryProductionShifting:
		deltas = append(deltas,
			signed(row, cls.Category, storageFrom, -1),
			signed(row, cls.Category, movement.ProductionKey(row.VarietyName, row.FromSubLocationCode, row.OutturnCode, row.OutturnID), +1))
	case movement.CategoryLoading:
		deltas = append(deltas, signed(row, cls.Category, storageFrom, -1))
	}
	return deltas, nil
}

func signed(row Row, category movement.Category, key string, sign int) keyDelta {
	bags, weight := row.Counts(sign)
	return keyDelta{key: key, serial: row.Serial, category: category, bags: bags, netWeight: weight}
}

// Aggregate produces the per-day opening/delta/closing view for every key in
// the range. openingRows are approved movements dated strictly before from;
// rangeRows are approved movements within [from, to]. Both must already be
// in (date, seq) order. The computation is purely derived: running it twice
// over the same inputs yields identical output.
func Aggregate(openingRows, rangeRows []Row, from, to time.Time) ([]Day, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	opening := make(map[string]Position)
	for _, row := range openingRows {
		deltas, err := expand(row)
		if err != nil {
			return nil, err
		}
		for _, d := range deltas {
			opening[d.key] = opening[d.key].Add(d.bags, d.netWeight)
		}
	}

	byDay := make(map[time.Time][]keyDelta)
	for _, row := range rangeRows {
		deltas, err := expand(row)
		if err != nil {
			return nil, err
		}
		date := truncateDay(row.Date)
		byDay[date] = append(byDay[date], deltas...)
	}

	var days []Day
	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		day := Day{Date: date}
		deltas := byDay[date]

		keys := make(map[string]bool)
		for key, pos := range opening {
			if !pos.IsZero() {
				keys[key] = true
			}
		}
		for _, d := range deltas {
			keys[d.key] = true
		}
		sorted := make([]string, 0, len(keys))
		for key := range keys {
			sorted = append(sorted, key)
		}
		sort.Strings(sorted)

		for _, key := range sorted {
			entry := KeyDay{Key: key, Opening: opening[key]}
			closing := entry.Opening
			for _, d := range deltas {
				if d.key != key {
					continue
				}
				entry.Deltas = append(entry.Deltas, Delta{Serial: d.serial, Category: d.category, Bags: d.bags, NetWeight: d.netWeight})
				closing = closing.Add(d.bags, d.netWeight)
			}
			entry.Closing = closing
			opening[key] = closing
			day.Keys = append(day.Keys, entry)
		}
		days = append(days, day)
	}
	return days, nil
}

// CheckContinuity verifies closing(day N) == opening(day N+1) for every key
// present in both days. Violations are reported, never reconciled: a break
// means an upstream defect that reconciliation would only mask.
func CheckContinuity(days []Day) []Violation {
	var violations []Violation
	for i := 0; i+1 < len(days); i++ {
		closing := make(map[string]Position, len(days[i].Keys))
		for _, k := range days[i].Keys {
			closing[k.Key] = k.Closing
		}
		for _, next := range days[i+1].Keys {
			prev, ok := closing[next.Key]
			if !ok {
				continue
			}
			if prev != next.Opening {
				violations = append(violations, Violation{
					Key:      next.Key,
					Date:     days[i].Date,
					NextDate: days[i+1].Date,
					Closing:  prev,
					Opening:  next.Opening,
				})
			}
		}
	}
	return violations
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
