package dailystock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grainledger/grainledger/internal/movement"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func approvedRow(serial string, date time.Time, seq int64, typ movement.Type, bags int, weight float64) Row {
	return Row{
		Movement: movement.Movement{
			Serial:    serial,
			Date:      date,
			Seq:       seq,
			Type:      typ,
			VarietyID: 1,
			Bags:      bags,
			NetWeight: weight,
			Status:    movement.StatusApproved,
		},
		VarietyName: "Sona",
	}
}

func purchaseRow(serial string, date time.Time, seq int64, bags int, weight float64, destCode, warehouse string) Row {
	row := approvedRow(serial, date, seq, movement.TypePurchase, bags, weight)
	row.ToSubLocationID = 10
	row.ToWarehouseID = 1
	row.ToSubLocationCode = destCode
	row.ToWarehouseName = warehouse
	return row
}

func shiftingRow(serial string, date time.Time, seq int64, bags int, weight float64, fromCode, toCode, warehouse string) Row {
	row := approvedRow(serial, date, seq, movement.TypeShifting, bags, weight)
	row.FromSubLocationID = 10
	row.ToSubLocationID = 11
	row.ToWarehouseID = 1
	row.FromSubLocationCode = fromCode
	row.ToSubLocationCode = toCode
	row.FromWarehouseName = warehouse
	row.ToWarehouseName = warehouse
	return row
}

func loadingRow(serial string, date time.Time, seq int64, bags int, weight float64, fromCode, warehouse string) Row {
	row := approvedRow(serial, date, seq, movement.TypeLoading, bags, weight)
	row.FromSubLocationID = 10
	row.FromSubLocationCode = fromCode
	row.FromWarehouseName = warehouse
	return row
}

func productionShiftingRow(serial string, date time.Time, seq int64, bags int, weight float64, fromCode, warehouse, outturn string) Row {
	row := approvedRow(serial, date, seq, movement.TypeProductionShifting, bags, weight)
	row.FromSubLocationID = 10
	row.OutturnID = 5
	row.FromSubLocationCode = fromCode
	row.FromWarehouseName = warehouse
	row.OutturnCode = outturn
	return row
}

func findKey(t *testing.T, d Day, key string) KeyDay {
	t.Helper()
	for _, k := range d.Keys {
		if k.Key == key {
			return k
		}
	}
	t.Fatalf("key %q not present on %s", key, d.Date.Format("2006-01-02"))
	return KeyDay{}
}

func TestAggregateSignConventions(t *testing.T) {
	rows := []Row{
		purchaseRow("MV-1", day(1), 1, 100, 7500, "K1", "Main"),
		shiftingRow("MV-2", day(1), 2, 40, 3000, "K1", "K2", "Main"),
		loadingRow("MV-3", day(1), 3, 10, 750, "K1", "Main"),
		productionShiftingRow("MV-4", day(1), 4, 20, 1500, "K1", "Main", "OT-9"),
	}

	days, err := Aggregate(nil, rows, day(1), day(1))
	require.NoError(t, err)
	require.Len(t, days, 1)

	k1 := findKey(t, days[0], "Sona-K1 - Main")
	assert.Equal(t, Position{}, k1.Opening)
	require.Len(t, k1.Deltas, 4)
	assert.Equal(t, 100, k1.Deltas[0].Bags)
	assert.Equal(t, -40, k1.Deltas[1].Bags)
	assert.Equal(t, -10, k1.Deltas[2].Bags)
	assert.Equal(t, -20, k1.Deltas[3].Bags)
	assert.Equal(t, Position{Bags: 30, NetWeight: 2250}, k1.Closing)

	k2 := findKey(t, days[0], "Sona-K2 - Main")
	assert.Equal(t, Position{Bags: 40, NetWeight: 3000}, k2.Closing)

	prod := findKey(t, days[0], "Sona-K1-OT-9")
	assert.Equal(t, Position{Bags: 20, NetWeight: 1500}, prod.Closing)
}

func TestAggregateStockBalanceIdentity(t *testing.T) {
	// closing = opening + purchases - shiftingOut + shiftingIn - loading - productionShiftingOut
	opening := []Row{
		purchaseRow("MV-0", day(1), 1, 200, 15000, "K1", "Main"),
	}
	rows := []Row{
		purchaseRow("MV-1", day(2), 2, 50, 3750, "K1", "Main"),
		shiftingRow("MV-2", day(2), 3, 30, 2250, "K1", "K2", "Main"),
		loadingRow("MV-3", day(2), 4, 60, 4500, "K1", "Main"),
		productionShiftingRow("MV-4", day(2), 5, 25, 1875, "K1", "Main", "OT-9"),
	}

	days, err := Aggregate(opening, rows, day(2), day(2))
	require.NoError(t, err)

	k1 := findKey(t, days[0], "Sona-K1 - Main")
	assert.Equal(t, Position{Bags: 200, NetWeight: 15000}, k1.Opening)
	assert.Equal(t, 200+50-30-60-25, k1.Closing.Bags)
	assert.InDelta(t, 15000+3750-2250-4500-1875, k1.Closing.NetWeight, 0.001)
}

func TestAggregateContinuityAcrossDays(t *testing.T) {
	rows := []Row{
		purchaseRow("MV-1", day(1), 1, 100, 7500, "K1", "Main"),
		loadingRow("MV-2", day(3), 2, 20, 1500, "K1", "Main"),
		purchaseRow("MV-3", day(5), 3, 30, 2250, "K1", "Main"),
	}

	days, err := Aggregate(nil, rows, day(1), day(6))
	require.NoError(t, err)
	require.Len(t, days, 6)

	for i := 0; i+1 < len(days); i++ {
		closing := findKey(t, days[i], "Sona-K1 - Main").Closing
		opening := findKey(t, days[i+1], "Sona-K1 - Main").Opening
		assert.Equal(t, closing, opening, "break between %s and %s", days[i].Date, days[i+1].Date)
	}
	assert.Empty(t, CheckContinuity(days))
	assert.Equal(t, Position{Bags: 110, NetWeight: 8250}, findKey(t, days[5], "Sona-K1 - Main").Closing)
}

func TestAggregateQuietDaysCarryStockForward(t *testing.T) {
	opening := []Row{purchaseRow("MV-0", day(1), 1, 40, 3000, "K1", "Main")}

	days, err := Aggregate(opening, nil, day(2), day(4))
	require.NoError(t, err)
	require.Len(t, days, 3)
	for _, d := range days {
		k := findKey(t, d, "Sona-K1 - Main")
		assert.Empty(t, k.Deltas)
		assert.Equal(t, Position{Bags: 40, NetWeight: 3000}, k.Opening)
		assert.Equal(t, k.Opening, k.Closing)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	opening := []Row{purchaseRow("MV-0", day(1), 1, 80, 6000, "K1", "Main")}
	rows := []Row{
		shiftingRow("MV-1", day(2), 2, 30, 2250, "K1", "K2", "Main"),
		loadingRow("MV-2", day(3), 3, 10, 750, "K2", "Main"),
	}

	first, err := Aggregate(opening, rows, day(2), day(3))
	require.NoError(t, err)
	second, err := Aggregate(opening, rows, day(2), day(3))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAggregateZeroedKeyDropsOut(t *testing.T) {
	opening := []Row{purchaseRow("MV-0", day(1), 1, 50, 3750, "K1", "Main")}
	rows := []Row{loadingRow("MV-1", day(2), 2, 50, 3750, "K1", "Main")}

	days, err := Aggregate(opening, rows, day(2), day(3))
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, Position{}, findKey(t, days[0], "Sona-K1 - Main").Closing)
	// A key with zero opening and no activity is omitted the next day.
	for _, k := range days[1].Keys {
		assert.NotEqual(t, "Sona-K1 - Main", k.Key)
	}
}

func TestAggregateRejectsReversedRange(t *testing.T) {
	_, err := Aggregate(nil, nil, day(5), day(2))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCheckContinuityReportsBreak(t *testing.T) {
	days := []Day{
		{Date: day(1), Keys: []KeyDay{{Key: "Sona-K1 - Main", Closing: Position{Bags: 10, NetWeight: 750}}}},
		{Date: day(2), Keys: []KeyDay{{Key: "Sona-K1 - Main", Opening: Position{Bags: 12, NetWeight: 900}}}},
	}
	violations := CheckContinuity(days)
	require.Len(t, violations, 1)
	assert.Equal(t, "Sona-K1 - Main", violations[0].Key)
	assert.Equal(t, Position{Bags: 10, NetWeight: 750}, violations[0].Closing)
	assert.Equal(t, Position{Bags: 12, NetWeight: 900}, violations[0].Opening)
}
