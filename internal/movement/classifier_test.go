package movement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPurchase(t *testing.T) {
	base := Movement{Type: TypePurchase, VarietyID: 1, Bags: 10, GrossWeight: 510, TareWeight: 10}

	forProd := base
	forProd.OutturnID = 7
	cls, err := Classify(forProd)
	require.NoError(t, err)
	require.Equal(t, CategoryForProductionPurchase, cls.Category)
	require.EqualValues(t, 7, cls.Outturn)
	require.False(t, cls.Outbound())
	require.False(t, cls.Inbound())

	normal := base
	normal.ToSubLocationID = 3
	normal.ToWarehouseID = 2
	cls, err = Classify(normal)
	require.NoError(t, err)
	require.Equal(t, CategoryNormalPurchase, cls.Category)
	require.EqualValues(t, 3, cls.Dest)
	require.True(t, cls.Inbound())

	both := base
	both.OutturnID = 7
	both.ToSubLocationID = 3
	_, err = Classify(both)
	require.ErrorIs(t, err, ErrAmbiguousClassification)

	_, err = Classify(base)
	require.ErrorIs(t, err, ErrUnclassified)

	noWarehouse := base
	noWarehouse.ToSubLocationID = 3
	_, err = Classify(noWarehouse)
	require.ErrorIs(t, err, ErrMissingDestination)
}

func TestClassifyTransfers(t *testing.T) {
	shifting := Movement{Type: TypeShifting, FromSubLocationID: 1, ToSubLocationID: 2}
	cls, err := Classify(shifting)
	require.NoError(t, err)
	require.Equal(t, CategoryShifting, cls.Category)
	require.True(t, cls.Transfer())
	require.True(t, cls.Outbound())
	require.True(t, cls.Inbound())

	same := shifting
	same.ToSubLocationID = 1
	_, err = Classify(same)
	require.ErrorIs(t, err, ErrSameLocation)

	prodShift := Movement{Type: TypeProductionShifting, FromSubLocationID: 1, OutturnID: 9}
	cls, err = Classify(prodShift)
	require.NoError(t, err)
	require.Equal(t, CategoryProductionShifting, cls.Category)
	require.True(t, cls.Transfer())
	require.False(t, cls.Inbound())

	prodShiftWithDest := prodShift
	prodShiftWithDest.ToSubLocationID = 4
	_, err = Classify(prodShiftWithDest)
	require.ErrorIs(t, err, ErrAmbiguousClassification)

	loading := Movement{Type: TypeLoading, FromSubLocationID: 1}
	cls, err = Classify(loading)
	require.NoError(t, err)
	require.Equal(t, CategoryLoading, cls.Category)
	require.False(t, cls.Transfer())

	_, err = Classify(Movement{Type: TypeLoading})
	require.ErrorIs(t, err, ErrMissingSource)

	_, err = Classify(Movement{Type: Type("DISPOSAL"), FromSubLocationID: 1})
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestValidateQuantities(t *testing.T) {
	net, err := ValidateQuantities(Movement{Bags: 10, GrossWeight: 510, TareWeight: 10})
	require.NoError(t, err)
	require.InDelta(t, 500, net, 0.0001)

	_, err = ValidateQuantities(Movement{Bags: 0, GrossWeight: 510, TareWeight: 10})
	require.ErrorIs(t, err, ErrInvalidBags)

	_, err = ValidateQuantities(Movement{Bags: 10, GrossWeight: 10, TareWeight: 10})
	require.ErrorIs(t, err, ErrZeroWeight)

	_, err = ValidateQuantities(Movement{Bags: 10, GrossWeight: 5, TareWeight: 10})
	require.ErrorIs(t, err, ErrNegativeWeight)
}

func TestGroupingKeys(t *testing.T) {
	require.Equal(t, "Jaya-K1-OT12", ProductionKey("Jaya", "K1", "OT12", 0))
	require.Equal(t, "Jaya-Direct-OT12", ProductionKey("Jaya", "", "OT12", 0))
	require.Equal(t, "Jaya-Direct-OUT5", ProductionKey("Jaya", "", "", 5))
	require.Equal(t, "Jaya-K2 - Main Godown", StorageKey("Jaya", "K2", "Main Godown"))
}
