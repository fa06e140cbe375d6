package stock

// Merge computes the quantity-weighted average of an existing balance and an
// inbound parcel:
//
//	qNew = qOld + qIn
//	rNew = qNew > 0 ? (qOld*rOld + qIn*rIn) / qNew : 0
//
// A zero existing quantity makes the old rate irrelevant; the formula then
// yields the inbound rate directly, with no division by zero.
func Merge(qtyOld int, rateOld float64, qtyIn int, rateIn float64) (int, float64) {
	qtyNew := qtyOld + qtyIn
	if qtyNew <= 0 {
		return qtyNew, 0
	}
	rateNew := (float64(qtyOld)*rateOld + float64(qtyIn)*rateIn) / float64(qtyNew)
	return qtyNew, rateNew
}
