package market

// DefaultLotSize is the venue's minimum tradeable quantity granularity.
// Order quantities must be integer multiples of the lot size.
const DefaultLotSize int64 = 100

// RoundToLot floors qty to the nearest multiple of lot, never below zero.
// A non-positive lot falls back to DefaultLotSize.
func RoundToLot(qty, lot int64) int64 {
	if lot <= 0 {
		lot = DefaultLotSize
	}
	if qty <= 0 {
		return 0
	}
	return qty - qty%lot
}
