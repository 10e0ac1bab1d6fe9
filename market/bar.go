package market

import (
	"context"
	"errors"
	"time"
)

// ErrNoData is returned by a DataSource that has nothing for the requested
// symbol/range. Callers treat it as "skip this symbol for the cycle", never
// as a partial result.
var ErrNoData = errors.New("market: no data")

// Bar is one OHLCV record for a single trading day.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DataSource supplies historical bars for a symbol, oldest first.
// Implementations must return either the complete range or an error;
// a partially populated slice is not a valid result.
type DataSource interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
}
