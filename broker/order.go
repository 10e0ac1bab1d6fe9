package broker

import "time"

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type PriceType string

const (
	Market PriceType = "MARKET"
	Limit  PriceType = "LIMIT"
)

// Status is the order lifecycle state. PENDING is transient (validation
// only); FILLED, CANCELLED and REJECTED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusPartial   Status = "PARTIAL"
	StatusFilled    Status = "FILLED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

// Order is a request to trade one instrument on one side. Quantity is
// immutable once submitted; only the venue mutates status and fill fields.
type Order struct {
	ID             string
	Symbol         string
	Side           Side
	PriceType      PriceType
	Price          float64 // limit price, or reference price for market orders
	Quantity       int64
	FilledQuantity int64
	AvgFillPrice   float64
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Reason         string // populated on rejection
}

func NewOrder(symbol string, side Side, priceType PriceType, price float64, qty int64) *Order {
	now := time.Now()
	return &Order{
		Symbol:    symbol,
		Side:      side,
		PriceType: priceType,
		Price:     price,
		Quantity:  qty,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Notional is the order value at its reference price.
func (o *Order) Notional() float64 {
	return float64(o.Quantity) * o.Price
}

// Finished reports whether the order is in a terminal state. Terminal
// orders are immutable.
func (o *Order) Finished() bool {
	switch o.Status {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Cancellable reports whether a cancel may still be attempted. A cancel
// racing a fill can legitimately fail.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case StatusPending, StatusSubmitted, StatusPartial:
		return true
	}
	return false
}

// SetStatus transitions the order, bumping UpdatedAt.
func (o *Order) SetStatus(s Status) {
	o.Status = s
	o.UpdatedAt = time.Now()
}
