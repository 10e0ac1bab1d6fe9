package broker

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/stocktrader/account"
)

// Rejection classes surfaced by a Broker. A rejected order never mutates
// account state.
var (
	ErrNotConnected         = errors.New("broker: not connected")
	ErrInvalidOrder         = errors.New("broker: invalid order")
	ErrInsufficientCash     = errors.New("broker: insufficient cash")
	ErrInsufficientHoldings = errors.New("broker: insufficient holdings")
)

// OrderUpdateListener receives order state pushes. Delivery is
// at-least-once with no ordering guarantee across instruments.
type OrderUpdateListener interface {
	OnOrderUpdate(Order)
}

// PositionUpdateListener receives position pushes after fills.
type PositionUpdateListener interface {
	OnPositionUpdate(account.Position)
}

// Broker is the trade-execution boundary. Implementations return order
// copies; callers never share mutable order state with the venue.
type Broker interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool

	// SubmitOrder validates and accepts an order, returning its venue id.
	// On rejection the returned error wraps one of the sentinel errors
	// above and the order copy carries StatusRejected with a reason.
	SubmitOrder(ctx context.Context, o *Order) (string, error)

	// CancelOrder is best-effort: it returns false for unknown or
	// already-terminal orders and never releases frozen cash twice.
	CancelOrder(id string) bool

	GetOrder(id string) (Order, bool)
	ActiveOrders() []Order
	HistoricalOrders(start, end time.Time) []Order

	Account() *account.Account
	Positions() map[string]account.Position
	Position(symbol string) (account.Position, bool)
	AvailableCash() float64
	TotalAssets() float64

	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)

	SubscribeOrderUpdates(OrderUpdateListener)
	SubscribePositionUpdates(PositionUpdateListener)
}
