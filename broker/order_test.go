package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderDefaults(t *testing.T) {
	t.Parallel()
	o := NewOrder("600519", Buy, Limit, 10.5, 200)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "", o.ID, "venue assigns the ID at submission")
	assert.Equal(t, int64(0), o.FilledQuantity)
	assert.Equal(t, 2100.0, o.Notional())
	assert.False(t, o.CreatedAt.IsZero())
}

func TestFinished(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusSubmitted, false},
		{StatusPartial, false},
		{StatusFilled, true},
		{StatusCancelled, true},
		{StatusRejected, true},
	}
	for _, c := range cases {
		o := NewOrder("600519", Sell, Market, 10, 100)
		o.Status = c.status
		assert.Equal(t, c.want, o.Finished(), "status %s", c.status)
		assert.Equal(t, !c.want, o.Cancellable(), "status %s", c.status)
	}
}

func TestSetStatusBumpsUpdatedAt(t *testing.T) {
	t.Parallel()
	o := NewOrder("600519", Buy, Market, 10, 100)
	before := o.UpdatedAt
	o.SetStatus(StatusSubmitted)
	assert.Equal(t, StatusSubmitted, o.Status)
	assert.False(t, o.UpdatedAt.Before(before))
}
