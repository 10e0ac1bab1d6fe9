// Package live runs the scheduled trading loop against a broker.
package live

import "time"

// Session boundaries, expressed as hour*100+minute.
const (
	morningOpen    = 930
	morningClose   = 1130
	afternoonOpen  = 1300
	afternoonClose = 1500
)

// Calendar answers whether the market is open at a given time.
type Calendar struct{}

// Open reports whether t falls inside a trading session. Weekends are
// closed; holidays are not modeled.
func (Calendar) Open(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hm := t.Hour()*100 + t.Minute()
	return (hm >= morningOpen && hm < morningClose) ||
		(hm >= afternoonOpen && hm < afternoonClose)
}

// NextDaily returns the next occurrence of hour:min strictly after t.
func NextDaily(t time.Time, hour, min int) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), hour, min, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
