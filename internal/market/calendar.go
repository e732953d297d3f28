// Package market answers calendar questions in the exchange's time zone.
package market

import (
	"time"

	"github.com/scmhub/calendar"
)

// Calendar handles market day validation in a fixed time zone
type Calendar struct {
	location *time.Location
	nyse     *calendar.Calendar
}

// NewCalendar returns an NYSE calendar evaluated in loc. A nil loc means UTC.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		location: loc,
		nyse:     calendar.XNYS(),
	}
}

// IsMarketDay checks if the date of t in the market time zone is a trading day
// (not weekend/holiday).
func (c *Calendar) IsMarketDay(t time.Time) bool {
	y, m, d := t.In(c.location).Date()
	// Noon avoids any boundary effects at midnight.
	return c.nyse.IsBusinessDay(time.Date(y, m, d, 12, 0, 0, 0, c.location))
}
