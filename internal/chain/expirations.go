package chain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire format for expiration dates.
const DateLayout = "2006-01-02"

// ErrEmptyInput is returned when there is nothing to resolve from.
var ErrEmptyInput = errors.New("empty input")

// Targets are the three named expirations the dashboard can select.
type Targets struct {
	TodayOrNearest string `json:"today_or_nearest"`
	NextFuture     string `json:"next_future"`
	NextFriday     string `json:"next_friday"`
}

// ResolveExpirations picks the named targets out of a raw expiration list.
// The list may be unordered and contain duplicates or full timestamps; only the
// date part is used. today is interpreted in its own location.
func ResolveExpirations(raw []string, today time.Time) (Targets, error) {
	dates := normalizeDates(raw)
	if len(dates) == 0 {
		return Targets{}, fmt.Errorf("%w: no expirations", ErrEmptyInput)
	}

	day := civilDate(today)
	last := dates[len(dates)-1]

	todayOrNearest := last
	for _, d := range dates {
		if !d.Before(day) {
			todayOrNearest = d
			break
		}
	}

	nextFuture := last
	for _, d := range dates {
		if d.After(day) {
			nextFuture = d
			break
		}
	}

	// On a Friday the same-day weekly is skipped.
	nextFriday := nextFuture
	todayIsFriday := day.Weekday() == time.Friday
	for _, d := range dates {
		if d.Weekday() != time.Friday {
			continue
		}
		if (todayIsFriday && d.After(day)) || (!todayIsFriday && !d.Before(day)) {
			nextFriday = d
			break
		}
	}

	return Targets{
		TodayOrNearest: todayOrNearest.Format(DateLayout),
		NextFuture:     nextFuture.Format(DateLayout),
		NextFriday:     nextFriday.Format(DateLayout),
	}, nil
}

// DaysToExpiry returns whole calendar days from today to the expiration date.
// Expirations in the past return a negative count.
func DaysToExpiry(expiration string, today time.Time) (int, error) {
	exp, err := time.Parse(DateLayout, expiration)
	if err != nil {
		return 0, fmt.Errorf("parsing expiration %q: %w", expiration, err)
	}
	return int(exp.Sub(civilDate(today)).Hours() / 24), nil
}

func normalizeDates(raw []string) []time.Time {
	seen := make(map[time.Time]bool, len(raw))
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		if len(s) < len(DateLayout) {
			continue
		}
		d, err := time.Parse(DateLayout, s[:len(DateLayout)])
		if err != nil || seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// civilDate drops the clock and zone, keeping the calendar date as UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
