package chain

import "math"

// WindowHalfWidth returns how many strikes to show on each side of ATM.
func WindowHalfWidth(daysToExpiry int) int {
	switch {
	case daysToExpiry <= 1:
		return 15
	case daysToExpiry <= 4:
		return 25
	default:
		return 35
	}
}

// Window returns the strikes from ATM-n to ATM+n, highest strike first.
// ATM is the strike nearest to price; on a tie the higher strike wins because it
// comes first in descending order. With no price or an empty table every strike
// is returned.
func Window(t *Table, price *float64, n int) []StrikeRow {
	rows := t.Descending()
	if price == nil || len(rows) == 0 {
		return rows
	}

	atm := 0
	best := math.Inf(1)
	for i, r := range rows {
		if d := math.Abs(r.Strike - *price); d < best {
			best = d
			atm = i
		}
	}

	lo := max(0, atm-n)
	hi := min(len(rows), atm+n+1)
	return rows[lo:hi]
}
