package chain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func n(v int64) *int64     { return &v }

func callSymbol(strike float64) string {
	return FormatOptionSymbol(OptionSymbol{Root: "SPXW", Expiration: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Right: "C", Strike: strike})
}

func putSymbol(strike float64) string {
	return FormatOptionSymbol(OptionSymbol{Root: "SPXW", Expiration: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Right: "P", Strike: strike})
}

func TestParseOptionSymbol(t *testing.T) {
	got, err := ParseOptionSymbol("SPXW261016C05800000")
	require.NoError(t, err)
	assert.Equal(t, "SPXW", got.Root)
	assert.Equal(t, "C", got.Right)
	assert.Equal(t, 5800.0, got.Strike)
	assert.Equal(t, "2026-10-16", got.Expiration.Format(DateLayout))

	got, err = ParseOptionSymbol("O:SPY   261016P00512500")
	require.NoError(t, err)
	assert.Equal(t, 512.5, got.Strike)
	assert.Equal(t, "P", got.Right)

	for _, bad := range []string{"", "SPX", "SPXW261016X05800000", "SPXW26AB16C05800000", "SPXW261016C0580000A"} {
		_, err := ParseOptionSymbol(bad)
		assert.True(t, errors.Is(err, ErrInvalidSymbol), "expected ErrInvalidSymbol for %q", bad)
	}
}

func TestFormatOptionSymbolRoundTrip(t *testing.T) {
	assert.Equal(t, "SPXW261016C05800000", callSymbol(5800))
	strike, err := StrikeFromSymbol(putSymbol(5802.5))
	require.NoError(t, err)
	assert.Equal(t, 5802.5, strike)
}

func TestMerge_OneRowPerDistinctStrike(t *testing.T) {
	calls := []Leg{
		{Symbol: callSymbol(5000), Bid: f(10), Ask: f(12), Volume: n(100), OpenInterest: n(1000)},
		{Symbol: callSymbol(5010), Bid: f(6), Ask: f(7)},
		{Symbol: "garbage"},
	}
	puts := []Leg{
		{Symbol: putSymbol(5000), Bid: f(9), Ask: f(11), Volume: n(80)},
		{Symbol: putSymbol(4990), Bid: f(5), Ask: f(6), OpenInterest: n(50)},
	}

	table := Merge(calls, puts)
	require.Equal(t, 3, table.Len())

	atm, ok := table.Row(5000)
	require.True(t, ok)
	assert.Equal(t, 10.0, *atm.CallBid)
	assert.Equal(t, 11.0, *atm.PutAsk)
	assert.Equal(t, int64(100), *atm.CallVolume)
	assert.Equal(t, int64(80), *atm.PutVolume)
	assert.Nil(t, atm.PutOpenInterest)

	callOnly, ok := table.Row(5010)
	require.True(t, ok)
	assert.Nil(t, callOnly.PutBid)
	assert.Nil(t, callOnly.PutAsk)
	assert.Nil(t, callOnly.PutVolume)
	assert.Nil(t, callOnly.CallVolume, "missing volume must stay absent, not zero")

	putOnly, ok := table.Row(4990)
	require.True(t, ok)
	assert.Nil(t, putOnly.CallBid)
	assert.Equal(t, int64(50), *putOnly.PutOpenInterest)

	asc := table.Ascending()
	assert.Equal(t, []float64{4990, 5000, 5010}, strikes(asc))
}

func TestStrikeRowMids(t *testing.T) {
	r := StrikeRow{CallBid: f(10), CallAsk: f(12), PutBid: f(9)}
	m, ok := r.CallMid()
	assert.True(t, ok)
	assert.Equal(t, 11.0, m)
	_, ok = r.PutMid()
	assert.False(t, ok)
}

func strikes(rows []StrikeRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Strike
	}
	return out
}

func ladder(lo, hi, step float64) *Table {
	var rows []StrikeRow
	for s := lo; s <= hi; s += step {
		rows = append(rows, StrikeRow{Strike: s})
	}
	return NewTable(rows)
}

func TestWindowHalfWidth(t *testing.T) {
	cases := map[int]int{-1: 15, 0: 15, 1: 15, 2: 25, 4: 25, 5: 35, 30: 35}
	for dte, want := range cases {
		assert.Equal(t, want, WindowHalfWidth(dte), "dte=%d", dte)
	}
}

func TestWindow_SizeAndContainsATM(t *testing.T) {
	table := ladder(4800, 5200, 5) // 81 strikes
	price := 5001.0
	got := Window(table, &price, 15)

	require.Len(t, got, 31)
	assert.Contains(t, strikes(got), 5000.0)
	assert.Equal(t, 5075.0, got[0].Strike)
	assert.Equal(t, 4925.0, got[len(got)-1].Strike)
}

func TestWindow_TieGoesToHigherStrike(t *testing.T) {
	table := ladder(4990, 5010, 10) // 4990, 5000, 5010
	price := 5005.0
	got := Window(table, &price, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 5010.0, got[0].Strike)
}

func TestWindow_ClipsToBounds(t *testing.T) {
	table := ladder(5000, 5040, 10)
	price := 5041.0
	got := Window(table, &price, 2)
	assert.Equal(t, []float64{5040, 5030, 5020}, strikes(got))
}

func TestWindow_NoPriceReturnsAllDescending(t *testing.T) {
	table := ladder(5000, 5020, 10)
	got := Window(table, nil, 1)
	assert.Equal(t, []float64{5020, 5010, 5000}, strikes(got))

	assert.Empty(t, Window(NewTable(nil), f(5000), 3))
}

func TestResolveExpirations(t *testing.T) {
	wednesday := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)
	raw := []string{"2026-10-23", "2026-10-14", "2026-10-16", "2026-10-15", "2026-10-14", "2026-10-16T00:00:00Z"}

	got, err := ResolveExpirations(raw, wednesday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", got.TodayOrNearest)
	assert.Equal(t, "2026-10-15", got.NextFuture)
	assert.Equal(t, "2026-10-16", got.NextFriday)
}

func TestResolveExpirations_FridaySkipsSameDay(t *testing.T) {
	friday := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	raw := []string{"2026-10-16", "2026-10-19", "2026-10-23"}

	got, err := ResolveExpirations(raw, friday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", got.TodayOrNearest)
	assert.Equal(t, "2026-10-19", got.NextFuture)
	assert.Equal(t, "2026-10-23", got.NextFriday)
}

func TestResolveExpirations_FallsBack(t *testing.T) {
	saturday := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	// Fully expired chain degrades to the last date.
	got, err := ResolveExpirations([]string{"2026-10-14", "2026-10-15"}, saturday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", got.TodayOrNearest)
	assert.Equal(t, "2026-10-15", got.NextFuture)
	assert.Equal(t, "2026-10-15", got.NextFriday)

	// No Friday available uses next-future.
	got, err = ResolveExpirations([]string{"2026-10-19", "2026-10-20"}, saturday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", got.NextFriday)
}

func TestResolveExpirations_Empty(t *testing.T) {
	_, err := ResolveExpirations(nil, time.Now())
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ResolveExpirations([]string{"not-a-date"}, time.Now())
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestDaysToExpiry(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 23:30 in New York is already the next day in UTC; the local date must be used.
	today := time.Date(2026, 10, 14, 23, 30, 0, 0, ny)

	d, err := DaysToExpiry("2026-10-14", today)
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = DaysToExpiry("2026-10-23", today)
	require.NoError(t, err)
	assert.Equal(t, 9, d)

	d, err = DaysToExpiry("2026-10-13", today)
	require.NoError(t, err)
	assert.Equal(t, -1, d)

	_, err = DaysToExpiry("bad", today)
	assert.Error(t, err)
}
