package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/series"
)

func f(v float64) *float64 { return &v }
func n(v int64) *int64     { return &v }

func TestComputeExpectedMove_Straddle(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 4990, CallBid: f(15), CallAsk: f(16), PutBid: f(5), PutAsk: f(6)},
		{Strike: 5000, CallBid: f(10), CallAsk: f(12), PutBid: f(9), PutAsk: f(11)},
		{Strike: 5010, CallBid: f(6), CallAsk: f(7), PutBid: f(14), PutAsk: f(15)},
	})

	em := ComputeExpectedMove(table, f(5000))
	require.NotNil(t, em)
	assert.Equal(t, 5000.0, em.Strike)
	assert.Equal(t, 11.0, em.CallMid)
	assert.Equal(t, 10.0, em.PutMid)
	assert.Equal(t, 21.0, em.Move)
	assert.Equal(t, 4979.0, em.Low)
	assert.Equal(t, 5021.0, em.High)
}

func TestComputeExpectedMove_TieGoesToLowestStrike(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallBid: f(10), CallAsk: f(12), PutBid: f(9), PutAsk: f(11)},
		{Strike: 5010, CallBid: f(6), CallAsk: f(7), PutBid: f(14), PutAsk: f(15)},
	})

	em := ComputeExpectedMove(table, f(5005))
	require.NotNil(t, em)
	assert.Equal(t, 5000.0, em.Strike)

	// The window selector breaks the same tie toward the higher strike.
	w := chain.Window(table, f(5005), 0)
	require.Len(t, w, 1)
	assert.Equal(t, 5010.0, w[0].Strike)
}

func TestComputeExpectedMove_Omitted(t *testing.T) {
	full := chain.StrikeRow{Strike: 5000, CallBid: f(10), CallAsk: f(12), PutBid: f(9), PutAsk: f(11)}
	noPutAsk := full
	noPutAsk.PutAsk = nil

	tests := []struct {
		name  string
		rows  []chain.StrikeRow
		price *float64
	}{
		{"no price", []chain.StrikeRow{full}, nil},
		{"empty table", nil, f(5000)},
		{"missing put ask", []chain.StrikeRow{noPutAsk}, f(5000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ComputeExpectedMove(chain.NewTable(tt.rows), tt.price))
		})
	}
}

func TestScanCreditSpreads_CallsAboveThePrice(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallBid: f(8), CallAsk: f(9)},
		{Strike: 5010, CallBid: f(4), CallAsk: f(5)},
		// mid 5.5 at 5020 exceeds mid 4.5 at 5010: no credit
		{Strike: 5020, CallBid: f(5), CallAsk: f(6)},
	})

	scan := ScanCreditSpreads(table, f(4995))
	require.Len(t, scan.Calls, 1)
	s := scan.Calls[0]
	assert.Equal(t, 5000.0, s.ShortStrike)
	assert.Equal(t, 5010.0, s.LongStrike)
	assert.Equal(t, 10.0, s.Width)
	assert.Equal(t, 5.0, s.Distance)
	assert.Equal(t, 3.0, s.BidCredit)
	assert.Equal(t, 5.0, s.AskCredit)
	assert.Equal(t, 4.0, s.MarkCredit)

	for _, c := range scan.Calls {
		assert.Greater(t, c.MarkCredit, 0.0)
	}
	assert.Empty(t, scan.Puts)
	assert.NotNil(t, scan.Puts)
}

func TestScanCreditSpreads_PutsBelowThePrice(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 4980, PutBid: f(1.1), PutAsk: f(1.3)},
		{Strike: 4990, PutBid: f(2.2), PutAsk: f(2.4)},
		{Strike: 5000, PutBid: f(4), PutAsk: f(4.4)},
		{Strike: 5010, PutBid: f(9), PutAsk: f(10)},
	})

	scan := ScanCreditSpreads(table, f(5005))
	require.Len(t, scan.Puts, 2)

	far := scan.Puts[0]
	assert.Equal(t, 4990.0, far.ShortStrike)
	assert.Equal(t, 4980.0, far.LongStrike)
	assert.Equal(t, 15.0, far.Distance)
	assert.Equal(t, 1.1, far.MarkCredit)
	assert.Equal(t, 0.9, far.BidCredit)
	assert.Equal(t, 1.3, far.AskCredit)

	near := scan.Puts[1]
	assert.Equal(t, 5000.0, near.ShortStrike)
	assert.Equal(t, 5.0, near.Distance)

	// No call pair has its lower strike above 5005.
	assert.Empty(t, scan.Calls)
}

func TestScanCreditSpreads_DropsIncompleteLegs(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallBid: f(8), CallAsk: f(9)},
		{Strike: 5010, CallBid: f(4)},
		{Strike: 5020, CallBid: f(2), CallAsk: f(3)},
	})
	scan := ScanCreditSpreads(table, f(4995))
	assert.Empty(t, scan.Calls)
}

func TestScanCreditSpreads_OrderingTieBreaks(t *testing.T) {
	rows := []chain.StrikeRow{
		{Strike: 5000, CallBid: f(6), CallAsk: f(6)},
		{Strike: 5010, CallBid: f(5), CallAsk: f(5)},
		{Strike: 5020, CallBid: f(3), CallAsk: f(3)},
	}
	scan := ScanCreditSpreads(chain.NewTable(rows), f(4990))
	require.Len(t, scan.Calls, 2)
	// Farther short strike first regardless of credit.
	assert.Equal(t, 5010.0, scan.Calls[0].ShortStrike)
	assert.Equal(t, 5000.0, scan.Calls[1].ShortStrike)

	assert.Empty(t, ScanCreditSpreads(chain.NewTable(rows), nil).Calls)
}

func TestFilterMarkAbove(t *testing.T) {
	in := []CreditSpread{{ShortStrike: 1, MarkCredit: 0.1}, {ShortStrike: 2, MarkCredit: 0.2}, {ShortStrike: 3, MarkCredit: 0.5}}
	out := FilterMarkAbove(in, 0.2)
	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[0].ShortStrike)
}

func TestVolumeLeaders(t *testing.T) {
	table := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallVolume: n(300), PutVolume: n(50)},
		{Strike: 5010, CallVolume: n(120), PutVolume: n(900)},
		{Strike: 5020},
	})

	got := VolumeLeaders(table, 3)
	require.Len(t, got, 3)
	assert.Equal(t, Leader{Strike: 5010, Side: Put, Value: 900}, got[0])
	assert.Equal(t, Leader{Strike: 5000, Side: Call, Value: 300}, got[1])
	assert.Equal(t, int64(120), got[2].Value)
}

func TestDeltaLeaders(t *testing.T) {
	ts := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	calls := []series.HotStrike{{Strike: 5000, Delta: 30, ReferenceTimestamp: ts}}
	puts := []series.HotStrike{{Strike: 4990, Delta: 45}, {Strike: 4980, Delta: 2}}

	got := DeltaLeaders(calls, puts, 2)
	require.Len(t, got, 2)
	assert.Equal(t, Put, got[0].Side)
	assert.Equal(t, int64(45), got[0].Value)
	assert.Equal(t, Call, got[1].Side)
}
