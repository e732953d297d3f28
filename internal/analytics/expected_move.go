// Package analytics derives point-in-time figures from a chain table:
// the at-the-money straddle expected move, credit spread candidates and
// volume leaders.
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/chainview/internal/chain"
)

// Precision is the number of decimal places kept on monetary outputs.
const Precision = 4

// ExpectedMove is the at-the-money straddle approximation of a one-period range.
type ExpectedMove struct {
	Strike  float64 `json:"expected_move_strike"`
	CallMid float64 `json:"expected_move_call_mid"`
	PutMid  float64 `json:"expected_move_put_mid"`
	Move    float64 `json:"expected_move"`
	Low     float64 `json:"expected_move_low"`
	High    float64 `json:"expected_move_high"`
}

// ComputeExpectedMove returns nil when price is unknown, the table is empty,
// or either mid at the ATM strike is undefined.
func ComputeExpectedMove(t *chain.Table, price *float64) *ExpectedMove {
	if price == nil {
		return nil
	}
	row, ok := atmAscending(t.Ascending(), *price)
	if !ok {
		return nil
	}
	callMid, okCall := mid(row.CallBid, row.CallAsk)
	putMid, okPut := mid(row.PutBid, row.PutAsk)
	if !okCall || !okPut {
		return nil
	}

	p := decimal.NewFromFloat(*price)
	move := callMid.Add(putMid)
	return &ExpectedMove{
		Strike:  row.Strike,
		CallMid: round(callMid),
		PutMid:  round(putMid),
		Move:    round(move),
		Low:     round(p.Sub(move)),
		High:    round(p.Add(move)),
	}
}

// atmAscending picks the strike nearest price scanning ascending; the lowest
// strike wins ties.
func atmAscending(rows []chain.StrikeRow, price float64) (chain.StrikeRow, bool) {
	if len(rows) == 0 {
		return chain.StrikeRow{}, false
	}
	best := 0
	bestDiff := math.Abs(rows[0].Strike - price)
	for i := 1; i < len(rows); i++ {
		if d := math.Abs(rows[i].Strike - price); d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return rows[best], true
}

func mid(bid, ask *float64) (decimal.Decimal, bool) {
	if bid == nil || ask == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*bid).Add(decimal.NewFromFloat(*ask)).Div(decimal.NewFromInt(2)), true
}

func round(d decimal.Decimal) float64 {
	return d.Round(Precision).InexactFloat64()
}
