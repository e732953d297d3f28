package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/chainview/internal/chain"
)

// CreditSpread is a short leg paired with the adjacent farther strike bought for protection.
type CreditSpread struct {
	ShortStrike float64 `json:"short_strike"`
	LongStrike  float64 `json:"long_strike"`
	Width       float64 `json:"width"`
	Distance    float64 `json:"distance"`
	BidCredit   float64 `json:"bid_credit"`
	AskCredit   float64 `json:"ask_credit"`
	MarkCredit  float64 `json:"mark_credit"`
}

// SpreadScan holds the candidates for both sides.
type SpreadScan struct {
	Calls []CreditSpread `json:"call_credit_spreads"`
	Puts  []CreditSpread `json:"put_credit_spreads"`
}

type quote struct {
	bid, ask *float64
}

// ScanCreditSpreads lists out-of-the-money credit spreads over adjacent strikes.
// Calls pair (lower, higher) with lower above price, shorting lower. Puts pair
// (lower, higher) with higher below price, shorting higher. Candidates missing
// any bid or ask, or whose mark credit is not positive, are dropped. Results are
// ordered by distance from price, then mark credit, then short strike, all descending.
func ScanCreditSpreads(t *chain.Table, price *float64) SpreadScan {
	scan := SpreadScan{Calls: []CreditSpread{}, Puts: []CreditSpread{}}
	if price == nil {
		return scan
	}
	rows := t.Ascending()
	p := *price

	for i := 0; i+1 < len(rows); i++ {
		lower, higher := rows[i], rows[i+1]
		if lower.Strike > p {
			if s, ok := candidate(p,
				lower.Strike, quote{lower.CallBid, lower.CallAsk},
				higher.Strike, quote{higher.CallBid, higher.CallAsk}); ok {
				scan.Calls = append(scan.Calls, s)
			}
		}
		if higher.Strike < p {
			if s, ok := candidate(p,
				higher.Strike, quote{higher.PutBid, higher.PutAsk},
				lower.Strike, quote{lower.PutBid, lower.PutAsk}); ok {
				scan.Puts = append(scan.Puts, s)
			}
		}
	}

	order(scan.Calls)
	order(scan.Puts)
	return scan
}

func candidate(price, shortStrike float64, short quote, longStrike float64, long quote) (CreditSpread, bool) {
	shortMid, ok1 := mid(short.bid, short.ask)
	longMid, ok2 := mid(long.bid, long.ask)
	if !ok1 || !ok2 {
		return CreditSpread{}, false
	}
	mark := shortMid.Sub(longMid)
	if !mark.IsPositive() {
		return CreditSpread{}, false
	}
	bidCredit := decimal.NewFromFloat(*short.bid).Sub(decimal.NewFromFloat(*long.ask))
	askCredit := decimal.NewFromFloat(*short.ask).Sub(decimal.NewFromFloat(*long.bid))

	return CreditSpread{
		ShortStrike: shortStrike,
		LongStrike:  longStrike,
		Width:       math.Abs(longStrike - shortStrike),
		Distance:    round(decimal.NewFromFloat(math.Abs(shortStrike - price))),
		BidCredit:   round(bidCredit),
		AskCredit:   round(askCredit),
		MarkCredit:  round(mark),
	}, true
}

func order(spreads []CreditSpread) {
	sort.SliceStable(spreads, func(i, j int) bool {
		a, b := spreads[i], spreads[j]
		if a.Distance != b.Distance {
			return a.Distance > b.Distance
		}
		if a.MarkCredit != b.MarkCredit {
			return a.MarkCredit > b.MarkCredit
		}
		return a.ShortStrike > b.ShortStrike
	})
}

// FilterMarkAbove keeps spreads whose mark credit is at least threshold.
func FilterMarkAbove(spreads []CreditSpread, threshold float64) []CreditSpread {
	out := make([]CreditSpread, 0, len(spreads))
	for _, s := range spreads {
		if s.MarkCredit >= threshold {
			out = append(out, s)
		}
	}
	return out
}
