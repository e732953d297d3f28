package chain

// Merge combines the call and put legs of one expiration into a strike table.
// Legs whose symbol does not carry a parseable strike are skipped. Fields from a side
// that has no leg at a strike stay nil.
func Merge(calls, puts []Leg) *Table {
	byStrike := make(map[float64]*StrikeRow)
	order := make([]float64, 0, len(calls)+len(puts))

	row := func(strike float64) *StrikeRow {
		r, ok := byStrike[strike]
		if !ok {
			r = &StrikeRow{Strike: strike}
			byStrike[strike] = r
			order = append(order, strike)
		}
		return r
	}

	for _, leg := range calls {
		strike, err := StrikeFromSymbol(leg.Symbol)
		if err != nil {
			continue
		}
		r := row(strike)
		r.CallBid = leg.Bid
		r.CallAsk = leg.Ask
		r.CallVolume = leg.Volume
		r.CallOpenInterest = leg.OpenInterest
	}

	for _, leg := range puts {
		strike, err := StrikeFromSymbol(leg.Symbol)
		if err != nil {
			continue
		}
		r := row(strike)
		r.PutBid = leg.Bid
		r.PutAsk = leg.Ask
		r.PutVolume = leg.Volume
		r.PutOpenInterest = leg.OpenInterest
	}

	rows := make([]StrikeRow, 0, len(order))
	for _, s := range order {
		rows = append(rows, *byStrike[s])
	}
	return NewTable(rows)
}
