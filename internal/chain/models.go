package chain

import "sort"

// Leg is one side (call or put) of a contract as returned by the market data API.
// Nil fields mean the upstream had no value for that leg.
type Leg struct {
	Symbol       string
	Bid          *float64
	Ask          *float64
	Volume       *int64
	OpenInterest *int64
}

// StrikeRow holds both sides of one strike for one expiration.
type StrikeRow struct {
	Strike           float64  `json:"strike"`
	CallBid          *float64 `json:"call_bid"`
	CallAsk          *float64 `json:"call_ask"`
	PutBid           *float64 `json:"put_bid"`
	PutAsk           *float64 `json:"put_ask"`
	CallVolume       *int64   `json:"call_volume"`
	PutVolume        *int64   `json:"put_volume"`
	CallOpenInterest *int64   `json:"call_open_interest"`
	PutOpenInterest  *int64   `json:"put_open_interest"`
}

// CallMid returns the call midpoint, or false when either side is missing.
func (r StrikeRow) CallMid() (float64, bool) {
	return mid(r.CallBid, r.CallAsk)
}

// PutMid returns the put midpoint, or false when either side is missing.
func (r StrikeRow) PutMid() (float64, bool) {
	return mid(r.PutBid, r.PutAsk)
}

func mid(bid, ask *float64) (float64, bool) {
	if bid == nil || ask == nil {
		return 0, false
	}
	return (*bid + *ask) / 2, true
}

// Table is the strike-indexed chain for one (symbol, expiration).
// A Table is never modified after construction; a refresh builds a new one.
type Table struct {
	rows  []StrikeRow // ascending by strike
	index map[float64]int
}

// NewTable builds a table from rows keyed by strike. Later rows win on duplicate strikes.
func NewTable(rows []StrikeRow) *Table {
	byStrike := make(map[float64]StrikeRow, len(rows))
	for _, r := range rows {
		byStrike[r.Strike] = r
	}

	t := &Table{
		rows:  make([]StrikeRow, 0, len(byStrike)),
		index: make(map[float64]int, len(byStrike)),
	}
	for _, r := range byStrike {
		t.rows = append(t.rows, r)
	}
	sort.Slice(t.rows, func(i, j int) bool { return t.rows[i].Strike < t.rows[j].Strike })
	for i, r := range t.rows {
		t.index[r.Strike] = i
	}
	return t
}

// Len returns the number of strikes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row looks up a single strike.
func (t *Table) Row(strike float64) (StrikeRow, bool) {
	if t == nil {
		return StrikeRow{}, false
	}
	i, ok := t.index[strike]
	if !ok {
		return StrikeRow{}, false
	}
	return t.rows[i], true
}

// Ascending returns a copy of the rows sorted by strike, lowest first.
func (t *Table) Ascending() []StrikeRow {
	if t == nil {
		return nil
	}
	out := make([]StrikeRow, len(t.rows))
	copy(out, t.rows)
	return out
}

// Descending returns a copy of the rows sorted by strike, highest first.
func (t *Table) Descending() []StrikeRow {
	if t == nil {
		return nil
	}
	out := make([]StrikeRow, len(t.rows))
	for i, r := range t.rows {
		out[len(t.rows)-1-i] = r
	}
	return out
}
