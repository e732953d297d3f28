package analytics

import (
	"sort"

	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/series"
)

// Side of an option leg.
type Side string

const (
	Call Side = "call"
	Put  Side = "put"
)

// Leader is one leg ranked by traded volume or by volume increase.
type Leader struct {
	Strike float64
	Side   Side
	Value  int64
	Bid    *float64
	Ask    *float64
}

// VolumeLeaders ranks every call and put leg by current volume, largest first.
// Missing volume counts as zero.
func VolumeLeaders(t *chain.Table, top int) []Leader {
	var out []Leader
	for _, r := range t.Ascending() {
		out = append(out,
			Leader{Strike: r.Strike, Side: Call, Value: deref(r.CallVolume), Bid: r.CallBid, Ask: r.CallAsk},
			Leader{Strike: r.Strike, Side: Put, Value: deref(r.PutVolume), Bid: r.PutBid, Ask: r.PutAsk},
		)
	}
	return cut(out, top)
}

// DeltaLeaders merges both sides of a hot-strike ranking into one list.
func DeltaLeaders(calls, puts []series.HotStrike, top int) []Leader {
	out := make([]Leader, 0, len(calls)+len(puts))
	for _, h := range calls {
		out = append(out, Leader{Strike: h.Strike, Side: Call, Value: h.Delta, Bid: h.Bid, Ask: h.Ask})
	}
	for _, h := range puts {
		out = append(out, Leader{Strike: h.Strike, Side: Put, Value: h.Delta, Bid: h.Bid, Ask: h.Ask})
	}
	return cut(out, top)
}

func cut(ls []Leader, top int) []Leader {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Value > ls[j].Value })
	if top >= 0 && len(ls) > top {
		ls = ls[:top]
	}
	return ls
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
