package series

import (
	"sort"
	"time"

	"github.com/dgnsrekt/chainview/internal/chain"
)

const (
	DefaultHotLookback = 5 * time.Minute
	DefaultHotTop      = 8
)

// Closest returns the entry whose timestamp is nearest to target.
// Ties go to the earlier entry in stored (oldest first) order.
func Closest(entries []Slim, target time.Time) (Slim, bool) {
	if len(entries) == 0 {
		return Slim{}, false
	}
	best := 0
	bestDist := absDuration(entries[0].Timestamp.Sub(target))
	for i := 1; i < len(entries); i++ {
		if d := absDuration(entries[i].Timestamp.Sub(target)); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return entries[best], true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// Delta is the signed volume change of one strike against a reference snapshot.
type Delta struct {
	Call int64
	Put  int64
}

// Deltas computes current - reference for each row, treating missing volumes as zero.
// Negative values are kept.
func Deltas(rows []chain.StrikeRow, ref Slim) map[float64]Delta {
	old := ref.byStrike()
	out := make(map[float64]Delta, len(rows))
	for _, r := range rows {
		prev := old[r.Strike]
		out[r.Strike] = Delta{
			Call: value(r.CallVolume) - value(prev.CallVolume),
			Put:  value(r.PutVolume) - value(prev.PutVolume),
		}
	}
	return out
}

// HotStrike is a strike whose volume increased over the look-back.
type HotStrike struct {
	Strike             float64   `json:"strike"`
	Delta              int64     `json:"delta"`
	Volume             int64     `json:"volume"`
	Bid                *float64  `json:"bid"`
	Ask                *float64  `json:"ask"`
	ReferenceTimestamp time.Time `json:"reference_timestamp"`
}

// HotStrikes ranks strikes of the full table by volume increase since ref.
// Decreases are clamped to zero and dropped. Each side is sorted by delta,
// largest first (lower strike first on equal deltas), and cut to top entries.
func HotStrikes(t *chain.Table, ref Slim, top int) (calls, puts []HotStrike) {
	old := ref.byStrike()
	calls = []HotStrike{}
	puts = []HotStrike{}

	for _, r := range t.Ascending() {
		prev := old[r.Strike]
		if d := max(0, value(r.CallVolume)-value(prev.CallVolume)); d > 0 {
			calls = append(calls, HotStrike{
				Strike: r.Strike, Delta: d, Volume: value(r.CallVolume),
				Bid: r.CallBid, Ask: r.CallAsk, ReferenceTimestamp: ref.Timestamp,
			})
		}
		if d := max(0, value(r.PutVolume)-value(prev.PutVolume)); d > 0 {
			puts = append(puts, HotStrike{
				Strike: r.Strike, Delta: d, Volume: value(r.PutVolume),
				Bid: r.PutBid, Ask: r.PutAsk, ReferenceTimestamp: ref.Timestamp,
			})
		}
	}

	return rank(calls, top), rank(puts, top)
}

func rank(hs []HotStrike, top int) []HotStrike {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Delta > hs[j].Delta })
	if top >= 0 && len(hs) > top {
		hs = hs[:top]
	}
	return hs
}

func (s Slim) byStrike() map[float64]VolumePoint {
	m := make(map[float64]VolumePoint, len(s.Points))
	for _, p := range s.Points {
		m[p.Strike] = p
	}
	return m
}

func value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
