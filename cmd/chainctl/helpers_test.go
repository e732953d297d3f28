package main

import (
	"testing"
	"time"

	"github.com/dgnsrekt/chainview/internal/analytics"
	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/series"
)

func i64(v int64) *int64 { return &v }

func TestThousands(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		if got := thousands(in); got != want {
			t.Errorf("thousands(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{strikeLabel(5000), "5000"},
		{strikeLabel(402.5), "402.5"},
		{money(1.249), "$1.25"},
		{optMoney(nil), "--"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestVolumeIncrease(t *testing.T) {
	key := series.Key{Symbol: "SPX", ExpiryMode: "dte", DTE: 0}
	start := time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC)
	wait := 5 * time.Minute

	before := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallVolume: i64(100), PutVolume: i64(50)},
		{Strike: 5010, CallVolume: i64(10), PutVolume: i64(0)},
	})
	after := chain.NewTable([]chain.StrikeRow{
		{Strike: 5000, CallVolume: i64(130), PutVolume: i64(45)},
		{Strike: 5010, CallVolume: i64(60), PutVolume: i64(5)},
	})

	leaders := volumeIncrease(key, series.Project(before, start), after, start.Add(wait), wait, 20)
	want := []analytics.Leader{
		{Strike: 5010, Side: analytics.Call, Value: 50},
		{Strike: 5000, Side: analytics.Call, Value: 30},
		{Strike: 5010, Side: analytics.Put, Value: 5},
	}
	if len(leaders) != len(want) {
		t.Fatalf("expected %d leaders, got %d: %+v", len(want), len(leaders), leaders)
	}
	for i := range want {
		if leaders[i] != want[i] {
			t.Errorf("leader %d: expected %+v, got %+v", i, want[i], leaders[i])
		}
	}

	if top := volumeIncrease(key, series.Project(before, start), after, start.Add(wait), wait, 2); len(top) != 2 {
		t.Errorf("expected top 2, got %d", len(top))
	}
}
