package warmer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/snapshot"
)

type fakeBuilder struct {
	mu   sync.Mutex
	reqs []snapshot.Request
	fail map[string]bool
}

func (f *fakeBuilder) Build(ctx context.Context, req snapshot.Request) (*snapshot.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.fail[req.Symbol] {
		return nil, fmt.Errorf("fetching quote: %w: %w", snapshot.ErrUpstreamUnavailable, errors.New("boom"))
	}
	return &snapshot.Response{Symbol: req.Symbol, Expiration: "2026-10-14"}, nil
}

func (f *fakeBuilder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type staticCalendar bool

func (c staticCalendar) IsMarketDay(time.Time) bool { return bool(c) }

func testKeys(t *testing.T) []config.WarmKey {
	t.Helper()
	keys, err := config.ParseWarmKeys([]string{"SPX:dte:0", "QQQ:friday:0", "SPY:dte:1"})
	if err != nil {
		t.Fatalf("ParseWarmKeys: %v", err)
	}
	return keys
}

func TestTick_BuildsEveryKey(t *testing.T) {
	b := &fakeBuilder{}
	w := New(b, staticCalendar(true), testKeys(t), time.Minute, zap.NewNop())

	if got := w.Tick(context.Background()); got != 3 {
		t.Errorf("expected 3 warmed keys, got %d", got)
	}
	want := []snapshot.Request{
		{Symbol: "SPX", ExpiryMode: "dte", DTE: 0},
		{Symbol: "QQQ", ExpiryMode: "friday", DTE: 0},
		{Symbol: "SPY", ExpiryMode: "dte", DTE: 1},
	}
	if !reflect.DeepEqual(b.reqs, want) {
		t.Errorf("expected %+v, got %+v", want, b.reqs)
	}
}

func TestTick_SkipsClosedMarket(t *testing.T) {
	b := &fakeBuilder{}
	w := New(b, staticCalendar(false), testKeys(t), time.Minute, zap.NewNop())

	if got := w.Tick(context.Background()); got != 0 {
		t.Errorf("expected 0 warmed keys, got %d", got)
	}
	if n := b.count(); n != 0 {
		t.Errorf("expected no builds on a closed market, got %d", n)
	}
}

func TestTick_ContinuesPastFailures(t *testing.T) {
	b := &fakeBuilder{fail: map[string]bool{"QQQ": true}}
	w := New(b, staticCalendar(true), testKeys(t), time.Minute, zap.NewNop())

	if got := w.Tick(context.Background()); got != 2 {
		t.Errorf("expected 2 warmed keys, got %d", got)
	}
	if n := b.count(); n != 3 {
		t.Errorf("expected every key attempted, got %d", n)
	}
}

func TestTick_StopsOnCancel(t *testing.T) {
	b := &fakeBuilder{}
	w := New(b, staticCalendar(true), testKeys(t), time.Minute, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := w.Tick(ctx); got != 0 {
		t.Errorf("expected 0 warmed keys, got %d", got)
	}
	if n := b.count(); n != 0 {
		t.Errorf("expected no builds after cancel, got %d", n)
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	b := &fakeBuilder{}
	w := New(b, staticCalendar(true), testKeys(t)[:1], 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for b.count() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 ticks, got %d", b.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("warmer did not stop")
	}
}
