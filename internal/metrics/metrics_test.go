package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheHit("quote")
	m.CacheHit("quote")
	m.CacheMiss("chain")
	m.ObserveUpstream("chain", 120*time.Millisecond, nil)
	m.ObserveUpstream("chain", time.Second, errors.New("boom"))
	m.ObserveBuild(50*time.Millisecond, "upstream")
	m.SetBufferDepth("SPX/dte/0", 7)

	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("quote")); got != 2 {
		t.Errorf("expected 2 quote hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.CacheMisses.WithLabelValues("chain")); got != 1 {
		t.Errorf("expected 1 chain miss, got %v", got)
	}
	if got := testutil.ToFloat64(m.UpstreamErrors.WithLabelValues("chain")); got != 1 {
		t.Errorf("expected 1 upstream error, got %v", got)
	}
	if got := testutil.ToFloat64(m.BuildErrors.WithLabelValues("upstream")); got != 1 {
		t.Errorf("expected 1 build error, got %v", got)
	}
	if got := testutil.ToFloat64(m.BufferDepth.WithLabelValues("SPX/dte/0")); got != 7 {
		t.Errorf("expected depth 7, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.CacheHit("quote")
	m.CacheMiss("quote")
	m.ObserveUpstream("quote", time.Second, nil)
	m.ObserveBuild(time.Second, "")
	m.SetBufferDepth("k", 1)
}
