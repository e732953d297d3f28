// Package snapshot builds the dashboard view for one (symbol, expiry selection):
// cached upstream fetches, the strike window, the per-key snapshot series and
// every derived analytic.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainview/internal/analytics"
	"github.com/dgnsrekt/chainview/internal/broker"
	"github.com/dgnsrekt/chainview/internal/cache"
	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/metrics"
	"github.com/dgnsrekt/chainview/internal/series"
)

// MarketData is the brokerage collaborator. *broker.HTTPClient satisfies it.
type MarketData interface {
	ListAccounts(ctx context.Context) ([]string, error)
	GetQuote(ctx context.Context, accountID, symbol, instrumentType string) (*float64, error)
	GetExpirations(ctx context.Context, accountID, symbol, instrumentType string) ([]string, error)
	GetChain(ctx context.Context, accountID, symbol, instrumentType, expiration string) (calls, puts []chain.Leg, err error)
}

// MarketCalendar reports trading days. *market.Calendar satisfies it.
type MarketCalendar interface {
	IsMarketDay(t time.Time) bool
}

// Options tunes an Engine. Zero values fall back to the documented defaults.
type Options struct {
	AccountID string

	QuoteTTL       time.Duration
	ChainTTL       time.Duration
	ExpirationsTTL time.Duration

	Retention time.Duration
	Capacity  int

	HotLookback time.Duration
	HotTop      int

	Location *time.Location
	Calendar MarketCalendar
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

func (o *Options) defaults() {
	if o.QuoteTTL <= 0 {
		o.QuoteTTL = 10 * time.Second
	}
	if o.ChainTTL <= 0 {
		o.ChainTTL = 60 * time.Second
	}
	if o.ExpirationsTTL <= 0 {
		o.ExpirationsTTL = 5 * time.Minute
	}
	if o.HotLookback <= 0 {
		o.HotLookback = series.DefaultHotLookback
	}
	if o.HotTop <= 0 {
		o.HotTop = series.DefaultHotTop
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Engine owns the caches and the snapshot buffer. It is safe for concurrent use.
type Engine struct {
	md     MarketData
	opts   Options
	logger *zap.Logger

	quotes      *cache.TTLCache[*float64]
	expirations *cache.TTLCache[[]string]
	chains      *cache.TTLCache[*chain.Table]
	buffer      *series.Buffer

	accountMu sync.Mutex
	accountID string
}

func New(md MarketData, opts Options, logger *zap.Logger) *Engine {
	opts.defaults()
	return &Engine{
		md:          md,
		opts:        opts,
		logger:      logger,
		quotes:      cache.New[*float64]("quote", opts.QuoteTTL, opts.Metrics),
		expirations: cache.New[[]string]("expirations", opts.ExpirationsTTL, opts.Metrics),
		chains:      cache.New[*chain.Table]("chain", opts.ChainTTL, opts.Metrics),
		buffer:      series.NewBuffer(opts.Retention, opts.Capacity),
		accountID:   opts.AccountID,
	}
}

// ChainView is the cached upstream state for one request.
type ChainView struct {
	Request        Request
	Today          time.Time
	Price          *float64
	QuoteFetchedAt time.Time
	Targets        chain.Targets
	Expiration     string
	DaysToExpiry   int
	Table          *chain.Table
	ChainFetchedAt time.Time
}

// Chain validates req and loads its quote and chain through the caches.
// It does not touch the snapshot buffer.
func (e *Engine) Chain(ctx context.Context, req Request) (*ChainView, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := e.opts.Now()
	return e.load(ctx, req, now)
}

func (e *Engine) load(ctx context.Context, req Request, now time.Time) (*ChainView, error) {
	accountID, err := e.account(ctx)
	if err != nil {
		return nil, err
	}

	symbol := req.Symbol
	instrument := string(req.InstrumentType())
	today := now.In(e.opts.Location)

	quote, fetched, err := e.quotes.Get(ctx, cache.Key(symbol), now, func(ctx context.Context) (*float64, error) {
		return e.md.GetQuote(ctx, accountID, symbol, instrument)
	})
	if err != nil {
		return nil, e.upstream("quote", symbol, err)
	}
	e.logMiss(fetched, "quote", symbol)

	rawExps, fetched, err := e.expirations.Get(ctx, cache.Key(symbol), now, func(ctx context.Context) ([]string, error) {
		return e.md.GetExpirations(ctx, accountID, symbol, instrument)
	})
	if err != nil {
		return nil, e.upstream("expirations", symbol, err)
	}
	e.logMiss(fetched, "expirations", symbol)

	targets, err := chain.ResolveExpirations(rawExps.Value, today)
	if err != nil {
		e.logger.Warn("no expirations to resolve", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("resolving expirations for %s: %w", symbol, err)
	}
	expiration := selectExpiration(targets, req)

	table, fetched, err := e.chains.Get(ctx, cache.Key(symbol, expiration), now, func(ctx context.Context) (*chain.Table, error) {
		calls, puts, err := e.md.GetChain(ctx, accountID, symbol, instrument, expiration)
		if err != nil {
			return nil, err
		}
		return chain.Merge(calls, puts), nil
	})
	if err != nil {
		return nil, e.upstream("chain", symbol, err)
	}
	e.logMiss(fetched, "chain", cache.Key(symbol, expiration))

	days, err := chain.DaysToExpiry(expiration, today)
	if err != nil {
		return nil, err
	}

	return &ChainView{
		Request:        req,
		Today:          today,
		Price:          quote.Value,
		QuoteFetchedAt: quote.FetchedAt,
		Targets:        targets,
		Expiration:     expiration,
		DaysToExpiry:   max(0, days),
		Table:          table.Value,
		ChainFetchedAt: table.FetchedAt,
	}, nil
}

// Build runs the full pipeline for req and records the chain state in the key's series.
func (e *Engine) Build(ctx context.Context, req Request) (resp *Response, err error) {
	start := time.Now()
	defer func() {
		e.opts.Metrics.ObserveBuild(time.Since(start), Kind(err))
	}()

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := e.opts.Now()
	view, err := e.load(ctx, req, now)
	if err != nil {
		return nil, err
	}

	half := chain.WindowHalfWidth(view.DaysToExpiry)
	if req.StrikeDepth > 0 {
		half = req.StrikeDepth
	}
	window := chain.Window(view.Table, view.Price, half)

	key := req.SeriesKey()
	prior := e.buffer.Append(key, series.Project(view.Table, now), now)
	e.opts.Metrics.SetBufferDepth(key.String(), e.buffer.Depth(key))

	resp = &Response{
		Symbol:              req.Symbol,
		InstrumentType:      string(req.InstrumentType()),
		DTE:                 req.DTE,
		ExpiryMode:          req.ExpiryMode,
		Expiration:          view.Expiration,
		DaysToExpiry:        view.DaysToExpiry,
		StrikeWindowSize:    half,
		Expirations:         view.Targets,
		SymbolPrice:         view.Price,
		Timestamp:           now,
		QuoteTimestamp:      view.QuoteFetchedAt,
		ChainTimestamp:      view.ChainFetchedAt,
		QuoteRefreshSeconds: e.quotes.TTL().Seconds(),
		ChainRefreshSeconds: e.chains.TTL().Seconds(),
		Strikes:             make([]StrikeView, len(window)),
		ExpectedMove:        analytics.ComputeExpectedMove(view.Table, view.Price),
		SpreadScanner:       analytics.ScanCreditSpreads(view.Table, view.Price),
	}
	if e.opts.Calendar != nil {
		resp.MarketDay = e.opts.Calendar.IsMarketDay(now)
	}
	for i, r := range window {
		resp.Strikes[i] = StrikeView{StrikeRow: r}
	}

	if req.MarkLastMin > 0 {
		resp.DeltaOverlay = overlay(resp.Strikes, prior, now, req.MarkLastMin)
	}

	resp.HotStrikesCall, resp.HotStrikesPut = []series.HotStrike{}, []series.HotStrike{}
	if ref, ok := series.Closest(prior, now.Add(-e.opts.HotLookback)); ok {
		resp.HotStrikesCall, resp.HotStrikesPut = series.HotStrikes(view.Table, ref, e.opts.HotTop)
		ts := ref.Timestamp
		resp.HotStrikesReferenceTimestamp = &ts
	}

	return resp, nil
}

// overlay annotates strikes in place with the volume change since the entry
// closest to minutes ago.
func overlay(strikes []StrikeView, prior []series.Slim, now time.Time, minutes int) *DeltaOverlay {
	o := &DeltaOverlay{Minutes: minutes}
	ref, ok := series.Closest(prior, now.Add(-time.Duration(minutes)*time.Minute))
	if !ok {
		return o
	}

	rows := make([]chain.StrikeRow, len(strikes))
	for i, s := range strikes {
		rows[i] = s.StrikeRow
	}
	deltas := series.Deltas(rows, ref)
	for i := range strikes {
		d := deltas[strikes[i].Strike]
		strikes[i].DeltaCall = &d.Call
		strikes[i].DeltaPut = &d.Put
	}

	ts := ref.Timestamp
	o.Available = true
	o.ReferenceTimestamp = &ts
	return o
}

func selectExpiration(t chain.Targets, req Request) string {
	if req.ExpiryMode == config.ExpiryModeFriday {
		return t.NextFriday
	}
	if req.DTE == 1 {
		return t.NextFuture
	}
	return t.TodayOrNearest
}

// account returns the configured account id, discovering and remembering the
// first account when none is configured.
func (e *Engine) account(ctx context.Context) (string, error) {
	e.accountMu.Lock()
	id := e.accountID
	e.accountMu.Unlock()
	if id != "" {
		return id, nil
	}

	ids, err := e.md.ListAccounts(ctx)
	if err != nil {
		return "", e.upstream("accounts", "", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, broker.ErrNoAccounts)
	}

	e.accountMu.Lock()
	defer e.accountMu.Unlock()
	if e.accountID == "" {
		e.accountID = ids[0]
		e.logger.Info("discovered account", zap.String("account_id", e.accountID))
	}
	return e.accountID, nil
}

func (e *Engine) upstream(op, symbol string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	e.logger.Warn("upstream call failed",
		zap.String("operation", op),
		zap.String("symbol", symbol),
		zap.Error(err))
	return fmt.Errorf("fetching %s: %w: %w", op, ErrUpstreamUnavailable, err)
}

func (e *Engine) logMiss(fetched bool, name, key string) {
	if fetched {
		e.logger.Debug("cache miss", zap.String("cache", name), zap.String("key", key))
	}
}

// ResetResult counts what Reset cleared.
type ResetResult struct {
	Quotes      int `json:"quotes"`
	Expirations int `json:"expirations"`
	Chains      int `json:"chains"`
	Series      int `json:"series"`
}

// Reset drops every cached fetch and every snapshot series.
func (e *Engine) Reset() ResetResult {
	r := ResetResult{
		Quotes:      e.quotes.Reset(),
		Expirations: e.expirations.Reset(),
		Chains:      e.chains.Reset(),
		Series:      e.buffer.Reset(),
	}
	e.logger.Info("caches reset",
		zap.Int("quotes", r.Quotes),
		zap.Int("expirations", r.Expirations),
		zap.Int("chains", r.Chains),
		zap.Int("series", r.Series))
	return r
}

// Depth returns the number of snapshots held for req's series.
func (e *Engine) Depth(req Request) int {
	return e.buffer.Depth(req.Normalize().SeriesKey())
}
