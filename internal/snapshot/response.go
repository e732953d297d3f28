package snapshot

import (
	"time"

	"github.com/dgnsrekt/chainview/internal/analytics"
	"github.com/dgnsrekt/chainview/internal/chain"
	"github.com/dgnsrekt/chainview/internal/series"
)

// StrikeView is a windowed strike, optionally annotated with volume deltas.
type StrikeView struct {
	chain.StrikeRow
	DeltaCall *int64 `json:"delta_call,omitempty"`
	DeltaPut  *int64 `json:"delta_put,omitempty"`
}

// DeltaOverlay describes the mark_last_min comparison. Available is false when
// the series had no earlier entry to compare against.
type DeltaOverlay struct {
	Minutes            int        `json:"minutes"`
	Available          bool       `json:"available"`
	ReferenceTimestamp *time.Time `json:"reference_timestamp"`
}

// Response is the full dashboard payload. Expected move fields are omitted
// when the move is undefined.
type Response struct {
	Symbol              string        `json:"symbol"`
	InstrumentType      string        `json:"instrument_type"`
	DTE                 int           `json:"dte"`
	ExpiryMode          string        `json:"expiry_mode"`
	Expiration          string        `json:"expiration"`
	DaysToExpiry        int           `json:"days_to_expiry"`
	StrikeWindowSize    int           `json:"strike_window_size"`
	Expirations         chain.Targets `json:"expirations"`
	SymbolPrice         *float64      `json:"symbol_price"`
	Timestamp           time.Time     `json:"timestamp"`
	QuoteTimestamp      time.Time     `json:"quote_timestamp"`
	ChainTimestamp      time.Time     `json:"chain_timestamp"`
	QuoteRefreshSeconds float64       `json:"quote_refresh_seconds"`
	ChainRefreshSeconds float64       `json:"chain_refresh_seconds"`
	MarketDay           bool          `json:"market_day"`

	Strikes      []StrikeView  `json:"strikes"`
	DeltaOverlay *DeltaOverlay `json:"delta_overlay,omitempty"`

	*analytics.ExpectedMove

	HotStrikesCall               []series.HotStrike `json:"hot_strikes_call"`
	HotStrikesPut                []series.HotStrike `json:"hot_strikes_put"`
	HotStrikesReferenceTimestamp *time.Time         `json:"hot_strikes_reference_timestamp"`

	SpreadScanner analytics.SpreadScan `json:"spread_scanner"`
}
