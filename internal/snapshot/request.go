package snapshot

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/chainview/internal/config"
	"github.com/dgnsrekt/chainview/internal/series"
)

// MaxStrikeDepth bounds a requested window half-width.
const MaxStrikeDepth = 100

// Request selects one (symbol, expiry selection) view.
// MarkLastMin > 0 asks for a volume delta overlay against the state that many minutes ago.
// StrikeDepth > 0 replaces the days-to-expiry window half-width.
type Request struct {
	Symbol      string
	ExpiryMode  string
	DTE         int
	MarkLastMin int
	StrikeDepth int
}

// DefaultRequest is what the dashboard asks for with no query parameters.
func DefaultRequest() Request {
	return Request{Symbol: "SPX", ExpiryMode: config.ExpiryModeDTE, DTE: 0}
}

// Normalize upper-cases the symbol and lower-cases the mode.
func (r Request) Normalize() Request {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.ExpiryMode = strings.ToLower(strings.TrimSpace(r.ExpiryMode))
	return r
}

// Validate checks the request against the supported whitelist.
func (r Request) Validate() error {
	if _, ok := config.Instruments[r.Symbol]; !ok {
		return fmt.Errorf("%w: unsupported symbol %q (supported: %s)",
			ErrInvalidParameter, r.Symbol, strings.Join(config.Symbols(), ", "))
	}
	if !config.ValidExpiryModes[r.ExpiryMode] {
		return fmt.Errorf("%w: expiry_mode must be dte or friday, got %q", ErrInvalidParameter, r.ExpiryMode)
	}
	if !config.ValidDTEs[r.DTE] {
		return fmt.Errorf("%w: dte must be 0 or 1, got %d", ErrInvalidParameter, r.DTE)
	}
	if r.MarkLastMin < 0 {
		return fmt.Errorf("%w: mark_last_min must not be negative, got %d", ErrInvalidParameter, r.MarkLastMin)
	}
	if r.StrikeDepth < 0 || r.StrikeDepth > MaxStrikeDepth {
		return fmt.Errorf("%w: strike_depth must be between 0 and %d, got %d", ErrInvalidParameter, MaxStrikeDepth, r.StrikeDepth)
	}
	return nil
}

// InstrumentType returns the upstream instrument class of the symbol.
func (r Request) InstrumentType() config.InstrumentType {
	return config.Instruments[r.Symbol]
}

// SeriesKey identifies the ring buffer series for this request.
func (r Request) SeriesKey() series.Key {
	return series.Key{Symbol: r.Symbol, ExpiryMode: r.ExpiryMode, DTE: r.DTE}
}
