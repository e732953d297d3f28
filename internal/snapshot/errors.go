package snapshot

import (
	"errors"

	"github.com/dgnsrekt/chainview/internal/chain"
)

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrEmptyInput is the resolver's sentinel so errors.Is matches either name.
	ErrEmptyInput = chain.ErrEmptyInput
)

// Kind names the error class for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "internal"
	}
}
