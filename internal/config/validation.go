package config

import (
	"fmt"
	"strconv"
	"strings"
)

// WarmKey is one (symbol, expiry mode, dte) combination kept warm in the background.
type WarmKey struct {
	Symbol     string
	ExpiryMode string
	DTE        int
}

func (k WarmKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Symbol, k.ExpiryMode, k.DTE)
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Malformed      []string
	InvalidSymbols []string
	InvalidModes   []string
	InvalidDTEs    []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Malformed) > 0 || len(e.InvalidSymbols) > 0 || len(e.InvalidModes) > 0 || len(e.InvalidDTEs) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.Malformed) > 0 {
		sb.WriteString("\nMalformed warm keys (want SYMBOL:MODE:DTE):\n")
		for _, k := range e.Malformed {
			sb.WriteString(fmt.Sprintf("  - %s\n", k))
		}
	}

	if len(e.InvalidSymbols) > 0 {
		sb.WriteString("\nInvalid symbols:\n")
		for _, s := range e.InvalidSymbols {
			sb.WriteString(fmt.Sprintf("  - %s\n", s))
		}
		sb.WriteString(fmt.Sprintf("\nValid symbols: %s\n", strings.Join(Symbols(), ", ")))
	}

	if len(e.InvalidModes) > 0 {
		sb.WriteString("\nInvalid expiry modes:\n")
		for _, m := range e.InvalidModes {
			sb.WriteString(fmt.Sprintf("  - %s\n", m))
		}
		sb.WriteString("\nValid expiry modes: dte, friday\n")
	}

	if len(e.InvalidDTEs) > 0 {
		sb.WriteString("\nInvalid dte values:\n")
		for _, d := range e.InvalidDTEs {
			sb.WriteString(fmt.Sprintf("  - %s\n", d))
		}
		sb.WriteString("\nValid dte values: 0, 1\n")
	}

	return sb.String()
}

// ParseWarmKeys parses "SYMBOL:MODE:DTE" entries, reporting every problem at once.
func ParseWarmKeys(raw []string) ([]WarmKey, error) {
	errs := &ValidationErrors{}
	keys := make([]WarmKey, 0, len(raw))

	for _, r := range raw {
		parts := strings.Split(strings.TrimSpace(r), ":")
		if len(parts) != 3 {
			errs.Malformed = append(errs.Malformed, r)
			continue
		}

		symbol := strings.ToUpper(parts[0])
		mode := strings.ToLower(parts[1])
		ok := true

		if _, known := Instruments[symbol]; !known {
			errs.InvalidSymbols = append(errs.InvalidSymbols, parts[0])
			ok = false
		}
		if !ValidExpiryModes[mode] {
			errs.InvalidModes = append(errs.InvalidModes, parts[1])
			ok = false
		}
		dte, err := strconv.Atoi(parts[2])
		if err != nil || !ValidDTEs[dte] {
			errs.InvalidDTEs = append(errs.InvalidDTEs, parts[2])
			ok = false
		}

		if ok {
			keys = append(keys, WarmKey{Symbol: symbol, ExpiryMode: mode, DTE: dte})
		}
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return keys, nil
}
