package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSymbol is returned for strings that are not OSI option symbols.
var ErrInvalidSymbol = errors.New("invalid option symbol")

// OptionSymbol holds the parts of an OSI option symbol,
// e.g. SPXW251017C05800000 = SPXW, 2025-10-17, call, 5800.
type OptionSymbol struct {
	Root       string
	Expiration time.Time
	Right      string // "C" or "P"
	Strike     float64
}

// ParseOptionSymbol parses the OSI layout: root, YYMMDD, C/P, strike x 1000 as 8 digits.
// Padding spaces inside the root and an "O:" prefix are tolerated.
func ParseOptionSymbol(symbol string) (OptionSymbol, error) {
	s := strings.TrimPrefix(strings.ReplaceAll(symbol, " ", ""), "O:")
	if len(s) < 16 {
		return OptionSymbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}

	strikePart := s[len(s)-8:]
	right := s[len(s)-9 : len(s)-8]
	datePart := s[len(s)-15 : len(s)-9]
	root := s[:len(s)-15]

	if right != "C" && right != "P" {
		return OptionSymbol{}, fmt.Errorf("%w: bad right in %q", ErrInvalidSymbol, symbol)
	}

	milli, err := strconv.ParseInt(strikePart, 10, 64)
	if err != nil || milli < 0 {
		return OptionSymbol{}, fmt.Errorf("%w: bad strike in %q", ErrInvalidSymbol, symbol)
	}

	exp, err := time.Parse("060102", datePart)
	if err != nil {
		return OptionSymbol{}, fmt.Errorf("%w: bad date in %q", ErrInvalidSymbol, symbol)
	}

	return OptionSymbol{
		Root:       root,
		Expiration: exp,
		Right:      right,
		Strike:     float64(milli) / 1000,
	}, nil
}

// StrikeFromSymbol extracts only the strike price.
func StrikeFromSymbol(symbol string) (float64, error) {
	parsed, err := ParseOptionSymbol(symbol)
	if err != nil {
		return 0, err
	}
	return parsed.Strike, nil
}

// FormatOptionSymbol is the inverse of ParseOptionSymbol.
func FormatOptionSymbol(o OptionSymbol) string {
	return fmt.Sprintf("%s%s%s%08d", o.Root, o.Expiration.Format("060102"), o.Right, int64(o.Strike*1000+0.5))
}
