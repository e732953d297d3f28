package config

import "sort"

// InstrumentType is the upstream instrument class of an underlying.
type InstrumentType string

const (
	InstrumentIndex  InstrumentType = "INDEX"
	InstrumentEquity InstrumentType = "EQUITY"
)

// Expiry selection modes
const (
	ExpiryModeDTE    = "dte"
	ExpiryModeFriday = "friday"
)

// Instruments lists every supported underlying and its instrument type
var Instruments = map[string]InstrumentType{
	"SPX": InstrumentIndex,
	"NDX": InstrumentIndex,
	"RUT": InstrumentIndex,
	"SPY": InstrumentEquity,
	"QQQ": InstrumentEquity,
	"IWM": InstrumentEquity,
}

var ValidExpiryModes = map[string]bool{
	ExpiryModeDTE:    true,
	ExpiryModeFriday: true,
}

var ValidDTEs = map[int]bool{0: true, 1: true}

// Symbols returns the supported underlyings, sorted.
func Symbols() []string {
	out := make([]string, 0, len(Instruments))
	for s := range Instruments {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
