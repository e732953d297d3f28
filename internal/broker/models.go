package broker

import (
	"github.com/shopspring/decimal"

	"github.com/dgnsrekt/chainview/internal/chain"
)

// Instrument identifies an upstream security.
type Instrument struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
}

type tokenRequest struct {
	ValidityInMinutes int    `json:"validityInMinutes"`
	Secret            string `json:"secret"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
}

func (r tokenResponse) value() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

type accountsResponse struct {
	Accounts []struct {
		AccountID   string `json:"accountId"`
		AccountType string `json:"accountType"`
	} `json:"accounts"`
}

type quotesRequest struct {
	Instruments []Instrument `json:"instruments"`
}

type quotesResponse struct {
	Quotes []struct {
		Instrument Instrument          `json:"instrument"`
		Outcome    string              `json:"outcome"`
		Last       decimal.NullDecimal `json:"last"`
	} `json:"quotes"`
}

type expirationsRequest struct {
	Instrument Instrument `json:"instrument"`
}

type expirationsResponse struct {
	BaseSymbol  string   `json:"baseSymbol"`
	Expirations []string `json:"expirations"`
}

type chainRequest struct {
	Instrument     Instrument `json:"instrument"`
	ExpirationDate string     `json:"expirationDate"`
}

type chainResponse struct {
	BaseSymbol string        `json:"baseSymbol"`
	Calls      []optionQuote `json:"calls"`
	Puts       []optionQuote `json:"puts"`
}

// Prices and counts arrive as numbers or numeric strings.
type optionQuote struct {
	Instrument   Instrument          `json:"instrument"`
	Bid          decimal.NullDecimal `json:"bid"`
	Ask          decimal.NullDecimal `json:"ask"`
	Volume       decimal.NullDecimal `json:"volume"`
	OpenInterest decimal.NullDecimal `json:"openInterest"`
}

func (q optionQuote) leg() chain.Leg {
	return chain.Leg{
		Symbol:       q.Instrument.Symbol,
		Bid:          price(q.Bid),
		Ask:          price(q.Ask),
		Volume:       count(q.Volume),
		OpenInterest: count(q.OpenInterest),
	}
}

func legs(qs []optionQuote) []chain.Leg {
	out := make([]chain.Leg, len(qs))
	for i, q := range qs {
		out[i] = q.leg()
	}
	return out
}

func price(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.InexactFloat64()
	return &v
}

func count(d decimal.NullDecimal) *int64 {
	if !d.Valid {
		return nil
	}
	v := d.Decimal.IntPart()
	return &v
}
