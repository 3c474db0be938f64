package cmrl

import "github.com/shopspring/decimal"

// Station is a metro station as listed by the stations endpoint.
type Station struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FareQuote is the per-ticket fare for an origin/destination pair.
type FareQuote struct {
	PerTicket decimal.Decimal `json:"perTicket"`
}

// Total returns the fare for n tickets.
func (q FareQuote) Total(n int) decimal.Decimal {
	return q.PerTicket.Mul(decimal.NewFromInt(int64(n)))
}

// stationsResponse is the envelope of the stations endpoint. Result is a
// pointer so an absent or null field can be told apart from an empty list.
type stationsResponse struct {
	Result *[]Station `json:"result"`
}

// fareResponse is the envelope of the fare endpoint: {"result":{"result":n}}.
type fareResponse struct {
	Result *struct {
		Result *decimal.Decimal `json:"result"`
	} `json:"result"`
}
