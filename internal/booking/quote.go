package booking

import (
	"context"

	"github.com/shopspring/decimal"
)

// Quote returns the total fare for a one-off lookup. It applies the same
// rules as the form: incomplete or identical stations and out of range
// ticket counts cost nothing and issue no request.
func Quote(ctx context.Context, source FareSource, origin, destination string, tickets int) (decimal.Decimal, error) {
	f := Form{Origin: origin, Destination: destination, NumTickets: tickets}
	if !f.quotable() {
		return decimal.Zero, nil
	}

	q, err := source.FetchFare(ctx, origin, destination, 1)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Total(tickets), nil
}
