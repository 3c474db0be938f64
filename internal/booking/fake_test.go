package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danpilch/metroticket/internal/api/cmrl"
)

var errUnreachable = &cmrl.NetworkError{Op: "fetching", Err: errors.New("connection refused")}

type fareCall struct {
	origin, destination string
	tickets             int
}

// fakeSource serves canned stations and fares. A fare request for a pair in
// gates blocks until the gate channel is closed.
type fakeSource struct {
	stations    []cmrl.Station
	stationsErr error
	fares       map[string]string
	fareErr     error
	gates       map[string]chan struct{}

	mu    sync.Mutex
	calls []fareCall
}

func pair(origin, destination string) string { return origin + "->" + destination }

func (f *fakeSource) FetchStations(ctx context.Context) ([]cmrl.Station, error) {
	if f.stationsErr != nil {
		return nil, f.stationsErr
	}
	return f.stations, nil
}

func (f *fakeSource) FetchFare(ctx context.Context, origin, destination string, tickets int) (*cmrl.FareQuote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fareCall{origin, destination, tickets})
	gate := f.gates[pair(origin, destination)]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if f.fareErr != nil {
		return nil, f.fareErr
	}
	fare, ok := f.fares[pair(origin, destination)]
	if !ok {
		return nil, &cmrl.MalformedResponseError{Op: "fetching fare", Reason: "missing result"}
	}
	return &cmrl.FareQuote{PerTicket: decimal.RequireFromString(fare)}, nil
}

func (f *fakeSource) fareCalls() []fareCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fareCall(nil), f.calls...)
}

var fixedNow = time.Date(2026, time.October, 17, 15, 30, 0, 0, time.UTC)

func newNullLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

func newTestController(t *testing.T, src *fakeSource) (*Controller, *test.Hook) {
	t.Helper()
	logger, hook := newNullLogger()
	c := NewController(src, logger,
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.UTC),
	)
	return c, hook
}

func alphaBeta() *fakeSource {
	return &fakeSource{
		stations: []cmrl.Station{{Code: "A", Name: "Alpha"}, {Code: "B", Name: "Beta"}},
		fares:    map[string]string{pair("A", "B"): "20.00"},
	}
}
