package booking

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/api/cmrl"
)

// FareSource is the remote side of the form. *cmrl.Client implements it.
type FareSource interface {
	FetchStations(ctx context.Context) ([]cmrl.Station, error)
	FetchFare(ctx context.Context, origin, destination string, tickets int) (*cmrl.FareQuote, error)
}

type Option func(*Controller)

// WithClock overrides time.Now, which decides the earliest bookable date.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(c *Controller) { c.loc = loc }
}

func WithAgency(agency string) Option {
	return func(c *Controller) { c.agency = agency }
}

func WithCurrency(symbol string) Option {
	return func(c *Controller) { c.currency = symbol }
}

// Controller owns the booking form. Every edit recomputes the displayed fare;
// fare and station fetches run in the background and are applied when they
// complete. Only the response to the most recently issued fare request is
// applied.
type Controller struct {
	source   FareSource
	logger   *logrus.Logger
	now      func() time.Time
	loc      *time.Location
	agency   string
	currency string
	check    *formValidator

	mu        sync.Mutex
	ctx       context.Context
	form      Form
	stations  []cmrl.Station
	fare      decimal.Decimal
	fareSeq   uint64
	touched   map[Field]bool
	summary   *Summary
	notice    string
	listeners []func(decimal.Decimal)

	// pending holds fare writes not yet delivered to listeners, in write
	// order. At most one goroutine drains it at a time.
	pending  []decimal.Decimal
	draining bool

	wg sync.WaitGroup
}

// NewController returns a controller with the default form: no stations
// selected, one ticket and the earliest bookable date.
func NewController(source FareSource, logger *logrus.Logger, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		logger:   logger,
		now:      time.Now,
		loc:      time.Local,
		agency:   "CMRL",
		currency: "₹",
		ctx:      context.Background(),
		fare:     decimal.Zero,
		touched:  make(map[Field]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.check = mustFormValidator(c.MinDate)
	c.form = Form{
		EventDate:  c.MinDate(),
		NumTickets: MinTickets,
	}
	return c
}

// MinDate is the earliest bookable date: today plus MinAdvanceDays.
func (c *Controller) MinDate() time.Time {
	today := dateOf(c.now().In(c.loc), c.loc)
	return today.AddDate(0, 0, MinAdvanceDays)
}

// Start requests the station list. ctx is used for this and every later fetch.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loadStations(ctx)
}

// Wait blocks until every fetch issued so far has been applied or dropped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// OnFareChange registers fn to be called after every write of the displayed fare.
func (c *Controller) OnFareChange(fn func(decimal.Decimal)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) loadStations(ctx context.Context) {
	defer c.wg.Done()

	stations, err := c.source.FetchStations(ctx)
	if err != nil {
		c.logger.WithField("error", err).Warn("failed to load stations, continuing with none")
		return
	}

	c.logger.WithField("count", len(stations)).Debug("stations loaded")

	c.mu.Lock()
	c.stations = stations
	emit := c.recalculateLocked()
	c.mu.Unlock()
	emit()
}

func (c *Controller) SetOrigin(code string) {
	c.edit(func(f *Form) bool { f.Origin = code; return true })
}

func (c *Controller) SetDestination(code string) {
	c.edit(func(f *Form) bool { f.Destination = code; return true })
}

func (c *Controller) SetMobileNumber(mobile string) {
	c.edit(func(f *Form) bool { f.MobileNumber = mobile; return true })
}

// SetEventDate stores the calendar day of d; the time of day is dropped.
func (c *Controller) SetEventDate(d time.Time) {
	c.edit(func(f *Form) bool {
		if d.IsZero() {
			f.EventDate = time.Time{}
		} else {
			f.EventDate = dateOf(d, c.loc)
		}
		return true
	})
}

func (c *Controller) SetNumTickets(n int) {
	c.edit(func(f *Form) bool { f.NumTickets = n; return true })
}

// Increment adds a ticket unless the form is already at MaxTickets.
func (c *Controller) Increment() bool {
	return c.edit(func(f *Form) bool {
		if f.NumTickets >= MaxTickets {
			return false
		}
		f.NumTickets++
		return true
	})
}

// Decrement removes a ticket unless the form is already at MinTickets.
func (c *Controller) Decrement() bool {
	return c.edit(func(f *Form) bool {
		if f.NumTickets <= MinTickets {
			return false
		}
		f.NumTickets--
		return true
	})
}

// Apply replaces the whole form and recomputes the fare once.
func (c *Controller) Apply(f Form) {
	c.edit(func(cur *Form) bool {
		if !f.EventDate.IsZero() {
			f.EventDate = dateOf(f.EventDate, c.loc)
		}
		*cur = f
		return true
	})
}

// Touch marks a field as visited so its validation message may be shown.
func (c *Controller) Touch(field Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched[field] = true
}

func (c *Controller) Touched(field Field) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched[field]
}

func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

func (c *Controller) Stations() []cmrl.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cmrl.Station(nil), c.stations...)
}

// Fare returns the displayed total fare.
func (c *Controller) Fare() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fare
}

// Summary returns the last summary and whether it should be displayed.
func (c *Controller) Summary() (*Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary, c.summary != nil
}

// Notice returns the blocking message from the last rejected submission.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}

// Errors validates the current form without touching any state.
func (c *Controller) Errors() *ValidationError {
	c.mu.Lock()
	f := c.form
	c.mu.Unlock()
	return c.check.check(f)
}

// Submit validates the form and, if it is bookable, builds the summary.
// On failure every field is marked touched, the notice is set and the
// previous summary is cleared.
func (c *Controller) Submit() (*Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if verr := c.check.check(c.form); verr != nil {
		c.summary = nil
		c.notice = verr.Notice
		for _, f := range Fields {
			c.touched[f] = true
		}
		c.logger.WithField("error", verr).Debug("booking form rejected")
		return nil, verr
	}

	f := c.form
	s := &Summary{
		Agency:          c.agency,
		Origin:          f.Origin,
		OriginName:      c.stationNameLocked(f.Origin),
		Destination:     f.Destination,
		DestinationName: c.stationNameLocked(f.Destination),
		MobileNumber:    f.MobileNumber,
		EventDate:       f.EventDate,
		NumTickets:      f.NumTickets,
		TotalFare:       c.fare,
		Currency:        c.currency,
	}
	c.summary = s
	c.notice = ""

	c.logger.WithFields(logrus.Fields{
		"origin":      f.Origin,
		"destination": f.Destination,
		"tickets":     f.NumTickets,
		"event_date":  s.Date(),
		"total_fare":  s.FormattedFare(),
	}).Info("booking summary generated")

	return s, nil
}

func (c *Controller) stationNameLocked(code string) string {
	for _, s := range c.stations {
		if s.Code == code && s.Name != "" {
			return s.Name
		}
	}
	return code
}

// edit applies fn to the form. If fn reports a change the summary is
// invalidated and the fare recomputed.
func (c *Controller) edit(fn func(f *Form) bool) bool {
	c.mu.Lock()
	if !fn(&c.form) {
		c.mu.Unlock()
		return false
	}
	c.summary = nil
	c.notice = ""
	emit := c.recalculateLocked()
	c.mu.Unlock()
	emit()
	return true
}

// recalculateLocked either zeroes the fare or issues a fare request. Any
// request still in flight becomes stale. The returned func notifies
// listeners and must be called without the lock held.
func (c *Controller) recalculateLocked() func() {
	c.fareSeq++
	f := c.form

	if !f.quotable() {
		return c.setFareLocked(decimal.Zero)
	}

	c.wg.Add(1)
	go c.fetchFare(c.ctx, c.fareSeq, f.Origin, f.Destination)
	return func() {}
}

func (c *Controller) fetchFare(ctx context.Context, seq uint64, origin, destination string) {
	defer c.wg.Done()

	// The remote side is always asked for one ticket; the count is applied here.
	quote, err := c.source.FetchFare(ctx, origin, destination, 1)

	c.mu.Lock()
	if seq != c.fareSeq {
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{
			"origin":      origin,
			"destination": destination,
		}).Debug("dropping stale fare response")
		return
	}

	var emit func()
	if err != nil {
		emit = c.setFareLocked(decimal.Zero)
	} else {
		emit = c.setFareLocked(quote.Total(c.form.NumTickets))
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"origin":      origin,
			"destination": destination,
			"error":       err,
		}).Error("failed to fetch fare")
	}
	emit()
}

// setFareLocked writes the displayed fare and queues the notification. The
// returned func delivers queued notifications and must be called without the
// lock held.
func (c *Controller) setFareLocked(v decimal.Decimal) func() {
	c.fare = v
	c.pending = append(c.pending, v)
	return c.drain
}

// drain delivers queued fare writes in the order they were made. If another
// goroutine is already delivering, it picks up whatever was queued here.
func (c *Controller) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true

	for len(c.pending) > 0 {
		v := c.pending[0]
		c.pending = c.pending[1:]
		listeners := slices.Clone(c.listeners)
		c.mu.Unlock()

		for _, fn := range listeners {
			fn(v)
		}

		c.mu.Lock()
	}

	c.draining = false
	c.mu.Unlock()
}
