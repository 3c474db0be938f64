package cmrl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTicketType = "SJT"

// Client is a read-only client for the metro station and fare endpoints.
type Client struct {
	httpClient  *http.Client
	stationsURL string
	fareURL     string
	ticketType  string
	userAgent   string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTicketType(t string) Option {
	return func(c *Client) { c.ticketType = t }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a new client for the given endpoints.
func NewClient(stationsURL, fareURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		stationsURL: stationsURL,
		fareURL:     fareURL,
		ticketType:  defaultTicketType,
		userAgent:   "metroticket/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStations retrieves the full station list.
func (c *Client) FetchStations(ctx context.Context) ([]Station, error) {
	const op = "fetching stations"

	var body stationsResponse
	if err := c.get(ctx, op, c.stationsURL, &body); err != nil {
		return nil, err
	}

	if body.Result == nil {
		return nil, &MalformedResponseError{Op: op, Reason: "missing result"}
	}

	stations := *body.Result
	for i, s := range stations {
		if s.Code == "" {
			return nil, &MalformedResponseError{Op: op, Reason: fmt.Sprintf("station %d has no code", i)}
		}
	}

	return stations, nil
}

// FetchFare retrieves the fare for travelling from origin to destination.
func (c *Client) FetchFare(ctx context.Context, origin, destination string, tickets int) (*FareQuote, error) {
	const op = "fetching fare"

	u, err := url.Parse(c.fareURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parsing fare url: %w", op, err)
	}
	q := u.Query()
	q.Set("Origin", origin)
	q.Set("Destination", destination)
	q.Set("TicketType", c.ticketType)
	q.Set("NoOfTickets", strconv.Itoa(tickets))
	u.RawQuery = q.Encode()

	var body fareResponse
	if err := c.get(ctx, op, u.String(), &body); err != nil {
		return nil, err
	}

	if body.Result == nil {
		return nil, &MalformedResponseError{Op: op, Reason: "missing result"}
	}
	if body.Result.Result == nil {
		return nil, &MalformedResponseError{Op: op, Reason: "missing result.result"}
	}

	return &FareQuote{PerTicket: *body.Result.Result}, nil
}

func (c *Client) get(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{Op: op, URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Op: op, Reason: "decoding response", Err: err}
	}

	return nil
}
