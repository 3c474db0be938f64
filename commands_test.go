package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/danpilch/metroticket/internal/api/cmrl"
	"github.com/danpilch/metroticket/internal/booking"
	"github.com/danpilch/metroticket/internal/config"
)

// newTestApp serves stations A/Alpha and B/Beta and a per-ticket fare of 20
// for A->B. Any other fare request fails upstream.
func newTestApp(t *testing.T) (*app, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/stations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"code":"A","name":"Alpha"},{"code":"B","name":"Beta"}]}`))
	})
	mux.HandleFunc("/fare", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("Origin") != "A" || q.Get("Destination") != "B" {
			http.Error(w, "no fare", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"result":{"result":20}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	var out, errOut bytes.Buffer
	a := &app{
		cfg:    config.Default(),
		logger: logger,
		client: cmrl.NewClient(srv.URL+"/stations", srv.URL+"/fare", cmrl.WithHTTPClient(httpClient(5*time.Second))),
		loc:    time.UTC,
		out:    &out,
		errOut: &errOut,
	}
	return a, &out, &errOut
}

// run parses args the way main does and runs the selected command.
func run(t *testing.T, a *app, args ...string) error {
	t.Helper()

	var cli struct {
		Stations StationsCmd `cmd:""`
		Fare     FareCmd     `cmd:""`
		Book     BookCmd     `cmd:""`
	}
	parser := kong.Must(&cli, kong.Name("metroticket"))
	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("parsing %v: %v", args, err)
	}
	return kctx.Run(a)
}

func earliestDate() string {
	return time.Now().UTC().AddDate(0, 0, booking.MinAdvanceDays).Format(booking.DateLayout)
}

func TestStationsCommand(t *testing.T) {
	a, out, _ := newTestApp(t)
	if err := run(t, a, "stations"); err != nil {
		t.Fatalf("stations returned error: %v", err)
	}
	if !strings.Contains(out.String(), "A     Alpha") || !strings.Contains(out.String(), "B     Beta") {
		t.Errorf("output = %q", out.String())
	}
}

func TestFareCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"two tickets", []string{"fare", "--origin", "A", "--destination", "B", "--tickets", "2"}, "₹40.00\n"},
		{"default one ticket", []string{"fare", "--origin", "A", "--destination", "B"}, "₹20.00\n"},
		{"same station", []string{"fare", "--origin", "A", "--destination", "A"}, "₹0.00\n"},
		{"upstream failure", []string{"fare", "--origin", "B", "--destination", "A"}, "₹0.00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, _ := newTestApp(t)
			if err := run(t, a, tt.args...); err != nil {
				t.Fatalf("fare returned error: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestBookCommand(t *testing.T) {
	a, out, _ := newTestApp(t)
	pdf := filepath.Join(t.TempDir(), "ticket.pdf")

	err := run(t, a, "book",
		"--origin", "A", "--destination", "B",
		"--mobile", "9876543210", "--tickets", "3",
		"--pdf", pdf)
	if err != nil {
		t.Fatalf("book returned error: %v", err)
	}

	want := "CMRL Ticket\nFrom: Alpha\nTo: Beta\nMobile: 9876543210\nEvent Date: " + earliestDate() +
		"\nTickets: 3\nTotal Fare: ₹60.00\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	data, err := os.ReadFile(pdf)
	if err != nil {
		t.Fatalf("reading pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("written file is not a PDF")
	}
}

func TestBookCommandUsesGivenDate(t *testing.T) {
	a, out, _ := newTestApp(t)
	date := time.Now().UTC().AddDate(0, 0, 10).Format(booking.DateLayout)

	err := run(t, a, "book",
		"--origin", "A", "--destination", "B",
		"--mobile", "9876543210", "--date", date)
	if err != nil {
		t.Fatalf("book returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Event Date: "+date+"\n") {
		t.Errorf("output = %q, want event date %s", out.String(), date)
	}
	if !strings.Contains(out.String(), "Tickets: 1\n") {
		t.Errorf("output = %q, want one ticket", out.String())
	}
}

func TestBookCommandRejectsBadDate(t *testing.T) {
	a, out, _ := newTestApp(t)

	err := run(t, a, "book",
		"--origin", "A", "--destination", "B",
		"--mobile", "9876543210", "--date", "19/10/2026")
	if err == nil {
		t.Fatal("book accepted a malformed date")
	}
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		t.Errorf("malformed date reported as a validation error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}

func TestBookCommandValidationFailure(t *testing.T) {
	a, out, errOut := newTestApp(t)

	err := run(t, a, "book", "--origin", "A", "--mobile", "12345")
	var verr *booking.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *booking.ValidationError", err)
	}
	for _, f := range []booking.Field{booking.FieldDestination, booking.FieldMobileNumber} {
		if !verr.Has(f) {
			t.Errorf("missing %s error: %+v", f, verr.Fields)
		}
	}

	if !strings.HasPrefix(errOut.String(), booking.Notice+"\n") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "  destination: ") {
		t.Errorf("stderr = %q, want destination message", errOut.String())
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want none", out.String())
	}
}
