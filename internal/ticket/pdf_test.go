package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danpilch/metroticket/internal/booking"
)

func TestRenderPDF(t *testing.T) {
	s := &booking.Summary{
		Agency:          "CMRL",
		Origin:          "A",
		OriginName:      "Alpha",
		Destination:     "B",
		DestinationName: "Beta",
		MobileNumber:    "9876543210",
		EventDate:       time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC),
		NumTickets:      3,
		TotalFare:       decimal.RequireFromString("60"),
		Currency:        "₹",
	}

	out, err := RenderPDF(s, "INR")
	if err != nil {
		t.Fatalf("RenderPDF returned error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", out[:min(len(out), 16)])
	}
}

func TestRenderPDFNilSummary(t *testing.T) {
	if _, err := RenderPDF(nil, "INR"); err == nil {
		t.Fatal("expected error for nil summary")
	}
}
