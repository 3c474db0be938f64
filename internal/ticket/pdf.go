package ticket

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"github.com/danpilch/metroticket/internal/booking"
)

// RenderPDF lays out a booking summary on a single A6 page. The core PDF
// fonts have no rupee glyph, so the fare is printed with currencyCode.
func RenderPDF(s *booking.Summary, currencyCode string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("rendering ticket: nil summary")
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetTitle(s.Agency+" Ticket", false)
	pdf.SetMargins(8, 10, 8)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 9, tr(s.Agency+" Ticket"))
	pdf.Ln(12)

	rows := [][2]string{
		{"From", s.OriginName},
		{"To", s.DestinationName},
		{"Mobile", s.MobileNumber},
		{"Event Date", s.Date()},
		{"Tickets", fmt.Sprintf("%d", s.NumTickets)},
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(26, 7, tr(r[0]+":"))
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 7, tr(r[1]))
		pdf.Ln(7)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Total Fare: %s %s", currencyCode, s.FormattedFare())))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.MultiCell(0, 4, "Show this ticket at the station gate. Valid only on the event date.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering ticket: %w", err)
	}
	return buf.Bytes(), nil
}
