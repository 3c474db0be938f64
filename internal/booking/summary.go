package booking

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the result of a valid submission. Its Text is what gets encoded
// into the scannable code.
type Summary struct {
	Agency          string          `json:"agency"`
	Origin          string          `json:"origin"`
	OriginName      string          `json:"originName"`
	Destination     string          `json:"destination"`
	DestinationName string          `json:"destinationName"`
	MobileNumber    string          `json:"mobileNumber"`
	EventDate       time.Time       `json:"-"`
	NumTickets      int             `json:"numTickets"`
	TotalFare       decimal.Decimal `json:"totalFare"`
	Currency        string          `json:"currency"`
}

// Date returns the event date as YYYY-MM-DD.
func (s *Summary) Date() string {
	return s.EventDate.Format(DateLayout)
}

// FormattedFare returns the total fare with two decimal places and no symbol.
func (s *Summary) FormattedFare() string {
	return s.TotalFare.StringFixed(2)
}

func (s *Summary) Text() string {
	return fmt.Sprintf("%s Ticket\nFrom: %s\nTo: %s\nMobile: %s\nEvent Date: %s\nTickets: %d\nTotal Fare: %s%s",
		s.Agency, s.OriginName, s.DestinationName, s.MobileNumber, s.Date(), s.NumTickets, s.Currency, s.FormattedFare())
}
