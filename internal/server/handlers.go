package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/api/cmrl"
	"github.com/danpilch/metroticket/internal/booking"
	"github.com/danpilch/metroticket/internal/ticket"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: getRequestID(c),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// formDefaults returns what a front end needs to draw an empty form.
func (s *Server) formDefaults(c *gin.Context) {
	ctrl := s.newController()
	f := ctrl.Form()
	c.JSON(http.StatusOK, gin.H{
		"min_date":    ctrl.MinDate().Format(booking.DateLayout),
		"event_date":  f.EventDate.Format(booking.DateLayout),
		"num_tickets": f.NumTickets,
		"min_tickets": booking.MinTickets,
		"max_tickets": booking.MaxTickets,
	})
}

func (s *Server) stations(c *gin.Context) {
	stations, err := s.source.FetchStations(c.Request.Context())
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"request_id": getRequestID(c),
			"error":      err,
		}).Warn("failed to load stations, returning none")
		stations = []cmrl.Station{}
	}
	c.JSON(http.StatusOK, gin.H{"stations": stations})
}

func (s *Server) fare(c *gin.Context) {
	tickets := booking.MinTickets
	if raw := c.Query("tickets"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_tickets", "tickets must be an integer")
			return
		}
		tickets = n
	}

	origin, destination := c.Query("origin"), c.Query("destination")
	total, err := booking.Quote(c.Request.Context(), s.source, origin, destination, tickets)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"request_id":  getRequestID(c),
			"origin":      origin,
			"destination": destination,
			"error":       err,
		}).Error("failed to fetch fare")
		total = decimal.Zero
	}

	c.JSON(http.StatusOK, gin.H{
		"origin":      origin,
		"destination": destination,
		"tickets":     tickets,
		"fare":        total.StringFixed(2),
	})
}

type bookingRequest struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	MobileNumber string `json:"mobileNumber"`
	EventDate    string `json:"eventDate"`
	NumTickets   *int   `json:"numTickets"`
}

type bookingResponse struct {
	Summary   *booking.Summary `json:"summary"`
	EventDate string           `json:"eventDate"`
	Fare      string           `json:"fare"`
	QRData    string           `json:"qr_data"`
	ShowQR    bool             `json:"show_qr"`
}

// createBooking runs a whole form session: load stations, fill the form,
// wait for the fare and submit. Missing date and ticket count keep the form
// defaults.
func (s *Server) createBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "request body must be a JSON booking form")
		return
	}

	ctrl := s.newController()
	f := ctrl.Form()
	f.Origin = req.Origin
	f.Destination = req.Destination
	f.MobileNumber = req.MobileNumber
	if req.NumTickets != nil {
		f.NumTickets = *req.NumTickets
	}
	if req.EventDate != "" {
		d, err := booking.ParseDate(req.EventDate, s.loc)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_date", "eventDate must be YYYY-MM-DD")
			return
		}
		f.EventDate = d
	}

	ctrl.Start(c.Request.Context())
	ctrl.Wait()
	ctrl.Apply(f)
	ctrl.Wait()

	summary, err := ctrl.Submit()
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, verr)
			return
		}
		respondError(c, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	if s.sender != nil {
		if err := s.sender.SendBookingSummary(summary); err != nil {
			s.logger.WithFields(logrus.Fields{
				"request_id": getRequestID(c),
				"error":      err,
			}).Warn("failed to deliver booking summary")
		}
	}

	if c.Query("format") == "pdf" {
		out, err := ticket.RenderPDF(summary, s.cfg.Ticket.CurrencyCode)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "render_failed", "could not render ticket")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="ticket-`+summary.Date()+`.pdf"`)
		c.Data(http.StatusOK, "application/pdf", out)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{
		Summary:   summary,
		EventDate: summary.Date(),
		Fare:      summary.FormattedFare(),
		QRData:    summary.Text(),
		ShowQR:    true,
	})
}
