package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/booking"
	"github.com/danpilch/metroticket/internal/config"
)

// SummarySender delivers a booking summary out of band. *notify.Notifier
// implements it.
type SummarySender interface {
	SendBookingSummary(s *booking.Summary) error
}

type Server struct {
	source booking.FareSource
	sender SummarySender
	cfg    *config.Config
	loc    *time.Location
	logger *logrus.Logger
	now    func() time.Time
}

type Option func(*Server)

// WithSender enables delivery of every generated summary.
func WithSender(sender SummarySender) Option {
	return func(s *Server) { s.sender = sender }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(source booking.FareSource, cfg *config.Config, logger *logrus.Logger, opts ...Option) (*Server, error) {
	loc, err := cfg.Ticket.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		source: source,
		cfg:    cfg,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Router builds the gin engine serving the booking form API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), requestLogger(s.logger), gin.Recovery())
	if origins := s.cfg.Server.AllowOrigins; len(origins) > 0 {
		r.Use(cors.New(corsConfig(origins)))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		s.logger.WithField("error", err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/form", s.formDefaults)
		api.GET("/stations", s.stations)
		api.GET("/fare", s.fare)
		api.POST("/bookings", s.createBooking)
	}

	return r
}

func (s *Server) newController() *booking.Controller {
	return booking.NewController(s.source, s.logger,
		booking.WithClock(s.now),
		booking.WithLocation(s.loc),
		booking.WithAgency(s.cfg.Ticket.Agency),
		booking.WithCurrency(s.cfg.Ticket.CurrencySymbol),
	)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
