package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/booking"
	"github.com/danpilch/metroticket/internal/server"
	"github.com/danpilch/metroticket/internal/ticket"
)

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

type StationsCmd struct{}

func (s *StationsCmd) Run(a *app) error {
	ctx, cancel := signalContext()
	defer cancel()

	stations, err := a.client.FetchStations(ctx)
	if err != nil {
		a.logger.WithField("error", err).Warn("failed to load stations, continuing with none")
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME")
	for _, st := range stations {
		fmt.Fprintf(w, "%s\t%s\n", st.Code, st.Name)
	}
	return w.Flush()
}

type FareCmd struct {
	Origin      string `help:"Origin station code." required:""`
	Destination string `help:"Destination station code." required:""`
	Tickets     int    `help:"Number of tickets (1-6)." default:"1"`
}

func (f *FareCmd) Run(a *app) error {
	ctx, cancel := signalContext()
	defer cancel()

	total, err := booking.Quote(ctx, a.client, f.Origin, f.Destination, f.Tickets)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"origin":      f.Origin,
			"destination": f.Destination,
			"error":       err,
		}).Error("failed to fetch fare")
	}

	fmt.Fprintf(a.out, "%s%s\n", a.cfg.Ticket.CurrencySymbol, total.StringFixed(2))
	return nil
}

type BookCmd struct {
	Origin      string `help:"Origin station code."`
	Destination string `help:"Destination station code."`
	Mobile      string `help:"10 digit mobile number."`
	Date        string `help:"Event date as YYYY-MM-DD; defaults to the earliest bookable date."`
	Tickets     int    `help:"Number of tickets (1-6)." default:"1"`
	PDF         string `help:"Also write the ticket as a PDF to this file." type:"path"`
	Notify      bool   `help:"Push the summary via pushover (also enabled by notify.enabled)."`
}

func (b *BookCmd) Run(a *app) error {
	ctx, cancel := signalContext()
	defer cancel()

	ctrl := booking.NewController(a.client, a.logger, a.controllerOptions()...)
	ctrl.Start(ctx)
	ctrl.Wait()

	f := ctrl.Form()
	f.Origin = b.Origin
	f.Destination = b.Destination
	f.MobileNumber = b.Mobile
	f.NumTickets = b.Tickets
	if b.Date != "" {
		d, err := booking.ParseDate(b.Date, a.loc)
		if err != nil {
			return err
		}
		f.EventDate = d
	}

	ctrl.Apply(f)
	ctrl.Wait()

	summary, err := ctrl.Submit()
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(a.errOut, verr.Notice)
			for _, fe := range verr.Fields {
				fmt.Fprintf(a.errOut, "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}

	fmt.Fprintln(a.out, summary.Text())

	if b.PDF != "" {
		out, err := ticket.RenderPDF(summary, a.cfg.Ticket.CurrencyCode)
		if err != nil {
			return err
		}
		if err := os.WriteFile(b.PDF, out, 0o644); err != nil {
			return fmt.Errorf("writing ticket pdf: %w", err)
		}
		a.logger.WithField("path", b.PDF).Info("ticket pdf written")
	}

	if b.Notify || a.cfg.Notify.Enabled {
		if n := a.notifier(); n != nil {
			if err := n.SendBookingSummary(summary); err != nil {
				a.logger.WithField("error", err).Warn("failed to deliver booking summary")
			}
		}
	}

	return nil
}

type ServeCmd struct {
	Addr string `help:"Listen address; overrides server.addr."`
}

func (s *ServeCmd) Run(a *app) error {
	addr := a.cfg.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}

	if a.logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	var opts []server.Option
	if a.cfg.Notify.Enabled {
		if n := a.notifier(); n != nil {
			opts = append(opts, server.WithSender(n))
		}
	}

	srv, err := server.New(a.client, a.cfg, a.logger, opts...)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithFields(logrus.Fields{
			"addr":         addr,
			"stations_url": a.cfg.API.StationsURL,
			"fare_url":     a.cfg.API.FareURL,
		}).Info("starting metroticket")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("received signal, shutting down")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	a.logger.Info("metroticket stopped")
	return nil
}
