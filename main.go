package main

import (
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/api/cmrl"
	"github.com/danpilch/metroticket/internal/booking"
	"github.com/danpilch/metroticket/internal/config"
	"github.com/danpilch/metroticket/internal/notify"
)

var CLI struct {
	Config   string `help:"Path to config file; built-in defaults are used when empty" type:"path"`
	EnvFile  string `help:"Path to .env file with credentials" default:".env" type:"path"`
	LogLevel string `help:"Log level" default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`

	Stations StationsCmd `cmd:"" help:"List the stations that can be booked."`
	Fare     FareCmd     `cmd:"" help:"Look up the total fare for a trip."`
	Book     BookCmd     `cmd:"" help:"Fill in and submit the booking form, printing the ticket summary."`
	Serve    ServeCmd    `cmd:"" help:"Serve the booking form API over HTTP."`
}

// app carries what every command needs. Command output goes to out;
// validation messages go to errOut.
type app struct {
	cfg    *config.Config
	creds  config.Credentials
	logger *logrus.Logger
	client *cmrl.Client
	loc    *time.Location
	out    io.Writer
	errOut io.Writer
}

func (a *app) controllerOptions() []booking.Option {
	return []booking.Option{
		booking.WithLocation(a.loc),
		booking.WithAgency(a.cfg.Ticket.Agency),
		booking.WithCurrency(a.cfg.Ticket.CurrencySymbol),
	}
}

// notifier returns a pushover notifier, or nil when credentials are missing.
func (a *app) notifier() *notify.Notifier {
	if !a.creds.HasPushover() {
		a.logger.Warn("PUSHOVER_TOKEN and PUSHOVER_USER are not set, skipping notification")
		return nil
	}
	return notify.NewNotifier(a.creds.PushoverToken, a.creds.PushoverUser, a.logger)
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("metroticket"),
		kong.Description("Metro rail fare lookup and ticket booking form."),
		kong.UsageOnError(),
	)

	// Setup structured logging with logfmt; stdout is reserved for command output
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	level, err := logrus.ParseLevel(CLI.LogLevel)
	if err != nil {
		logger.WithField("error", err).Fatal("invalid log level")
	}
	logger.SetLevel(level)

	// Load configuration
	cfg := config.Default()
	if CLI.Config != "" {
		cfg, err = config.Load(CLI.Config)
		if err != nil {
			logger.WithField("error", err).Fatal("failed to load config")
		}
	}

	loc, err := cfg.Ticket.Location()
	if err != nil {
		logger.WithField("error", err).Fatal("failed to load timezone")
	}

	creds, loaded := config.LoadCredentials(CLI.EnvFile)
	if loaded {
		logger.WithField("path", CLI.EnvFile).Debug("loaded env file")
	}

	client := cmrl.NewClient(cfg.API.StationsURL, cfg.API.FareURL,
		cmrl.WithHTTPClient(httpClient(cfg.API.Timeout)),
		cmrl.WithTicketType(cfg.API.TicketType),
		cmrl.WithUserAgent(cfg.API.UserAgent),
	)

	a := &app{
		cfg:    cfg,
		creds:  creds,
		logger: logger,
		client: client,
		loc:    loc,
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	err = kctx.Run(a)
	kctx.FatalIfErrorf(err)
}
