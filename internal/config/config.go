package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultStationsURL = "https://quickticketapi.chennaimetrorail.org/api/airtel/stations"
	DefaultFareURL     = "https://quickticketapi.chennaimetrorail.org/api/airtel/farebyod"
)

type APIConfig struct {
	StationsURL string        `yaml:"stations_url"`
	FareURL     string        `yaml:"fare_url"`
	TicketType  string        `yaml:"ticket_type"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

type TicketConfig struct {
	Agency         string `yaml:"agency"`
	CurrencySymbol string `yaml:"currency_symbol"`
	CurrencyCode   string `yaml:"currency_code"`
	Timezone       string `yaml:"timezone"` // e.g. "Asia/Kolkata"; empty means local time
}

// Location resolves the configured timezone.
func (t TicketConfig) Location() (*time.Location, error) {
	if t.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", t.Timezone, err)
	}
	return loc, nil
}

type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	API    APIConfig    `yaml:"api"`
	Ticket TicketConfig `yaml:"ticket"`
	Server ServerConfig `yaml:"server"`
	Notify NotifyConfig `yaml:"notify"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			StationsURL: DefaultStationsURL,
			FareURL:     DefaultFareURL,
			TicketType:  "SJT",
			Timeout:     30 * time.Second,
			UserAgent:   "metroticket/1.0",
		},
		Ticket: TicketConfig{
			Agency:         "CMRL",
			CurrencySymbol: "₹",
			CurrencyCode:   "INR",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:4200"},
		},
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validateURL(c.API.StationsURL); err != nil {
		return fmt.Errorf("api.stations_url: %w", err)
	}
	if err := validateURL(c.API.FareURL); err != nil {
		return fmt.Errorf("api.fare_url: %w", err)
	}
	if c.API.TicketType == "" {
		return fmt.Errorf("api.ticket_type is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Ticket.Agency == "" {
		return fmt.Errorf("ticket.agency is required")
	}
	if _, err := c.Ticket.Location(); err != nil {
		return fmt.Errorf("ticket: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	for _, o := range c.Server.AllowOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("server.allow_origins: invalid origin %q", o)
		}
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", raw)
	}
	return nil
}
