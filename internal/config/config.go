// Package config parses the command line (and matching F1_* environment
// variables) into a Config, and applies the logging part of it.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"f1insights/internal/refresh"
	"f1insights/internal/source"
)

// Commands.
const (
	Serve    = "serve"
	Describe = "describe"
)

// Defaults of the published driver statistics sheet.
const (
	DefaultSheetHost = "docs.google.com"
	DefaultSheetID   = "1Rg6NLfs3cgC4dC5IBQOikYdLGuWsr7c5lcoO0OjDPx4"
	DefaultGID       = "1282294220"
)

type Config struct {
	Command string

	Listen          string
	SheetHost       string
	SheetID         string
	GID             string
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	RateLimit       float64

	LogLevel  string
	LogFormat string
}

// SheetURL is the CSV export URL the dashboard polls.
func (c Config) SheetURL() string {
	return source.SheetURL(c.SheetHost, c.SheetID, c.GID)
}

// Parse reads args (without the program name).
func Parse(name string, args []string) (Config, error) {
	var c Config

	app := kingpin.New(name, "F1 driver statistics dashboard.")
	app.Flag("listen", "HTTP listen address").
		Default(":8080").Envar("F1_LISTEN").StringVar(&c.Listen)
	app.Flag("sheet-host", "Host serving the spreadsheet export").
		Default(DefaultSheetHost).Envar("F1_SHEET_HOST").StringVar(&c.SheetHost)
	app.Flag("sheet-id", "Spreadsheet id").
		Default(DefaultSheetID).Envar("F1_SHEET_ID").StringVar(&c.SheetID)
	app.Flag("gid", "Sheet gid within the spreadsheet").
		Default(DefaultGID).Envar("F1_GID").StringVar(&c.GID)
	app.Flag("refresh-interval", "Time between two reloads of the sheet").
		Default(refresh.DefaultInterval.String()).Envar("F1_REFRESH_INTERVAL").DurationVar(&c.RefreshInterval)
	app.Flag("fetch-timeout", "Upper bound of one sheet download").
		Default(source.DefaultTimeout.String()).Envar("F1_FETCH_TIMEOUT").DurationVar(&c.FetchTimeout)
	app.Flag("rate-limit", "Requests per second allowed per client on /api").
		Default("20").Envar("F1_RATE_LIMIT").Float64Var(&c.RateLimit)
	app.Flag("log-level", "Log level: debug, info, warn, error, fatal, panic").
		Default("info").Envar("F1_LOG_LEVEL").StringVar(&c.LogLevel)
	app.Flag("log-format", "Log format").
		Default("text").Envar("F1_LOG_FORMAT").EnumVar(&c.LogFormat, "text", "json")

	app.Command(Serve, "Serve the dashboard").Default()
	app.Command(Describe, "Fetch the sheet once and print its summary statistics")

	cmd, err := app.Parse(args)
	if err != nil {
		return c, errors.Wrap(err, "could not parse command line flags")
	}
	c.Command = cmd

	if c.RefreshInterval <= 0 {
		return c, errors.Errorf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.FetchTimeout <= 0 {
		return c, errors.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.RateLimit <= 0 {
		return c, errors.Errorf("rate limit must be positive, got %v", c.RateLimit)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return c, errors.Wrap(err, "parsing log level failed")
	}
	return c, nil
}

// ConfigureLogging applies level and format to the standard logrus logger.
func (c Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parsing log level failed")
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
