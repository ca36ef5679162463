package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"f1insights/internal/api"
	"f1insights/internal/config"
	"f1insights/internal/engine"
	"f1insights/internal/refresh"
	"f1insights/internal/report"
	"f1insights/internal/source"
)

func main() {
	cfg, err := config.Parse("f1insights", os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := source.NewClient(cfg.SheetURL(), cfg.FetchTimeout)

	switch cfg.Command {
	case config.Describe:
		err = describe(ctx, client)
	default:
		err = serve(ctx, cfg, client)
	}
	if err != nil {
		logrus.Fatal(err)
	}
}

// describe fetches the sheet once and prints its summary statistics.
func describe(ctx context.Context, client *source.Client) error {
	store, err := client.Fetch(ctx)
	if err != nil {
		return err
	}
	report.WriteSummary(os.Stdout, engine.Describe(store))
	return nil
}

func serve(ctx context.Context, cfg config.Config, client *source.Client) error {
	log := logrus.WithField("component", "server")

	// 1. Scheduler starts empty; the API answers 503 (Loading) until the first tick lands
	scheduler := refresh.New(client, cfg.RefreshInterval, logrus.WithField("component", "refresh"))

	// 2. Initialize Echo with the live handler
	h := api.NewHandler(scheduler)
	e := api.NewServer(h, cfg.RateLimit, logrus.WithField("component", "http"))

	g, ctx := errgroup.WithContext(ctx)

	// 3. Refresh loop in background
	g.Go(func() error {
		log.WithField("url", client.URL).Infof("refreshing sheet every %s", cfg.RefreshInterval)
		return scheduler.Run(ctx)
	})

	// 4. Start Server (immediately, data keeps loading in background)
	g.Go(func() error {
		log.Infof("server ready on %s", cfg.Listen)
		if err := e.Start(cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
