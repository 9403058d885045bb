// Command storefront drives the catalog, cart and checkout flows from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/indstore/storefront/internal/cart"
	"github.com/indstore/storefront/internal/catalog"
	"github.com/indstore/storefront/internal/checkout"
	"github.com/indstore/storefront/internal/snapshot"
	"github.com/indstore/storefront/pkg/config"
	"github.com/indstore/storefront/pkg/db"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/httpclient"
	"github.com/indstore/storefront/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, cfg, logg, os.Args[1:])
	stop()
	if err != nil {
		msg := err.Error()
		if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
			msg = typed.Message()
		}
		fmt.Fprintln(os.Stderr, "error:", msg)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.ClientConfig, logg *logger.Logger, args []string) (err error) {
	dbClient, err := db.New(ctx, config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          cfg.Snapshot.Path,
		MaxOpenConns: 1,
	}, nil)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	store, err := snapshot.NewSQLiteStore(ctx, dbClient.DB())
	if err != nil {
		return err
	}

	cartStore, err := cart.Open(ctx, store, cart.Options{
		Key:      cfg.Snapshot.Key,
		Notifier: printNotice(os.Stdout),
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	newHTTP := func(name string) *httpclient.Client {
		return httpclient.New(httpclient.Options{
			Name:        name,
			Timeout:     cfg.Client.RequestTimeout,
			MaxFailures: cfg.Client.BreakerFailures,
			Cooldown:    cfg.Client.BreakerCooldown,
		}, logg)
	}

	catalogClient, err := catalog.NewClient(cfg.Client.CatalogURL, newHTTP("catalog"), logg)
	if err != nil {
		return err
	}
	sessions, err := checkout.NewSessionClient(cfg.Client.CheckoutURL, newHTTP("checkout"), logg)
	if err != nil {
		return err
	}

	a := &app{
		catalog:  catalogClient,
		cart:     cartStore,
		sessions: sessions,
		out:      os.Stdout,
		logg:     logg,
	}
	return a.run(ctx, args)
}
