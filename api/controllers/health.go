package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/indstore/storefront/api/responses"
	"github.com/indstore/storefront/pkg/config"
	"github.com/indstore/storefront/pkg/db"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/redis"
)

const (
	envHeader          = "X-IndStore-Env"
	readyCheckDeadline = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger db.Pinger, redisPinger redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckDeadline)
		defer cancel()

		checks := map[string]string{}
		var errs error
		if dbPinger != nil {
			if err := dbPinger.Ping(ctx); err != nil {
				checks["database"] = "down"
				errs = multierr.Append(errs, fmt.Errorf("database: %w", err))
			} else {
				checks["database"] = "up"
			}
		}
		if redisPinger != nil {
			if err := redisPinger.Ping(ctx); err != nil {
				checks["redis"] = "down"
				errs = multierr.Append(errs, fmt.Errorf("redis: %w", err))
			} else {
				checks["redis"] = "up"
			}
		}

		if errs != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
