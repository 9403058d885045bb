package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/indstore/storefront/api/controllers"
	"github.com/indstore/storefront/api/middleware"
	"github.com/indstore/storefront/internal/payments"
	product "github.com/indstore/storefront/internal/products"
	"github.com/indstore/storefront/pkg/config"
	"github.com/indstore/storefront/pkg/db"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/metrics"
	"github.com/indstore/storefront/pkg/redis"
)

const (
	ProductsPath        = "/products"
	CheckoutSessionPath = "/payments/create-checkout-session"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	productService product.Service,
	paymentsService payments.Service,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	// Redis is optional; keep the interfaces nil instead of wrapping a nil pointer.
	var (
		redisPinger redis.Pinger
		idemStore   redis.IdempotencyStore
		rateStore   redis.RateLimitStore
	)
	if redisClient != nil {
		redisPinger, idemStore, rateStore = redisClient, redisClient, redisClient
	}

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.Checkout.RateLimitWindow,
		cfg.Checkout.RateLimitPerIP,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	}

	r.Get(ProductsPath, controllers.ProductsList(productService, logg))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(checkoutPolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idemStore, cfg.Checkout.IdempotencyTTL, logg))
		r.Post(CheckoutSessionPath, controllers.CheckoutSession(paymentsService, logg))
	})

	return r
}
