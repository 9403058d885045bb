// Package httpclient is the outbound HTTP client shared by the storefront
// components: otel-instrumented transport behind a circuit breaker.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/indstore/storefront/pkg/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxFailures = 5
	defaultCooldown    = 30 * time.Second
	halfOpenProbes     = 3
	failureWindow      = time.Minute
)

// Options tunes the client. Zero values fall back to sane defaults.
type Options struct {
	Name        string
	Timeout     time.Duration
	MaxFailures uint32
	Cooldown    time.Duration
	Transport   http.RoundTripper
}

// Client executes requests through a circuit breaker. Transport errors and
// 500, 503 and 504 responses count as failures. A 502 carries a payment
// provider rejection from the checkout service and does not trip the breaker,
// nor does a request the caller cancelled.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

// serverError marks a 5xx response so the breaker records a failure while
// the caller still receives the response.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("upstream responded %d", e.status)
}

// New builds a Client. logg may be nil.
func New(opts Options, logg *logger.Logger) *Client {
	if opts.Name == "" {
		opts.Name = "http"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = defaultMaxFailures
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = defaultCooldown
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	maxFailures := opts.MaxFailures
	settings := gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: halfOpenProbes,
		Interval:    failureWindow,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg == nil {
				return
			}
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "circuit breaker state changed")
		},
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

// Do sends req. A non-nil response is returned for every HTTP status; the
// error is non-nil only for transport failures or an open breaker.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if countsAsFailure(resp.StatusCode) {
			return resp, &serverError{status: resp.StatusCode}
		}
		return resp, nil
	})
	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return resp, nil
	}
	return resp, err
}

func countsAsFailure(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// State reports the breaker state (closed, half-open, open).
func (c *Client) State() string {
	return c.breaker.State().String()
}

// IsOpen reports whether err was produced by a tripped breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
