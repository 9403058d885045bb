package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indstore/storefront/internal/cart"
	"github.com/indstore/storefront/internal/catalog"
	"github.com/indstore/storefront/internal/checkout"
	"github.com/indstore/storefront/internal/snapshot"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/types"
)

const catalogJSON = `[
  {"id":"lathe","name":"CNC Lathe","description":"","price":1000,"stock":5,"category":"Machining","images":[]},
  {"id":"arm","name":"Robotic Arm","description":"","price":2500,"category":"Automation"},
  {"id":"mill","name":"Vertical Mill","description":"","price":1100,"stock":2,"category":"Machining","images":[]},
  {"id":"press","name":"Hydraulic Press","description":"","price":30000,"stock":0,"category":"Machining","images":[]}
]`

type fixture struct {
	app      *app
	out      *bytes.Buffer
	sessions *atomic.Int32
	lastBody *atomic.Value
}

func newFixture(t *testing.T, checkoutStatus int, checkoutBody string) *fixture {
	t.Helper()
	ctx := context.Background()

	var sessions atomic.Int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products":
			_, _ = w.Write([]byte(catalogJSON))
		case "/payments/create-checkout-session":
			sessions.Add(1)
			var req types.CheckoutSessionRequest
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
				lastBody.Store(req)
			}
			assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
			w.WriteHeader(checkoutStatus)
			_, _ = w.Write([]byte(checkoutBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	out := &bytes.Buffer{}
	logg := logger.Nop()

	store, err := cart.Open(ctx, snapshot.NewMemoryStore(), cart.Options{Notifier: printNotice(out), Logger: logg})
	require.NoError(t, err)
	catalogClient, err := catalog.NewClient(srv.URL, srv.Client(), logg)
	require.NoError(t, err)
	sessionClient, err := checkout.NewSessionClient(srv.URL, srv.Client(), logg)
	require.NoError(t, err)

	return &fixture{
		app:      &app{catalog: catalogClient, cart: store, sessions: sessionClient, out: out, logg: logg},
		out:      out,
		sessions: &sessions,
		lastBody: &lastBody,
	}
}

func TestProductsCommandFilters(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"url":"https://pay"}`)

	require.NoError(t, f.app.run(context.Background(), []string{"products", "-category", "Machining"}))
	out := f.out.String()
	assert.Contains(t, out, "Categories: All, Machining, Automation")
	assert.Contains(t, out, "CNC Lathe")
	assert.NotContains(t, out, "Robotic Arm")
	assert.NotContains(t, out, "Hydraulic Press", "above the max ceiling")

	f.out.Reset()
	require.NoError(t, f.app.run(context.Background(), []string{"products", "-search", "ROBOT"}))
	assert.Contains(t, f.out.String(), "Robotic Arm")
	assert.Regexp(t, `Robotic Arm\s+Automation\s+\$2500\.00\s+10`, f.out.String(), "missing stock defaults to ten")

	f.out.Reset()
	require.NoError(t, f.app.run(context.Background(), []string{"products", "-search", "zzz"}))
	assert.Contains(t, f.out.String(), "No products match.")
}

func TestProductsMaxPriceIsNotSnapped(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"url":"https://pay"}`)

	require.NoError(t, f.app.run(context.Background(), []string{"products", "-max-price", "1200"}))
	out := f.out.String()
	assert.Contains(t, out, "Max price: $1200.00")
	assert.Contains(t, out, "Vertical Mill")
	assert.NotContains(t, out, "Robotic Arm")
}

func TestAddAndCartCommands(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"url":"https://pay"}`)
	ctx := context.Background()

	require.NoError(t, f.app.run(ctx, []string{"add", "lathe"}))
	require.NoError(t, f.app.run(ctx, []string{"add", "lathe"}))
	require.NoError(t, f.app.run(ctx, []string{"add", "arm"}))
	assert.Contains(t, f.out.String(), "[ok] "+cart.MessageSecured)

	f.out.Reset()
	require.NoError(t, f.app.run(ctx, []string{"cart"}))
	assert.Contains(t, f.out.String(), "Total: $4500.00")

	f.out.Reset()
	require.NoError(t, f.app.run(ctx, []string{"add", "press"}))
	assert.Contains(t, f.out.String(), "[error] "+cart.MessageOutOfStock)
	assert.Equal(t, 2, f.app.cart.Len())

	err := f.app.run(ctx, []string{"add", "missing"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	f.out.Reset()
	require.NoError(t, f.app.run(ctx, []string{"remove", "lathe"}))
	assert.Contains(t, f.out.String(), "Total: $2500.00")
}

func TestCheckoutCommandRedirects(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"url":"https://checkout.stripe.com/c/pay/cs_1"}`)
	ctx := context.Background()

	require.NoError(t, f.app.run(ctx, []string{"add", "lathe"}))
	require.NoError(t, f.app.run(ctx, []string{"checkout", "-method", "paypal"}))

	assert.Contains(t, f.out.String(), "Redirecting to https://checkout.stripe.com/c/pay/cs_1")
	assert.True(t, f.app.cart.IsEmpty())
	req, ok := f.lastBody.Load().(types.CheckoutSessionRequest)
	require.True(t, ok)
	require.Len(t, req.Items, 1)
	assert.Equal(t, "lathe", req.Items[0].Product.ID)
}

func TestCheckoutCommandProviderFailureKeepsCart(t *testing.T) {
	f := newFixture(t, http.StatusBadGateway, `{"error":"Your card was declined.","code":"PROVIDER_ERROR"}`)
	ctx := context.Background()

	require.NoError(t, f.app.run(ctx, []string{"add", "lathe"}))
	err := f.app.run(ctx, []string{"checkout", "-method", "card"})
	require.Error(t, err)
	assert.Equal(t, "Your card was declined.", pkgerrors.As(err).Message())
	assert.Equal(t, 1, f.app.cart.Len())
}

func TestCheckoutCommandGuards(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{"url":"https://pay"}`)
	ctx := context.Background()

	err := f.app.run(ctx, []string{"checkout", "-method", "card"})
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	require.NoError(t, f.app.run(ctx, []string{"add", "lathe"}))
	err = f.app.run(ctx, []string{"checkout", "-method", "bitcoin"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, int32(0), f.sessions.Load())
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, http.StatusOK, `{}`)

	err := f.app.run(context.Background(), []string{"fly"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, f.out.String(), "usage: storefront")

	err = f.app.run(context.Background(), nil)
	assert.Error(t, err)
}
