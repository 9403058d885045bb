package payments

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/metrics"
	"github.com/indstore/storefront/pkg/types"
)

type stubSessionCreator struct {
	params   *stripe.CheckoutSessionParams
	session  *stripe.CheckoutSession
	err      error
	deadline bool
}

func (s *stubSessionCreator) New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.params = params
	_, s.deadline = ctx.Deadline()
	return s.session, s.err
}

func cartLines() []types.CartLine {
	return []types.CartLine{
		{Product: types.Product{ID: "a", Name: "CNC Lathe", Price: 1000}, Quantity: 2},
		{Product: types.Product{ID: "b", Name: "Robotic Arm", Price: 2500}, Quantity: 1},
	}
}

func newService(t *testing.T, creator SessionCreator, params ServiceParams) Service {
	t.Helper()
	params.Sessions = creator
	svc, err := NewService(params)
	require.NoError(t, err)
	return svc
}

func TestCreateCheckoutSessionBuildsStripeParams(t *testing.T) {
	creator := &stubSessionCreator{session: &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}}
	svc := newService(t, creator, ServiceParams{
		Timeout: 5 * time.Second,
		Metrics: metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
	})

	resp, err := svc.CreateCheckoutSession(context.Background(), cartLines())
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resp.URL)
	assert.True(t, creator.deadline, "provider call carries the configured timeout")

	p := creator.params
	require.NotNil(t, p)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, []*string{stripe.String("card")}, p.PaymentMethodTypes)
	assert.Equal(t, DefaultSuccessURL, *p.SuccessURL)
	assert.Equal(t, DefaultCancelURL, *p.CancelURL)

	require.Len(t, p.LineItems, 2)
	first := p.LineItems[0]
	assert.Equal(t, "usd", *first.PriceData.Currency)
	assert.Equal(t, "CNC Lathe", *first.PriceData.ProductData.Name)
	assert.Equal(t, int64(100000), *first.PriceData.UnitAmount)
	assert.Equal(t, int64(2), *first.Quantity)

	second := p.LineItems[1]
	assert.Equal(t, int64(250000), *second.PriceData.UnitAmount)
	assert.Equal(t, int64(1), *second.Quantity)
}

func TestCreateCheckoutSessionUsesConfiguredURLs(t *testing.T) {
	creator := &stubSessionCreator{session: &stripe.CheckoutSession{URL: "https://pay"}}
	svc := newService(t, creator, ServiceParams{
		SuccessURL: "https://ind.store/?success=true",
		CancelURL:  "https://ind.store/?canceled=true",
	})

	_, err := svc.CreateCheckoutSession(context.Background(), cartLines())
	require.NoError(t, err)
	assert.Equal(t, "https://ind.store/?success=true", *creator.params.SuccessURL)
	assert.Equal(t, "https://ind.store/?canceled=true", *creator.params.CancelURL)
	assert.False(t, creator.deadline)
}

func TestCreateCheckoutSessionSurfacesProviderMessage(t *testing.T) {
	creator := &stubSessionCreator{err: &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Msg: "Your card was declined."}}
	svc := newService(t, creator, ServiceParams{})

	_, err := svc.CreateCheckoutSession(context.Background(), cartLines())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeProvider, typed.Code())
	assert.Equal(t, "Your card was declined.", typed.Message())
}

func TestCreateCheckoutSessionNetworkFailure(t *testing.T) {
	creator := &stubSessionCreator{err: errors.New("dial tcp: i/o timeout")}
	svc := newService(t, creator, ServiceParams{})

	_, err := svc.CreateCheckoutSession(context.Background(), cartLines())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeProvider))
	assert.Equal(t, "dial tcp: i/o timeout", pkgerrors.As(err).Message())
}

func TestCreateCheckoutSessionMissingURL(t *testing.T) {
	svc := newService(t, &stubSessionCreator{session: &stripe.CheckoutSession{ID: "cs"}}, ServiceParams{})

	_, err := svc.CreateCheckoutSession(context.Background(), cartLines())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeProvider))
}

func TestCreateCheckoutSessionRejectsEmptyCart(t *testing.T) {
	creator := &stubSessionCreator{}
	svc := newService(t, creator, ServiceParams{})

	_, err := svc.CreateCheckoutSession(context.Background(), nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Nil(t, creator.params, "provider not called")
}

func TestBuildLineItemsRoundsFractionalCents(t *testing.T) {
	items, err := BuildLineItems([]types.CartLine{
		{Product: types.Product{Name: "Gasket", Price: 19.995}, Quantity: 1},
		{Product: types.Product{Name: "Washer", Price: 0.004}, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), *items[0].PriceData.UnitAmount)
	assert.Equal(t, int64(0), *items[1].PriceData.UnitAmount)
}

func TestBuildLineItemsRejectsBadLines(t *testing.T) {
	_, err := BuildLineItems([]types.CartLine{{Product: types.Product{Name: "x", Price: -5}, Quantity: 1}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = BuildLineItems([]types.CartLine{{Product: types.Product{Name: "x", Price: 5}, Quantity: 0}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestNewServiceRequiresCreator(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.Nil(t, NewStripeSessionCreator(nil))
}
