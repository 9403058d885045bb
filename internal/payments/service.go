package payments

import (
	"context"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/indstore/storefront/pkg/enums"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/metrics"
	"github.com/indstore/storefront/pkg/money"
	pkgstripe "github.com/indstore/storefront/pkg/stripe"
	"github.com/indstore/storefront/pkg/types"
)

const (
	DefaultSuccessURL = "http://localhost:3000/?success=true"
	DefaultCancelURL  = "http://localhost:3000/?canceled=true"
)

// Service turns cart lines into a provider checkout session.
type Service interface {
	CreateCheckoutSession(ctx context.Context, items []types.CartLine) (*types.CheckoutSessionResponse, error)
}

// ServiceParams wires the checkout session service.
type ServiceParams struct {
	Sessions   SessionCreator
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
	Metrics    *metrics.CheckoutMetrics
	Logger     *logger.Logger
}

type service struct {
	sessions   SessionCreator
	successURL string
	cancelURL  string
	timeout    time.Duration
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session creator is required")
	}
	if strings.TrimSpace(params.SuccessURL) == "" {
		params.SuccessURL = DefaultSuccessURL
	}
	if strings.TrimSpace(params.CancelURL) == "" {
		params.CancelURL = DefaultCancelURL
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		sessions:   params.Sessions,
		successURL: params.SuccessURL,
		cancelURL:  params.CancelURL,
		timeout:    params.Timeout,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

func (s *service) CreateCheckoutSession(ctx context.Context, items []types.CartLine) (*types.CheckoutSessionResponse, error) {
	started := time.Now()

	lineItems, err := BuildLineItems(items)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeInvalid, len(items), time.Since(started))
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{string(enums.PaymentMethodCard)}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sess, err := s.sessions.New(callCtx, params)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeProvider, len(items), time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeProvider, err, pkgstripe.ProviderMessage(err))
	}
	if sess == nil || sess.URL == "" {
		s.metrics.Observe(metrics.OutcomeProvider, len(items), time.Since(started))
		return nil, pkgerrors.New(pkgerrors.CodeProvider, "payment provider returned no checkout url")
	}

	s.metrics.Observe(metrics.OutcomeSuccess, len(items), time.Since(started))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_id": sess.ID,
		"line_items": len(lineItems),
	}), "checkout session created")

	return &types.CheckoutSessionResponse{URL: sess.URL}, nil
}

// BuildLineItems maps each cart line to a USD price_data line item with
// unit_amount = round(price × 100).
func BuildLineItems(items []types.CartLine) ([]*stripe.CheckoutSessionLineItemParams, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	out := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for i, item := range items {
		if item.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
				WithDetails(map[string]any{"index": i})
		}
		cents, err := money.MinorUnits(money.FromFloat(item.Product.Price))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price").
				WithDetails(map[string]any{"index": i})
		}
		out = append(out, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(enums.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Product.Name),
				},
				UnitAmount: stripe.Int64(cents),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	return out, nil
}
