package payments

import (
	"context"

	pkgstripe "github.com/indstore/storefront/pkg/stripe"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"
)

// SessionCreator is the subset of the Stripe API needed to create checkout sessions.
type SessionCreator interface {
	New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeSessionCreator struct{}

// NewStripeSessionCreator returns nil unless client shows the Stripe key was configured.
func NewStripeSessionCreator(client *pkgstripe.Client) SessionCreator {
	if client == nil {
		return nil
	}
	return &stripeSessionCreator{}
}

func (stripeSessionCreator) New(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return session.New(params)
}
