package controllers

import (
	"net/http"

	"github.com/indstore/storefront/api/responses"
	"github.com/indstore/storefront/api/validators"
	"github.com/indstore/storefront/internal/payments"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/types"
)

// CheckoutSession creates a hosted payment session for the posted cart lines.
func CheckoutSession(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload types.CheckoutSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "line_items", len(payload.Items))
		}

		resp, err := svc.CreateCheckoutSession(ctx, payload.Items)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}
