package controllers

import (
	"net/http"

	"github.com/indstore/storefront/api/responses"
	product "github.com/indstore/storefront/internal/products"
	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
)

// ProductsList returns the full catalog as a bare JSON array.
func ProductsList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		items, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}
