package product

import (
	"context"

	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/metrics"
)

// Service exposes the read-only catalog listing.
type Service interface {
	ListProducts(ctx context.Context) ([]ProductDTO, error)
}

type service struct {
	repo    Repository
	metrics *metrics.CatalogMetrics
	logg    *logger.Logger
}

// NewService wires the catalog service. m may be nil.
func NewService(repo Repository, m *metrics.CatalogMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "product repository is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, metrics: m, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx)
	if err != nil {
		s.metrics.Observe(metrics.OutcomeFailure, 0)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	s.metrics.Observe(metrics.OutcomeSuccess, len(out))
	s.logg.Debug(s.logg.WithField(ctx, "count", len(out)), "catalog listed")
	return out, nil
}
