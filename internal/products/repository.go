package product

import (
	"context"

	"gorm.io/gorm"

	"github.com/indstore/storefront/pkg/db/models"
)

// Repository reads the catalog table.
type Repository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ListProducts returns the whole collection in a stable order.
func (r *gormRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
