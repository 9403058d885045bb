package product

import "github.com/indstore/storefront/pkg/db/models"

// ProductDTO is the catalog wire shape. Stock is omitted when the row has none.
type ProductDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       *int     `json:"stock,omitempty"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

func toDTO(m models.Product) ProductDTO {
	images := []string(m.Images)
	if images == nil {
		images = []string{}
	}
	return ProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price.InexactFloat64(),
		Stock:       m.Stock,
		Category:    m.Category,
		Images:      images,
	}
}
