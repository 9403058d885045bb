package types

// DefaultStock is applied when the catalog omits a product's stock.
const DefaultStock = 10

// Product is an industrial asset listed by the catalog. Price is in major units (USD).
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

// InStock reports whether the product can be added to a cart.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// CartLine pairs a product snapshot with a quantity of at least one.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
}

// CheckoutSessionRequest is the body of POST /payments/create-checkout-session.
type CheckoutSessionRequest struct {
	Items []CartLine `json:"items" validate:"required,min=1,dive"`
}
