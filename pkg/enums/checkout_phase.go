package enums

// CheckoutPhase is the visible step of the checkout overlay.
type CheckoutPhase string

const (
	CheckoutPhaseClosed  CheckoutPhase = "closed"
	CheckoutPhaseCart    CheckoutPhase = "cart"
	CheckoutPhasePayment CheckoutPhase = "payment"
	CheckoutPhaseSuccess CheckoutPhase = "success"
)

// String implements fmt.Stringer.
func (p CheckoutPhase) String() string {
	return string(p)
}

// IsOpen reports whether the overlay is visible.
func (p CheckoutPhase) IsOpen() bool {
	return p != CheckoutPhaseClosed && p != ""
}
