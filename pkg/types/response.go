package types

// ErrorBody is the JSON payload of every non-2xx API response.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// CheckoutSessionResponse is returned once the payment provider created a session.
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}
