package domain

// Address is a billing or shipping address snapshot taken from the
// external order store at submission time.
type Address struct {
	Title       string `json:"title,omitempty"`
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	CountryCode string `json:"country_code,omitempty"` // ISO 3166-1 alpha-2
}

// Customer identifies the buyer as known to the order store.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// OrderSnapshot is the engine's read-only view of an order. The order
// store owns the order lifecycle; the engine only copies these values
// into the submission field set.
type OrderSnapshot struct {
	Number          string    `json:"number"`
	TotalAmount     Amount    `json:"total_amount"`
	Currency        string    `json:"currency,omitempty"` // numeric ISO 4217; empty means configured default
	Customer        *Customer `json:"customer,omitempty"`
	BillingAddress  *Address  `json:"billing_address,omitempty"`
	ShippingName    string    `json:"shipping_name,omitempty"`
	ShippingAddress *Address  `json:"shipping_address,omitempty"`
}
