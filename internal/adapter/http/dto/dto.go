package dto

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// AddressRequest carries an address snapshot from the order store.
type AddressRequest struct {
	Title       string `json:"title,omitempty"`
	Line1       string `json:"line1,omitempty"`
	Line2       string `json:"line2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Zip         string `json:"zip,omitempty"`
	CountryCode string `json:"country_code,omitempty" binding:"omitempty,len=2"`
}

// CustomerRequest identifies the buyer as known to the order store.
type CustomerRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" binding:"omitempty,email"`
}

// SubmitRequest is the request body for building a signed payment form.
type SubmitRequest struct {
	OrderReference  string            `json:"order_reference" binding:"required,max=64"`
	Amount          string            `json:"amount" binding:"required"` // major units, e.g. "50.24"
	Currency        string            `json:"currency,omitempty" binding:"omitempty,numeric,max=3"`
	Customer        *CustomerRequest  `json:"customer,omitempty"`
	BillingAddress  *AddressRequest   `json:"billing_address,omitempty"`
	ShippingName    string            `json:"shipping_name,omitempty"`
	ShippingAddress *AddressRequest   `json:"shipping_address,omitempty"`
	Overrides       map[string]string `json:"overrides,omitempty"`
}

// SubmitResponse is the signed form the caller must POST to the gateway.
type SubmitResponse struct {
	GatewayURL    string            `json:"gateway_url"`
	Method        string            `json:"method"`
	Fields        map[string]string `json:"fields"`
	TransactionID string            `json:"transaction_id"`
	TransID       string            `json:"trans_id"`
	TransDate     string            `json:"trans_date"`
}

// NotificationResponse reports the outcome of a processed notification.
type NotificationResponse struct {
	Status         string `json:"status"` // processed, already_processed, rejected
	Direction      string `json:"direction,omitempty"`
	OrderReference string `json:"order_reference,omitempty"`
	TransID        string `json:"trans_id,omitempty"`
	Amount         string `json:"amount,omitempty"`
	ResultCode     string `json:"result_code,omitempty"`
	ResultMessage  string `json:"result_message,omitempty"`
}

// ReturnResponse is the buyer-facing outcome on return from the
// hosted payment page.
type ReturnResponse struct {
	OrderReference string `json:"order_reference,omitempty"`
	Status         string `json:"status"` // paid, already_paid, cancelled, rejected
	Message        string `json:"message"`
}

// TransactionResponse is one ledger record in dashboard responses.
type TransactionResponse struct {
	ID             string `json:"id"`
	Mode           string `json:"mode"`
	OperationType  string `json:"operation_type,omitempty"`
	TransID        string `json:"trans_id"`
	TransDate      string `json:"trans_date"`
	OrderReference string `json:"order_reference"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	AuthResult     string `json:"auth_result,omitempty"`
	ResultCode     string `json:"result_code,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	Complete       bool   `json:"complete"`
	CreatedAt      string `json:"created_at"`
}

// TransactionDetailResponse is one ledger record with audit enrichment.
type TransactionDetailResponse struct {
	TransactionResponse
	ResultMessage  string            `json:"result_message"`
	SignatureValid *bool             `json:"signature_valid,omitempty"`
	Fields         map[string]string `json:"fields"`
}

// TransactionListResponse wraps a paginated ledger page.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// LedgerStatsResponse is the response for dashboard statistics.
type LedgerStatsResponse struct {
	TotalRecords  int64 `json:"total_records"`
	Submissions   int64 `json:"submissions"`
	Notifications int64 `json:"notifications"`
	Complete      int64 `json:"complete"`
	Rejected      int64 `json:"rejected"`
	Errored       int64 `json:"errored"`
	Captured      int64 `json:"captured_minor_units"`
	Refunded      int64 `json:"refunded_minor_units"`
}
