package domain

// Direction classifies a successful notification for the order store.
type Direction string

const (
	// DirectionCapture signals funds captured from the buyer.
	DirectionCapture Direction = "CAPTURE"
	// DirectionRefund signals funds returned to the buyer.
	DirectionRefund Direction = "REFUND"
)

// ReconciliationDecision is the engine's authoritative statement about a
// processed notification, handed to the external order store. The store
// must apply the debit/credit side effect only when AlreadyApplied is
// false; the raw attempt is recorded in the ledger either way.
type ReconciliationDecision struct {
	Transaction    *Transaction `json:"transaction"`
	Direction      Direction    `json:"direction"`
	AlreadyApplied bool         `json:"already_applied"`
}
