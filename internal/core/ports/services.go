package ports

import (
	"context"
	"net/url"
	"time"

	"systempay-gateway/internal/core/domain"
)

// SignatureEngine computes and verifies the canonical digest over a
// field set. The secret never leaves the engine.
type SignatureEngine interface {
	Sign(fs domain.FieldSet) string
	Verify(fs domain.FieldSet, claimed string) bool
}

// FieldProtocol assembles outbound submission field sets and parses and
// validates inbound notification field sets.
type FieldProtocol interface {
	BuildSubmission(order domain.OrderSnapshot, overrides map[string]string) (domain.FieldSet, error)
	ParseNotification(values url.Values) domain.FieldSet
	Validate(fs domain.FieldSet, mode domain.TransactionMode) error
}

// TransIDAllocator produces gateway transaction identifiers scoped to
// the current day.
type TransIDAllocator interface {
	Next() string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for dashboard operators.
type TokenService interface {
	Generate(username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Username string
}

// DuplicateCache is the Redis-layer duplicate check (fast path). The
// ledger remains the source of truth; a cache miss only means the
// slower ledger lookup decides.
type DuplicateCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// ReconciliationEngine is the engine facade: it owns outbound
// submission construction and inbound notification processing.
type ReconciliationEngine interface {
	BuildSubmission(ctx context.Context, order domain.OrderSnapshot, overrides map[string]string) (*Submission, error)
	ProcessNotification(ctx context.Context, form url.Values) (*domain.ReconciliationDecision, error)
	VerifyRecorded(t *domain.Transaction) bool
}

// Submission is a ready-to-post form: the signed field set plus the
// gateway endpoint it must be submitted to.
type Submission struct {
	GatewayURL  string
	Fields      domain.FieldSet
	Transaction *domain.Transaction
}

// AuthService defines dashboard operator authentication.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// ReportingService defines dashboard/reporting business logic.
type ReportingService interface {
	ListTransactions(ctx context.Context, params LedgerListParams) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, id string) (*TransactionDetail, error)
	GetStats(ctx context.Context, period string) (*LedgerStats, error)
}

// TransactionDetail is a ledger record enriched for display.
type TransactionDetail struct {
	Transaction    domain.Transaction
	ResultMessage  string
	CurrencyAlpha  string
	SignatureValid *bool // nil for submissions, which carry no inbound signature
	Fields         domain.FieldSet
}
