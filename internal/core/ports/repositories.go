package ports

import (
	"context"

	"github.com/google/uuid"

	"systempay-gateway/internal/core/domain"
)

// TransactionLedger is the durable log of every outbound submission and
// inbound notification. Records are immutable: a record enters the
// ledger carrying its conclusive verdict (ErrorMessage, ResultCode) and
// is never updated afterwards.
type TransactionLedger interface {
	// Record appends an immutable record. Failed or rejected
	// notification attempts take this path, with the failure reason
	// already attached, so they never count as applied priors.
	Record(ctx context.Context, t *domain.Transaction) error

	// RecordNotification appends a notification record and returns the
	// earliest prior complete record with the same duplicate key, or
	// nil. Only notifications whose side effect is being applied may
	// take this path; a prior that failed validation carries its error
	// message and does not count. The check and the insert execute
	// under per-key mutual exclusion, so two concurrent notifications
	// never both observe "no prior".
	RecordNotification(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)

	// GetByID fetches one record.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)

	// LatestForOrder returns the most recent record for an order in the
	// given mode, or nil.
	LatestForOrder(ctx context.Context, orderRef string, mode domain.TransactionMode) (*domain.Transaction, error)

	// FindDuplicateNotification returns the earliest complete
	// notification with the given composite identity, or nil. Callers
	// use it to skip re-applying a side effect they have already applied.
	FindDuplicateNotification(ctx context.Context, orderRef, transID, transDate string, op domain.OperationType) (*domain.Transaction, error)

	// List fetches records with filtering and pagination, newest first.
	List(ctx context.Context, params LedgerListParams) ([]domain.Transaction, int64, error)

	// Stats aggregates ledger counters for the dashboard.
	Stats(ctx context.Context, periodStart *int64) (*LedgerStats, error)
}

// LedgerListParams holds filter + pagination for listing ledger records.
type LedgerListParams struct {
	Mode           *domain.TransactionMode
	OrderReference string
	OnlyErrors     bool
	From           *int64 // Unix timestamp
	To             *int64 // Unix timestamp
	Page           int
	PageSize       int
}

// LedgerStats holds aggregated counters for the dashboard.
type LedgerStats struct {
	TotalRecords       int64
	Submissions        int64
	Notifications      int64
	Complete           int64
	Rejected           int64
	Errored            int64
	CapturedMinorUnits int64 // sum of complete DEBIT notification amounts
	RefundedMinorUnits int64 // sum of complete CREDIT notification amounts
}
