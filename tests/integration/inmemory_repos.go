package integration

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
)

// --- In-Memory Transaction Ledger ---

// inMemoryLedger is a mutex-guarded ledger used to exercise the full
// HTTP stack without PostgreSQL. RecordNotification holds the lock for
// the whole check-then-insert, mirroring the advisory lock the real
// repository takes.
type inMemoryLedger struct {
	mu      sync.Mutex
	records []*domain.Transaction
}

func newInMemoryLedger() *inMemoryLedger {
	return &inMemoryLedger{}
}

func (l *inMemoryLedger) Record(ctx context.Context, t *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.insert(t)
	return nil
}

func (l *inMemoryLedger) RecordNotification(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prior := l.findComplete(t.OrderReference, t.TransID, t.TransDate, t.OperationType)
	l.insert(t)
	return prior, nil
}

func (l *inMemoryLedger) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.ID == id {
			clone := *r
			return &clone, nil
		}
	}
	return nil, nil
}

func (l *inMemoryLedger) LatestForOrder(ctx context.Context, orderRef string, mode domain.TransactionMode) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var latest *domain.Transaction
	for _, r := range l.records {
		if r.OrderReference != orderRef || r.Mode != mode {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (l *inMemoryLedger) FindDuplicateNotification(ctx context.Context, orderRef, transID, transDate string, op domain.OperationType) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if prior := l.findComplete(orderRef, transID, transDate, op); prior != nil {
		clone := *prior
		return &clone, nil
	}
	return nil, nil
}

func (l *inMemoryLedger) List(ctx context.Context, params ports.LedgerListParams) ([]domain.Transaction, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var matched []domain.Transaction
	for _, r := range l.records {
		if params.Mode != nil && r.Mode != *params.Mode {
			continue
		}
		if params.OrderReference != "" && r.OrderReference != params.OrderReference {
			continue
		}
		if params.OnlyErrors && r.ErrorMessage == "" {
			continue
		}
		if params.From != nil && r.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && r.CreatedAt.Unix() > *params.To {
			continue
		}
		matched = append(matched, *r)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (l *inMemoryLedger) Stats(ctx context.Context, periodStart *int64) (*ports.LedgerStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := &ports.LedgerStats{}
	for _, r := range l.records {
		if periodStart != nil && r.CreatedAt.Unix() < *periodStart {
			continue
		}
		stats.TotalRecords++
		switch r.Mode {
		case domain.ModeSubmit:
			stats.Submissions++
		case domain.ModeNotification:
			stats.Notifications++
			switch {
			case r.IsComplete():
				stats.Complete++
				if r.OperationType == domain.OperationDebit {
					stats.CapturedMinorUnits += r.Amount.MinorUnits()
				} else if r.OperationType == domain.OperationCredit {
					stats.RefundedMinorUnits += r.Amount.MinorUnits()
				}
			case r.ErrorMessage != "":
				stats.Errored++
			default:
				stats.Rejected++
			}
		}
	}
	return stats, nil
}

// count returns the number of records matching mode, "" for all.
func (l *inMemoryLedger) count(mode domain.TransactionMode) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if mode == "" {
		return len(l.records)
	}
	n := 0
	for _, r := range l.records {
		if r.Mode == mode {
			n++
		}
	}
	return n
}

func (l *inMemoryLedger) insert(t *domain.Transaction) {
	clone := *t
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	l.records = append(l.records, &clone)
	t.CreatedAt = clone.CreatedAt
}

func (l *inMemoryLedger) findComplete(orderRef, transID, transDate string, op domain.OperationType) *domain.Transaction {
	var earliest *domain.Transaction
	for _, r := range l.records {
		if r.Mode != domain.ModeNotification ||
			r.OrderReference != orderRef || r.TransID != transID ||
			r.TransDate != transDate || r.OperationType != op {
			continue
		}
		if !r.IsComplete() {
			continue
		}
		if earliest == nil || r.CreatedAt.Before(earliest.CreatedAt) {
			earliest = r
		}
	}
	return earliest
}

// --- In-Memory Duplicate Cache ---

type inMemoryDuplicateCache struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInMemoryDuplicateCache() *inMemoryDuplicateCache {
	return &inMemoryDuplicateCache{keys: make(map[string]struct{})}
}

func (c *inMemoryDuplicateCache) Seen(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok, nil
}

func (c *inMemoryDuplicateCache) MarkSeen(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = struct{}{}
	return nil
}

var (
	_ ports.TransactionLedger = (*inMemoryLedger)(nil)
	_ ports.DuplicateCache    = (*inMemoryDuplicateCache)(nil)
)
