package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
)

func newTestLedger(t *testing.T) *LedgerRepo {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return NewLedgerRepo(db)
}

func notificationAt(at time.Time, resultCode string) *domain.Transaction {
	return &domain.Transaction{
		ID:             uuid.New(),
		Mode:           domain.ModeNotification,
		OperationType:  domain.OperationDebit,
		TransID:        "654321",
		TransDate:      "20260830153000",
		OrderReference: "100024",
		Amount:         domain.MustAmount("50.24"),
		CurrencyCode:   "978",
		AuthResult:     "00",
		ResultCode:     resultCode,
		RawPayload:     "vads_amount=5024&vads_order_id=100024",
		CreatedAt:      at,
	}
}

func TestLedgerRepo_RecordAndGetByID(t *testing.T) {
	repo := newTestLedger(t)
	txn := notificationAt(time.Now().UTC(), "00")

	require.NoError(t, repo.Record(context.Background(), txn))

	got, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, txn.ID, got.ID)
	assert.Equal(t, int64(5024), got.Amount.MinorUnits())
	assert.Equal(t, txn.RawPayload, got.RawPayload)
	assert.WithinDuration(t, txn.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestLedgerRepo_GetByID_NotFound(t *testing.T) {
	repo := newTestLedger(t)
	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerRepo_RecordNotification_DuplicateDetection(t *testing.T) {
	repo := newTestLedger(t)
	now := time.Now().UTC()

	first := notificationAt(now, "00")
	prior, err := repo.RecordNotification(context.Background(), first)
	require.NoError(t, err)
	assert.Nil(t, prior)

	second := notificationAt(now.Add(time.Second), "00")
	prior, err = repo.RecordNotification(context.Background(), second)
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, first.ID, prior.ID)

	// Both deliveries are in the ledger.
	all, total, err := repo.List(context.Background(), ports.LedgerListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestLedgerRepo_RecordNotification_FailedPriorDoesNotCount(t *testing.T) {
	repo := newTestLedger(t)
	now := time.Now().UTC()

	// A rejected attempt under the same key never applied a side effect.
	failed := notificationAt(now, "00")
	failed.ErrorMessage = "signature verification failed"
	prior, err := repo.RecordNotification(context.Background(), failed)
	require.NoError(t, err)
	assert.Nil(t, prior)

	genuine := notificationAt(now.Add(time.Second), "00")
	prior, err = repo.RecordNotification(context.Background(), genuine)
	require.NoError(t, err)
	assert.Nil(t, prior)

	// A redelivery after the genuine capture reports it, not the failed
	// attempt, as the applied prior.
	redelivery := notificationAt(now.Add(2*time.Second), "00")
	prior, err = repo.RecordNotification(context.Background(), redelivery)
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.Equal(t, genuine.ID, prior.ID)
}

func TestLedgerRepo_LatestForOrder(t *testing.T) {
	repo := newTestLedger(t)
	now := time.Now().UTC()

	older := notificationAt(now.Add(-time.Hour), "05")
	newer := notificationAt(now, "00")
	require.NoError(t, repo.Record(context.Background(), older))
	require.NoError(t, repo.Record(context.Background(), newer))

	got, err := repo.LatestForOrder(context.Background(), "100024", domain.ModeNotification)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)

	got, err = repo.LatestForOrder(context.Background(), "100024", domain.ModeSubmit)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerRepo_FindDuplicateNotification(t *testing.T) {
	repo := newTestLedger(t)
	txn := notificationAt(time.Now().UTC(), "00")
	require.NoError(t, repo.Record(context.Background(), txn))

	got, err := repo.FindDuplicateNotification(context.Background(),
		"100024", "654321", "20260830153000", domain.OperationDebit)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, txn.ID, got.ID)

	got, err = repo.FindDuplicateNotification(context.Background(),
		"100024", "654321", "20260830153000", domain.OperationCredit)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLedgerRepo_ListFilters(t *testing.T) {
	repo := newTestLedger(t)
	now := time.Now().UTC()

	ok := notificationAt(now, "00")
	bad := notificationAt(now.Add(time.Second), "00")
	bad.ErrorMessage = "signature verification failed"
	submit := notificationAt(now.Add(2*time.Second), "")
	submit.Mode = domain.ModeSubmit
	submit.OrderReference = "100025"
	for _, txn := range []*domain.Transaction{ok, bad, submit} {
		require.NoError(t, repo.Record(context.Background(), txn))
	}

	mode := domain.ModeNotification
	txns, total, err := repo.List(context.Background(), ports.LedgerListParams{Mode: &mode, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, txns, 2)
	// Newest first.
	assert.Equal(t, bad.ID, txns[0].ID)

	txns, total, err = repo.List(context.Background(), ports.LedgerListParams{OnlyErrors: true, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, bad.ID, txns[0].ID)

	txns, _, err = repo.List(context.Background(), ports.LedgerListParams{OrderReference: "100025", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, submit.ID, txns[0].ID)
}

func TestLedgerRepo_Stats(t *testing.T) {
	repo := newTestLedger(t)
	now := time.Now().UTC()

	capture := notificationAt(now, "00")
	refund := notificationAt(now, "00")
	refund.OperationType = domain.OperationCredit
	refund.Amount = domain.MustAmount("10.00")
	rejected := notificationAt(now, "05")
	errored := notificationAt(now, "00")
	errored.ErrorMessage = "tampered"
	submit := notificationAt(now, "")
	submit.Mode = domain.ModeSubmit
	for _, txn := range []*domain.Transaction{capture, refund, rejected, errored, submit} {
		require.NoError(t, repo.Record(context.Background(), txn))
	}

	stats, err := repo.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRecords)
	assert.Equal(t, int64(1), stats.Submissions)
	assert.Equal(t, int64(4), stats.Notifications)
	assert.Equal(t, int64(2), stats.Complete)
	assert.Equal(t, int64(1), stats.Rejected)
	assert.Equal(t, int64(1), stats.Errored)
	assert.Equal(t, int64(5024), stats.CapturedMinorUnits)
	assert.Equal(t, int64(1000), stats.RefundedMinorUnits)

	// Period filter excludes older records.
	future := now.Add(time.Hour).Unix()
	stats, err = repo.Stats(context.Background(), &future)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRecords)
}

var _ ports.TransactionLedger = (*LedgerRepo)(nil)
