// Package sqlite provides an embedded ledger backend for sandbox and
// single-host deployments, where running PostgreSQL is not worth the
// operational cost.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	operation_type TEXT NOT NULL DEFAULT '',
	trans_id TEXT NOT NULL,
	trans_date TEXT NOT NULL,
	order_reference TEXT NOT NULL,
	amount INTEGER NOT NULL,
	currency_code TEXT NOT NULL DEFAULT '',
	auth_result TEXT NOT NULL DEFAULT '',
	result_code TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	raw_payload TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_duplicate
	ON transactions (order_reference, trans_id, trans_date, operation_type);

CREATE INDEX IF NOT EXISTS idx_transactions_order
	ON transactions (order_reference, created_at);

CREATE INDEX IF NOT EXISTS idx_transactions_created
	ON transactions (created_at);
`

const transactionColumns = `id, mode, operation_type, trans_id, trans_date, order_reference,
	amount, currency_code, auth_result, result_code, error_message, raw_payload, created_at`

// Failed attempts carry error_message at insert time, so a complete row
// is always an applied capture or refund.
const completeNotification = `mode = 'NOTIFICATION' AND error_message = '' AND result_code = '00'`

// Open opens (or creates) the ledger database. Transactions start in
// immediate mode so the check-then-insert in RecordNotification takes
// the write lock up front instead of failing on upgrade.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		url.PathEscape(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite ledger: %w", err)
	}
	// SQLite serializes writers; a single writer connection avoids
	// SQLITE_BUSY churn under concurrent notifications.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite ledger: %w", err)
	}
	return db, nil
}

// InitSchema creates the ledger table and indexes if they do not exist.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing ledger schema: %w", err)
	}
	return nil
}

// LedgerRepo implements ports.TransactionLedger on embedded SQLite.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// Record appends a ledger record.
func (r *LedgerRepo) Record(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID.String(), t.Mode, t.OperationType, t.TransID, t.TransDate, t.OrderReference,
		t.Amount.MinorUnits(), t.CurrencyCode, t.AuthResult, t.ResultCode,
		t.ErrorMessage, t.RawPayload, t.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// RecordNotification appends a notification record and reports the
// earliest prior applied record under the same duplicate key. The
// immediate transaction holds the database write lock across the check
// and the insert, so concurrent deliveries serialize.
func (r *LedgerRepo) RecordNotification(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	priorQuery := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE ` + completeNotification + `
		AND order_reference = ? AND trans_id = ? AND trans_date = ? AND operation_type = ?
		ORDER BY created_at ASC LIMIT 1`
	prior, err := scanTransaction(tx.QueryRowContext(ctx, priorQuery,
		t.OrderReference, t.TransID, t.TransDate, t.OperationType))
	if err != nil {
		return nil, fmt.Errorf("find prior notification: %w", err)
	}

	insertQuery := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertQuery,
		t.ID.String(), t.Mode, t.OperationType, t.TransID, t.TransDate, t.OrderReference,
		t.Amount.MinorUnits(), t.CurrencyCode, t.AuthResult, t.ResultCode,
		t.ErrorMessage, t.RawPayload, t.CreatedAt.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return prior, nil
}

// GetByID fetches a record by UUID.
func (r *LedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id.String()))
}

// LatestForOrder fetches the most recent record for an order in the
// given mode.
func (r *LedgerRepo) LatestForOrder(ctx context.Context, orderRef string, mode domain.TransactionMode) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE order_reference = ? AND mode = ? ORDER BY created_at DESC LIMIT 1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, orderRef, mode))
}

// FindDuplicateNotification fetches the earliest applied notification
// with the given composite identity.
func (r *LedgerRepo) FindDuplicateNotification(ctx context.Context, orderRef, transID, transDate string, op domain.OperationType) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE ` + completeNotification + `
		AND order_reference = ? AND trans_id = ? AND trans_date = ? AND operation_type = ?
		ORDER BY created_at ASC LIMIT 1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, orderRef, transID, transDate, op))
}

// List fetches records with filtering and pagination.
func (r *LedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.Transaction, int64, error) {
	conditions := []string{"1=1"}
	var args []any

	if params.Mode != nil {
		conditions = append(conditions, "mode = ?")
		args = append(args, *params.Mode)
	}
	if params.OrderReference != "" {
		conditions = append(conditions, "order_reference = ?")
		args = append(args, params.OrderReference)
	}
	if params.OnlyErrors {
		conditions = append(conditions, "error_message <> ''")
	}
	if params.From != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, time.Unix(*params.From, 0).UnixNano())
	}
	if params.To != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, time.Unix(*params.To, 0).UnixNano())
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		transactionColumns, where)
	args = append(args, params.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransactionValues(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// Stats retrieves aggregated ledger statistics.
func (r *LedgerRepo) Stats(ctx context.Context, periodStart *int64) (*ports.LedgerStats, error) {
	condition := "1=1"
	var args []any
	if periodStart != nil {
		condition = "created_at >= ?"
		args = append(args, time.Unix(*periodStart, 0).UnixNano())
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN mode = 'SUBMIT' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN mode = 'NOTIFICATION' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN %[1]s THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN mode = 'NOTIFICATION' AND error_message = '' AND result_code <> '00' AND result_code <> '' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN error_message <> '' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN %[1]s AND operation_type = 'DEBIT' THEN amount ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN %[1]s AND operation_type = 'CREDIT' THEN amount ELSE 0 END), 0)
		FROM transactions WHERE %s`, completeNotification, condition)

	stats := &ports.LedgerStats{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalRecords, &stats.Submissions, &stats.Notifications,
		&stats.Complete, &stats.Rejected, &stats.Errored,
		&stats.CapturedMinorUnits, &stats.RefundedMinorUnits,
	)
	if err != nil {
		return nil, fmt.Errorf("get ledger stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	t, err := scanTransactionValues(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionValues(row rowScanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var (
		id        string
		minor     int64
		createdAt int64
	)
	err := row.Scan(
		&id, &t.Mode, &t.OperationType, &t.TransID, &t.TransDate, &t.OrderReference,
		&minor, &t.CurrencyCode, &t.AuthResult, &t.ResultCode,
		&t.ErrorMessage, &t.RawPayload, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	t.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("stored id is not a UUID: %w", err)
	}
	t.Amount, err = domain.AmountFromMinor(minor)
	if err != nil {
		return nil, fmt.Errorf("stored amount out of range: %w", err)
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return t, nil
}
