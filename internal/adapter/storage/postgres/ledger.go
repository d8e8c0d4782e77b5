package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
)

const transactionColumns = `id, mode, operation_type, trans_id, trans_date, order_reference,
	amount, currency_code, auth_result, result_code, error_message, raw_payload, created_at`

// completeNotification filters records whose side effect was applied.
// Failed attempts are inserted with their error message already
// attached, so a complete row is always an applied capture or refund.
const completeNotification = `mode = 'NOTIFICATION' AND error_message = '' AND result_code = '00'`

// LedgerRepo implements ports.TransactionLedger on PostgreSQL.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Record appends a ledger record.
func (r *LedgerRepo) Record(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.Mode, t.OperationType, t.TransID, t.TransDate, t.OrderReference,
		t.Amount.MinorUnits(), t.CurrencyCode, t.AuthResult, t.ResultCode,
		t.ErrorMessage, t.RawPayload, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// RecordNotification appends a notification record and reports the
// earliest prior applied record under the same duplicate key. An
// advisory transaction lock on the key serializes concurrent deliveries
// of the same notification, so exactly one of them observes "no prior".
func (r *LedgerRepo) RecordNotification(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.DuplicateKey()); err != nil {
		return nil, fmt.Errorf("acquire notification lock: %w", err)
	}

	priorQuery := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE ` + completeNotification + `
		AND order_reference = $1 AND trans_id = $2 AND trans_date = $3 AND operation_type = $4
		ORDER BY created_at ASC LIMIT 1`
	prior, err := scanTransaction(tx.QueryRow(ctx, priorQuery,
		t.OrderReference, t.TransID, t.TransDate, t.OperationType))
	if err != nil {
		return nil, fmt.Errorf("find prior notification: %w", err)
	}

	insertQuery := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.Exec(ctx, insertQuery,
		t.ID, t.Mode, t.OperationType, t.TransID, t.TransDate, t.OrderReference,
		t.Amount.MinorUnits(), t.CurrencyCode, t.AuthResult, t.ResultCode,
		t.ErrorMessage, t.RawPayload, t.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return prior, nil
}

// GetByID fetches a record by UUID.
func (r *LedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// LatestForOrder fetches the most recent record for an order in the
// given mode.
func (r *LedgerRepo) LatestForOrder(ctx context.Context, orderRef string, mode domain.TransactionMode) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE order_reference = $1 AND mode = $2 ORDER BY created_at DESC LIMIT 1`
	return scanTransaction(r.pool.QueryRow(ctx, query, orderRef, mode))
}

// FindDuplicateNotification fetches the earliest applied notification
// with the given composite identity.
func (r *LedgerRepo) FindDuplicateNotification(ctx context.Context, orderRef, transID, transDate string, op domain.OperationType) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE ` + completeNotification + `
		AND order_reference = $1 AND trans_id = $2 AND trans_date = $3 AND operation_type = $4
		ORDER BY created_at ASC LIMIT 1`
	return scanTransaction(r.pool.QueryRow(ctx, query, orderRef, transID, transDate, op))
}

// List fetches records with filtering and pagination.
func (r *LedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.Transaction, int64, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Mode != nil {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", argIdx))
		args = append(args, *params.Mode)
		argIdx++
	}
	if params.OrderReference != "" {
		conditions = append(conditions, fmt.Sprintf("order_reference = $%d", argIdx))
		args = append(args, params.OrderReference)
		argIdx++
	}
	if params.OnlyErrors {
		conditions = append(conditions, "error_message <> ''")
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
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
	condition := "TRUE"
	var args []any
	if periodStart != nil {
		condition = "created_at >= to_timestamp($1)"
		args = append(args, *periodStart)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE mode = 'SUBMIT') AS submissions,
		COUNT(*) FILTER (WHERE mode = 'NOTIFICATION') AS notifications,
		COUNT(*) FILTER (WHERE %[1]s) AS complete,
		COUNT(*) FILTER (WHERE mode = 'NOTIFICATION' AND error_message = '' AND result_code <> '00' AND result_code <> '') AS rejected,
		COUNT(*) FILTER (WHERE error_message <> '') AS errored,
		COALESCE(SUM(amount) FILTER (WHERE %[1]s AND operation_type = 'DEBIT'), 0) AS captured,
		COALESCE(SUM(amount) FILTER (WHERE %[1]s AND operation_type = 'CREDIT'), 0) AS refunded
		FROM transactions WHERE %s`, completeNotification, condition)

	stats := &ports.LedgerStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalRecords, &stats.Submissions, &stats.Notifications,
		&stats.Complete, &stats.Rejected, &stats.Errored,
		&stats.CapturedMinorUnits, &stats.RefundedMinorUnits,
	)
	if err != nil {
		return nil, fmt.Errorf("get ledger stats: %w", err)
	}
	return stats, nil
}

// scanTransaction scans a single row, mapping no-rows to nil.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransactionValues(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func scanTransactionValues(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var minor int64
	err := row.Scan(
		&t.ID, &t.Mode, &t.OperationType, &t.TransID, &t.TransDate, &t.OrderReference,
		&minor, &t.CurrencyCode, &t.AuthResult, &t.ResultCode,
		&t.ErrorMessage, &t.RawPayload, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	amount, err := domain.AmountFromMinor(minor)
	if err != nil {
		return nil, fmt.Errorf("stored amount out of range: %w", err)
	}
	t.Amount = amount
	return t, nil
}
