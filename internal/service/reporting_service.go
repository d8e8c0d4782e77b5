package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReportingServiceImpl implements ports.ReportingService for the
// operator dashboard.
type ReportingServiceImpl struct {
	ledger ports.TransactionLedger
	engine ports.ReconciliationEngine
	log    zerolog.Logger
}

// NewReportingService creates a new ReportingServiceImpl.
func NewReportingService(ledger ports.TransactionLedger, engine ports.ReconciliationEngine, log zerolog.Logger) *ReportingServiceImpl {
	return &ReportingServiceImpl{
		ledger: ledger,
		engine: engine,
		log:    log,
	}
}

// ListTransactions fetches a page of ledger records, newest first.
func (s *ReportingServiceImpl) ListTransactions(ctx context.Context, params ports.LedgerListParams) ([]domain.Transaction, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.ledger.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrLedgerError(err)
	}
	return txns, total, nil
}

// GetTransaction fetches one record and enriches it for display,
// including a fresh signature re-check for notifications so an operator
// can spot records signed under a rotated or wrong certificate.
func (s *ReportingServiceImpl) GetTransaction(ctx context.Context, id string) (*ports.TransactionDetail, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Validation("invalid transaction id")
	}

	txn, err := s.ledger.GetByID(ctx, txID)
	if err != nil {
		return nil, apperror.ErrLedgerError(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	fields, err := domain.ParseFieldSet(txn.RawPayload)
	if err != nil {
		s.log.Warn().Str("tx_id", id).Msg("ledger record carries an undecodable raw payload")
		fields = domain.FieldSet{}
	}

	detail := &ports.TransactionDetail{
		Transaction:   *txn,
		ResultMessage: domain.ResultMessage(txn.ResultCode),
		CurrencyAlpha: txn.CurrencyAlpha(),
		Fields:        fields,
	}
	if txn.Mode == domain.ModeNotification {
		valid := s.engine.VerifyRecorded(txn)
		detail.SignatureValid = &valid
	}
	return detail, nil
}

// GetStats aggregates ledger counters over a period: "24h", "7d", "30d"
// or "all".
func (s *ReportingServiceImpl) GetStats(ctx context.Context, period string) (*ports.LedgerStats, error) {
	var periodStart *int64
	switch period {
	case "24h":
		ts := time.Now().Add(-24 * time.Hour).Unix()
		periodStart = &ts
	case "7d":
		ts := time.Now().Add(-7 * 24 * time.Hour).Unix()
		periodStart = &ts
	case "30d":
		ts := time.Now().Add(-30 * 24 * time.Hour).Unix()
		periodStart = &ts
	case "all", "":
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown period %q", period))
	}

	stats, err := s.ledger.Stats(ctx, periodStart)
	if err != nil {
		return nil, apperror.ErrLedgerError(err)
	}
	return stats, nil
}
