package service

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"systempay-gateway/internal/core/domain"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/pkg/apperror"
)

var tracer = otel.Tracer("systempay-gateway/reconciliation")

// duplicateTTL bounds the Redis fast-path marker. Transaction ids are
// only unique per day, so 48h comfortably covers gateway redelivery.
const duplicateTTL = 48 * time.Hour

// ReconciliationService implements ports.ReconciliationEngine. It owns
// the notification pipeline: validate, authenticate, interpret the
// gateway result, classify the money movement, record the attempt with
// its verdict, and decide whether the side effect has already been
// applied.
type ReconciliationService struct {
	fields     ports.FieldProtocol
	signer     ports.SignatureEngine
	ledger     ports.TransactionLedger
	cache      ports.DuplicateCache
	paymentURL string
	log        zerolog.Logger
}

// NewReconciliationService creates the engine facade. cache may be nil;
// the ledger alone is authoritative for duplicate detection.
func NewReconciliationService(
	fields ports.FieldProtocol,
	signer ports.SignatureEngine,
	ledger ports.TransactionLedger,
	cache ports.DuplicateCache,
	paymentURL string,
	log zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		fields:     fields,
		signer:     signer,
		ledger:     ledger,
		cache:      cache,
		paymentURL: paymentURL,
		log:        log,
	}
}

// BuildSubmission assembles and signs the outbound form, then records a
// SUBMIT ledger entry before returning. The record must exist before the
// buyer is redirected: a crash mid-redirect still leaves an audit trail.
func (s *ReconciliationService) BuildSubmission(ctx context.Context, order domain.OrderSnapshot, overrides map[string]string) (*ports.Submission, error) {
	fs, err := s.fields.BuildSubmission(order, overrides)
	if err != nil {
		return nil, err
	}
	fs.Set(domain.FieldSignature, s.signer.Sign(fs))

	txn := &domain.Transaction{
		ID:             uuid.New(),
		Mode:           domain.ModeSubmit,
		TransID:        fs.Get(domain.FieldTransID),
		TransDate:      fs.Get(domain.FieldTransDate),
		OrderReference: order.Number,
		Amount:         order.TotalAmount,
		CurrencyCode:   fs.Get(domain.FieldCurrency),
		RawPayload:     fs.Encode(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.ledger.Record(ctx, txn); err != nil {
		return nil, apperror.ErrLedgerError(err)
	}

	s.log.Info().
		Str("order_ref", order.Number).
		Str("trans_id", txn.TransID).
		Str("amount", txn.Amount.String()).
		Msg("submission recorded")

	return &ports.Submission{
		GatewayURL:  s.paymentURL,
		Fields:      fs,
		Transaction: txn,
	}, nil
}

// ProcessNotification runs the inbound pipeline. The verdict is decided
// before anything is persisted: every ledger record carries its
// conclusive error message from the moment it exists, so a forged or
// malformed attempt can never sit in the ledger looking like an applied
// capture while its failure is still being written. The raw payload is
// still recorded in every branch before a failure is surfaced. A
// non-nil decision is only returned for an authentic, successful
// notification.
func (s *ReconciliationService) ProcessNotification(ctx context.Context, form url.Values) (*domain.ReconciliationDecision, error) {
	fs := s.fields.ParseNotification(form)
	txn := s.projectNotification(fs)
	key := txn.DuplicateKey()

	ctx, span := tracer.Start(ctx, "ProcessNotification")
	defer span.End()
	span.SetAttributes(
		attribute.String("notification.order_ref", txn.OrderReference),
		attribute.String("notification.trans_id", txn.TransID),
		attribute.String("notification.operation", string(txn.OperationType)),
	)

	direction, verdictErr := s.classify(fs, txn)
	if verdictErr != nil {
		if err := s.ledger.Record(ctx, txn); err != nil {
			return nil, apperror.ErrLedgerError(err)
		}
		return nil, verdictErr
	}

	// Layer 1: Redis duplicate check (fast path, best-effort).
	seen := false
	if s.cache != nil {
		var err error
		seen, err = s.cache.Seen(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("redis duplicate check failed, falling through to ledger")
			seen = false
		}
	}

	// Layer 2: ledger append with atomic duplicate check. Only verified
	// captures and refunds take this path, so a prior complete record
	// under the key is always one whose side effect was applied.
	alreadyApplied := seen
	if seen {
		if err := s.ledger.Record(ctx, txn); err != nil {
			return nil, apperror.ErrLedgerError(err)
		}
	} else {
		prior, err := s.ledger.RecordNotification(ctx, txn)
		if err != nil {
			return nil, apperror.ErrLedgerError(err)
		}
		alreadyApplied = prior != nil
	}

	if !alreadyApplied && s.cache != nil {
		if err := s.cache.MarkSeen(ctx, key, duplicateTTL); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("failed to mark notification seen in redis")
		}
	}

	s.log.Info().
		Str("order_ref", txn.OrderReference).
		Str("trans_id", txn.TransID).
		Str("direction", string(direction)).
		Bool("already_applied", alreadyApplied).
		Msg("notification reconciled")

	return &domain.ReconciliationDecision{
		Transaction:    txn,
		Direction:      direction,
		AlreadyApplied: alreadyApplied,
	}, nil
}

// VerifyRecorded re-derives the signature input from a ledger record's
// raw payload and checks it against the signature it carried. Used by
// the dashboard to audit historical records after certificate rotation.
func (s *ReconciliationService) VerifyRecorded(t *domain.Transaction) bool {
	fs, err := domain.ParseFieldSet(t.RawPayload)
	if err != nil {
		return false
	}
	return s.signer.Verify(fs, fs.Get(domain.FieldSignature))
}

// classify validates, authenticates and interprets the notification.
// On failure the reason is attached to txn, so the record that follows
// is written with its verdict already in place.
func (s *ReconciliationService) classify(fs domain.FieldSet, txn *domain.Transaction) (domain.Direction, error) {
	if err := s.fields.Validate(fs, domain.ModeNotification); err != nil {
		txn.ErrorMessage = err.Error()
		return "", err
	}

	if !s.signer.Verify(fs, fs.Get(domain.FieldSignature)) {
		txn.ErrorMessage = "signature verification failed (claimed " + fs.Get(domain.FieldSignature) + ")"
		s.log.Warn().
			Str("order_ref", txn.OrderReference).
			Str("trans_id", txn.TransID).
			Msg("notification signature rejected")
		return "", apperror.ErrSignatureInvalid()
	}

	if txn.ResultCode != domain.ResultCodeSuccess {
		s.log.Info().
			Str("order_ref", txn.OrderReference).
			Str("trans_id", txn.TransID).
			Str("result", txn.ResultCode).
			Msg("gateway rejected transaction")
		return "", apperror.ErrGatewayRejected(txn.ResultCode, domain.ResultMessage(txn.ResultCode))
	}

	switch txn.OperationType {
	case domain.OperationDebit:
		return domain.DirectionCapture, nil
	case domain.OperationCredit:
		return domain.DirectionRefund, nil
	default:
		txn.ErrorMessage = "unknown operation type " + strconv.Quote(string(txn.OperationType))
		return "", apperror.ErrUnknownOperationType(string(txn.OperationType))
	}
}

// projectNotification builds the ledger record for a raw inbound form.
// Malformed values project to zero values; validation reports them
// field by field during classification.
func (s *ReconciliationService) projectNotification(fs domain.FieldSet) *domain.Transaction {
	amount := domain.Amount{}
	if minor, err := strconv.ParseInt(fs.Get(domain.FieldAmount), 10, 64); err == nil {
		if a, err := domain.AmountFromMinor(minor); err == nil {
			amount = a
		}
	}
	return &domain.Transaction{
		ID:             uuid.New(),
		Mode:           domain.ModeNotification,
		OperationType:  domain.OperationType(fs.Get(domain.FieldOperationType)),
		TransID:        fs.Get(domain.FieldTransID),
		TransDate:      fs.Get(domain.FieldTransDate),
		OrderReference: fs.Get(domain.FieldOrderID),
		Amount:         amount,
		CurrencyCode:   fs.Get(domain.FieldCurrency),
		AuthResult:     fs.Get(domain.FieldAuthResult),
		ResultCode:     fs.Get(domain.FieldResult),
		RawPayload:     fs.Encode(),
		CreatedAt:      time.Now().UTC(),
	}
}
