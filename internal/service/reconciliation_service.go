package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"
	"vendor-invoicing/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReconciliationOptions tunes the Redis fast path.
type ReconciliationOptions struct {
	LockTTL    time.Duration
	SettledTTL time.Duration
}

// ReconciliationServiceImpl implements ports.ReconciliationService.
//
// Redis is an optimisation only. The database transaction is authoritative:
// the Transaction row is locked FOR UPDATE, inserts rely on the unique
// reference_id, and status moves are conditional on the current status.
type ReconciliationServiceImpl struct {
	txRepo      ports.TransactionRepository
	walletRepo  ports.WalletRepository
	invoiceRepo ports.InvoiceRepository
	activity    ports.ActivityRepository
	events      ports.WebhookEventRepository
	gateway     ports.PaymentGateway
	lock        ports.ReferenceLock
	settled     ports.SettledReferenceCache
	transactor  ports.DBTransactor
	metrics     *metrics.Metrics
	opts        ReconciliationOptions
	log         zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
// lock, settled and events may be nil.
func NewReconciliationService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	invoiceRepo ports.InvoiceRepository,
	activity ports.ActivityRepository,
	events ports.WebhookEventRepository,
	gateway ports.PaymentGateway,
	lock ports.ReferenceLock,
	settled ports.SettledReferenceCache,
	transactor ports.DBTransactor,
	m *metrics.Metrics,
	opts ReconciliationOptions,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if opts.SettledTTL <= 0 {
		opts.SettledTTL = 72 * time.Hour
	}
	return &ReconciliationServiceImpl{
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		invoiceRepo: invoiceRepo,
		activity:    activity,
		events:      events,
		gateway:     gateway,
		lock:        lock,
		settled:     settled,
		transactor:  transactor,
		metrics:     m,
		opts:        opts,
		log:         log,
	}
}

// Reconcile applies one authenticated webhook event to the ledger.
// Business failures are returned as non-retryable AppErrors together with a
// rejected result; storage and gateway faults are retryable.
func (s *ReconciliationServiceImpl) Reconcile(ctx context.Context, ev domain.WebhookEvent) (*domain.ReconcileResult, error) {
	result, err := s.dispatch(ctx, ev)
	if err != nil {
		outcome := domain.OutcomeRejected
		if apperror.Retryable(err) {
			outcome = domain.OutcomeError
		}
		result = &domain.ReconcileResult{
			Outcome:   outcome,
			Reference: ev.Reference,
			Detail:    publicMessage(err),
		}
	}

	s.record(ctx, ev, result, err)
	return result, err
}

func (s *ReconciliationServiceImpl) dispatch(ctx context.Context, ev domain.WebhookEvent) (*domain.ReconcileResult, error) {
	switch ev.Kind {
	case domain.EventKindCardPayment, domain.EventKindTransfer:
	default:
		return &domain.ReconcileResult{Outcome: domain.OutcomeIgnored, Detail: ev.RawType}, nil
	}

	if ev.Reference == "" {
		return nil, apperror.Validation("webhook event carries no reference")
	}

	if s.isSettled(ctx, ev.Reference) {
		return &domain.ReconcileResult{Outcome: domain.OutcomeDuplicate, Reference: ev.Reference}, nil
	}

	held, release := s.acquire(ctx, ev.Reference)
	if !held {
		return &domain.ReconcileResult{Outcome: domain.OutcomeInProgress, Reference: ev.Reference}, nil
	}
	defer release()

	if ev.Kind == domain.EventKindCardPayment {
		return s.reconcileCardPayment(ctx, ev)
	}
	return s.reconcileTransfer(ctx, ev)
}

// reconcileCardPayment credits the invoice's vendor once per tx_ref.
func (s *ReconciliationServiceImpl) reconcileCardPayment(ctx context.Context, ev domain.WebhookEvent) (*domain.ReconcileResult, error) {
	if ev.GatewayID == "" {
		return nil, apperror.Validation("card payment event carries no transaction id")
	}

	verified, err := s.gateway.VerifyTransaction(ctx, ev.GatewayID)
	if err != nil {
		return nil, gatewayFailure(err)
	}
	switch {
	case !verified.Successful():
		return nil, apperror.ErrVerificationMismatch(fmt.Sprintf("transaction status is %q", verified.Status))
	case !verified.Amount.Equal(ev.Amount):
		return nil, apperror.ErrVerificationMismatch(fmt.Sprintf("verified amount %s does not match %s", verified.Amount, ev.Amount))
	case verified.TxRef != ev.Reference:
		return nil, apperror.ErrVerificationMismatch("transaction reference does not match")
	}

	invoiceID, ok := domain.InvoiceIDFromReference(verified.TxRef)
	if !ok {
		return nil, apperror.ErrNotFound("Invoice")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	existing, err := s.txRepo.GetByReferenceForUpdate(ctx, dbTx, verified.TxRef)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if existing != nil && existing.IsTerminal() {
		return duplicateOf(existing), nil
	}

	invoice, err := s.invoiceRepo.GetByIDForUpdate(ctx, dbTx, invoiceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock invoice: %w", err))
	}
	if invoice == nil {
		return nil, apperror.ErrNotFound("Invoice")
	}

	vendorID := invoice.VendorID
	if existing != nil {
		if existing.VendorID != vendorID || existing.Type != domain.TransactionTypeCredit {
			return nil, apperror.ErrVerificationMismatch("reference is not a payment for this vendor's invoice")
		}
		moved, err := s.txRepo.TransitionStatus(ctx, dbTx, existing.ID, domain.TransactionStatusPending, domain.TransactionStatusCompleted)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("complete transaction: %w", err))
		}
		if !moved {
			return duplicateOf(existing), nil
		}
	} else {
		now := time.Now().UTC()
		created, err := s.txRepo.Create(ctx, dbTx, &domain.Transaction{
			ID:              uuid.New(),
			ReferenceID:     verified.TxRef,
			VendorID:        vendorID,
			Amount:          verified.Amount,
			Type:            domain.TransactionTypeCredit,
			Status:          domain.TransactionStatusCompleted,
			TransacterName:  invoice.ClientName,
			TransacterEmail: invoice.ClientEmail,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
		}
		if !created {
			return &domain.ReconcileResult{Outcome: domain.OutcomeDuplicate, Reference: verified.TxRef, VendorID: &vendorID}, nil
		}
	}

	if err := s.walletRepo.Ensure(ctx, dbTx, vendorID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ensure wallet: %w", err))
	}
	if err := s.walletRepo.Credit(ctx, dbTx, vendorID, verified.Amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit wallet: %w", err))
	}

	marked, err := s.invoiceRepo.MarkPaid(ctx, dbTx, invoice.ID, vendorID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mark invoice paid: %w", err))
	}
	if !marked {
		s.log.Warn().
			Str("reference", verified.TxRef).
			Str("invoice_id", invoice.ID.String()).
			Msg("Invoice was already paid; crediting additional payment")
	}

	entry := domain.NewActivity(vendorID, domain.ActivityActionPayment,
		fmt.Sprintf("Payment of %s received from %s", verified.Amount.StringFixed(2), invoice.ClientName))
	if err := s.activity.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write activity: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.markSettled(ctx, verified.TxRef)

	return &domain.ReconcileResult{Outcome: domain.OutcomeCredited, Reference: verified.TxRef, VendorID: &vendorID}, nil
}

// reconcileTransfer settles a withdrawal that was recorded as PENDING at initiation.
func (s *ReconciliationServiceImpl) reconcileTransfer(ctx context.Context, ev domain.WebhookEvent) (*domain.ReconcileResult, error) {
	txn, err := s.txRepo.GetByReference(ctx, ev.Reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if txn.Type != domain.TransactionTypeDebit {
		return nil, apperror.ErrVerificationMismatch("reference is not a withdrawal")
	}
	if txn.IsTerminal() {
		return duplicateOf(txn), nil
	}
	// The id stored at initiation wins; the payload id only serves older rows.
	transferID := txn.GatewayID
	if transferID == "" {
		transferID = ev.GatewayID
	}
	if transferID == "" {
		return nil, apperror.Validation("transfer id unknown for reference")
	}

	details, err := s.gateway.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, gatewayFailure(err)
	}
	if details.Reference != txn.ReferenceID {
		return nil, apperror.ErrVerificationMismatch("transfer reference does not match")
	}
	if !details.Amount.Equal(txn.Amount) {
		return nil, apperror.ErrVerificationMismatch(fmt.Sprintf("transfer amount %s does not match %s", details.Amount, txn.Amount))
	}

	switch {
	case details.Succeeded():
		return s.settleTransfer(ctx, txn.ReferenceID, domain.TransactionStatusCompleted)
	case details.Failed():
		return s.settleTransfer(ctx, txn.ReferenceID, domain.TransactionStatusFailed)
	default:
		vendorID := txn.VendorID
		return &domain.ReconcileResult{
			Outcome:   domain.OutcomeStillOpen,
			Reference: txn.ReferenceID,
			VendorID:  &vendorID,
			Detail:    details.Status,
		}, nil
	}
}

func (s *ReconciliationServiceImpl) settleTransfer(ctx context.Context, reference string, target domain.TransactionStatus) (*domain.ReconcileResult, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := s.txRepo.GetByReferenceForUpdate(ctx, dbTx, reference)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("Transaction")
	}
	if !txn.CanTransitionTo(target) {
		return duplicateOf(txn), nil
	}

	moved, err := s.txRepo.TransitionStatus(ctx, dbTx, txn.ID, domain.TransactionStatusPending, target)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transition transaction: %w", err))
	}
	if !moved {
		return duplicateOf(txn), nil
	}

	vendorID := txn.VendorID
	outcome := domain.OutcomeFailed
	entry := domain.NewActivity(vendorID, domain.ActivityActionWithdrawal,
		fmt.Sprintf("Withdrawal of %s failed", txn.Amount.StringFixed(2)))

	if target == domain.TransactionStatusCompleted {
		if err := s.walletRepo.Ensure(ctx, dbTx, vendorID); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("ensure wallet: %w", err))
		}
		debited, err := s.walletRepo.Debit(ctx, dbTx, vendorID, txn.Amount)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("debit wallet: %w", err))
		}
		if !debited {
			// Balance moved below the payout since initiation. Leave the
			// transaction PENDING for manual review.
			s.log.Error().
				Str("reference", reference).
				Str("vendor_id", vendorID.String()).
				Str("amount", txn.Amount.String()).
				Msg("Confirmed withdrawal exceeds wallet balance")
			return nil, apperror.ErrInsufficientFunds()
		}
		outcome = domain.OutcomeDebited
		entry = domain.NewActivity(vendorID, domain.ActivityActionWithdrawal,
			fmt.Sprintf("Money withdrawn: %s", txn.Amount.StringFixed(2)))
	}

	if err := s.activity.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("write activity: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.markSettled(ctx, reference)

	return &domain.ReconcileResult{Outcome: outcome, Reference: reference, VendorID: &vendorID}, nil
}

func (s *ReconciliationServiceImpl) isSettled(ctx context.Context, reference string) bool {
	if s.settled == nil {
		return false
	}
	settled, err := s.settled.IsSettled(ctx, reference)
	if err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("settled cache check failed, falling through to DB")
		return false
	}
	return settled
}

func (s *ReconciliationServiceImpl) markSettled(ctx context.Context, reference string) {
	if s.settled == nil {
		return
	}
	if err := s.settled.MarkSettled(ctx, reference, s.opts.SettledTTL); err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("failed to cache settled reference")
	}
}

// acquire takes the per-reference lock. When Redis is unavailable it reports
// the lock as held and relies on the database path alone.
func (s *ReconciliationServiceImpl) acquire(ctx context.Context, reference string) (bool, func()) {
	noop := func() {}
	if s.lock == nil {
		return true, noop
	}

	held, err := s.lock.Acquire(ctx, reference, s.opts.LockTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("reference", reference).Msg("reference lock unavailable, continuing without it")
		return true, noop
	}
	if !held {
		return false, noop
	}

	return true, func() {
		// The request context may already be cancelled; the lock must still go.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := s.lock.Release(releaseCtx, reference); err != nil {
			s.log.Warn().Err(err).Str("reference", reference).Msg("failed to release reference lock")
		}
	}
}

// record logs the decision, counts it and writes the journal row.
func (s *ReconciliationServiceImpl) record(ctx context.Context, ev domain.WebhookEvent, result *domain.ReconcileResult, err error) {
	vendor := ""
	if result.VendorID != nil {
		vendor = result.VendorID.String()
	}

	logEvt := s.log.Info()
	switch {
	case err != nil && apperror.Retryable(err):
		logEvt = s.log.Error().Err(err)
	case err != nil:
		logEvt = s.log.Warn().Err(err)
	}
	logEvt.
		Str("event", string(ev.Kind)).
		Str("reference", ev.Reference).
		Str("gateway_id", ev.GatewayID).
		Str("vendor_id", vendor).
		Str("outcome", string(result.Outcome)).
		Msg("Webhook reconciled")

	s.metrics.ObserveWebhookEvent(string(ev.Kind), string(result.Outcome))

	if s.events == nil {
		return
	}
	entry := &domain.WebhookEventLog{
		ID:         uuid.New(),
		EventType:  ev.RawType,
		Reference:  ev.Reference,
		GatewayID:  ev.GatewayID,
		VendorID:   result.VendorID,
		Outcome:    result.Outcome,
		Detail:     result.Detail,
		Payload:    ev.Payload,
		ReceivedAt: time.Now().UTC(),
	}
	if jerr := s.events.Create(context.WithoutCancel(ctx), entry); jerr != nil {
		s.log.Warn().Err(jerr).Str("reference", ev.Reference).Msg("failed to journal webhook event")
	}
}

func duplicateOf(txn *domain.Transaction) *domain.ReconcileResult {
	vendorID := txn.VendorID
	return &domain.ReconcileResult{
		Outcome:   domain.OutcomeDuplicate,
		Reference: txn.ReferenceID,
		VendorID:  &vendorID,
		Detail:    string(txn.Status),
	}
}

// gatewayFailure maps an adapter error. A 4xx answer means the gateway does
// not recognise the id, which retrying cannot fix.
func gatewayFailure(err error) error {
	var gwErr *ports.GatewayError
	if errors.As(err, &gwErr) && gwErr.Rejected() {
		return apperror.ErrVerificationMismatch(gwErr.Message)
	}
	return apperror.ErrGatewayUnavailable(err)
}

func publicMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
