package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"vendor-invoicing/internal/core/domain"
	"vendor-invoicing/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memLedger is an in-memory ledger store. A transaction holds the ledger
// mutex from Begin until Commit or Rollback, so units of work are serialised
// the way row locks serialise them on PostgreSQL.
type memLedger struct {
	mu    sync.Mutex
	state ledgerState

	failCommit bool
}

type ledgerState struct {
	txns     map[string]domain.Transaction
	wallets  map[uuid.UUID]domain.Wallet
	invoices map[uuid.UUID]domain.Invoice
	activity []domain.ActivityLog
}

func newMemLedger() *memLedger {
	return &memLedger{state: ledgerState{
		txns:     map[string]domain.Transaction{},
		wallets:  map[uuid.UUID]domain.Wallet{},
		invoices: map[uuid.UUID]domain.Invoice{},
	}}
}

func (s ledgerState) clone() ledgerState {
	c := ledgerState{
		txns:     make(map[string]domain.Transaction, len(s.txns)),
		wallets:  make(map[uuid.UUID]domain.Wallet, len(s.wallets)),
		invoices: make(map[uuid.UUID]domain.Invoice, len(s.invoices)),
		activity: append([]domain.ActivityLog(nil), s.activity...),
	}
	for k, v := range s.txns {
		c.txns[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	return c
}

// Seed helpers. Not for use while a transaction is open.

func (l *memLedger) addInvoice(inv domain.Invoice) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.invoices[inv.ID] = inv
}

func (l *memLedger) setBalance(vendorID uuid.UUID, balance decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := domain.NewWallet(vendorID)
	w.Balance = balance
	l.state.wallets[vendorID] = *w
}

func (l *memLedger) addTransaction(t domain.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.txns[t.ReferenceID] = t
}

func (l *memLedger) wallet(vendorID uuid.UUID) (domain.Wallet, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.state.wallets[vendorID]
	return w, ok
}

func (l *memLedger) transaction(ref string) (domain.Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.state.txns[ref]
	return t, ok
}

func (l *memLedger) invoice(id uuid.UUID) domain.Invoice {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.invoices[id]
}

func (l *memLedger) activityCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state.activity)
}

func (l *memLedger) transactionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.state.txns)
}

// --- DBTransactor ---

type memTx struct {
	pgx.Tx
	l        *memLedger
	snapshot ledgerState
	done     bool
}

func (l *memLedger) Begin(context.Context) (pgx.Tx, error) {
	l.mu.Lock()
	return &memTx{l: l, snapshot: l.state.clone()}, nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	defer t.l.mu.Unlock()
	if t.l.failCommit {
		t.l.state = t.snapshot
		return errors.New("commit failed")
	}
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.l.state = t.snapshot
	t.l.mu.Unlock()
	return nil
}

// --- TransactionRepository ---

type memTransactions struct{ l *memLedger }

func (r memTransactions) Create(_ context.Context, _ pgx.Tx, t *domain.Transaction) (bool, error) {
	if _, ok := r.l.state.txns[t.ReferenceID]; ok {
		return false, nil
	}
	r.l.state.txns[t.ReferenceID] = *t
	return true, nil
}

func (r memTransactions) GetByReference(_ context.Context, ref string) (*domain.Transaction, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if t, ok := r.l.state.txns[ref]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r memTransactions) GetByReferenceForUpdate(_ context.Context, _ pgx.Tx, ref string) (*domain.Transaction, error) {
	if t, ok := r.l.state.txns[ref]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r memTransactions) TransitionStatus(_ context.Context, _ pgx.Tx, id uuid.UUID, from, to domain.TransactionStatus) (bool, error) {
	for ref, t := range r.l.state.txns {
		if t.ID == id && t.Status == from {
			t.Status = to
			t.UpdatedAt = time.Now().UTC()
			r.l.state.txns[ref] = t
			return true, nil
		}
	}
	return false, nil
}

func (r memTransactions) PendingDebitTotal(_ context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.l.state.txns {
		if t.VendorID == vendorID && t.Type == domain.TransactionTypeDebit && t.Status == domain.TransactionStatusPending {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (r memTransactions) List(context.Context, ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	return nil, 0, errors.New("not implemented")
}

// --- WalletRepository ---

type memWallets struct{ l *memLedger }

func (r memWallets) Create(_ context.Context, w *domain.Wallet) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if _, ok := r.l.state.wallets[w.VendorID]; ok {
		return false, nil
	}
	r.l.state.wallets[w.VendorID] = *w
	return true, nil
}

func (r memWallets) GetByVendorID(_ context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if w, ok := r.l.state.wallets[vendorID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (r memWallets) GetOrCreate(ctx context.Context, vendorID uuid.UUID) (*domain.Wallet, error) {
	if _, err := r.Create(ctx, domain.NewWallet(vendorID)); err != nil {
		return nil, err
	}
	return r.GetByVendorID(ctx, vendorID)
}

func (r memWallets) Ensure(_ context.Context, _ pgx.Tx, vendorID uuid.UUID) error {
	if _, ok := r.l.state.wallets[vendorID]; !ok {
		r.l.state.wallets[vendorID] = *domain.NewWallet(vendorID)
	}
	return nil
}

func (r memWallets) Credit(_ context.Context, _ pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) error {
	w, ok := r.l.state.wallets[vendorID]
	if !ok {
		return errors.New("wallet missing")
	}
	w.Balance = w.Balance.Add(amount)
	w.TotalCredit = w.TotalCredit.Add(amount)
	r.l.state.wallets[vendorID] = w
	return nil
}

func (r memWallets) Debit(_ context.Context, _ pgx.Tx, vendorID uuid.UUID, amount decimal.Decimal) (bool, error) {
	w, ok := r.l.state.wallets[vendorID]
	if !ok || w.Balance.LessThan(amount) {
		return false, nil
	}
	w.Balance = w.Balance.Sub(amount)
	w.TotalWithdrawal = w.TotalWithdrawal.Add(amount)
	r.l.state.wallets[vendorID] = w
	return true, nil
}

// --- InvoiceRepository ---

type memInvoices struct{ l *memLedger }

func (r memInvoices) GetByID(_ context.Context, id uuid.UUID) (*domain.Invoice, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()
	if inv, ok := r.l.state.invoices[id]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (r memInvoices) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Invoice, error) {
	if inv, ok := r.l.state.invoices[id]; ok {
		return &inv, nil
	}
	return nil, nil
}

func (r memInvoices) MarkPaid(_ context.Context, _ pgx.Tx, id, vendorID uuid.UUID) (bool, error) {
	inv, ok := r.l.state.invoices[id]
	if !ok || inv.VendorID != vendorID || inv.Status == domain.InvoiceStatusPaid {
		return false, nil
	}
	inv.Status = domain.InvoiceStatusPaid
	r.l.state.invoices[id] = inv
	return true, nil
}

// --- ActivityRepository ---

type memActivity struct{ l *memLedger }

func (r memActivity) Create(_ context.Context, _ pgx.Tx, a *domain.ActivityLog) error {
	r.l.state.activity = append(r.l.state.activity, *a)
	return nil
}

func (r memActivity) ListRecent(context.Context, uuid.UUID, int) ([]domain.ActivityLog, error) {
	return nil, errors.New("not implemented")
}
