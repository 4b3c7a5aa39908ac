package service

import (
	"context"
	"errors"

	"oink_ledger/internal/db"
	"oink_ledger/internal/domain"
	"oink_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BalanceService handles all balance operations
type BalanceService struct {
	db             *pgxpool.Pool
	accounts       *repository.AccountRepository
	ledger         *repository.LedgerRepository
	events         EventPublisher
	defaultBalance int64
}

// NewBalanceService creates a new balance service
func NewBalanceService(db *pgxpool.Pool, defaultBalance int64, events EventPublisher) *BalanceService {
	if events == nil {
		events = noopPublisher{}
	}
	return &BalanceService{
		db:             db,
		accounts:       repository.NewAccountRepository(db),
		ledger:         repository.NewLedgerRepository(db),
		events:         events,
		defaultBalance: defaultBalance,
	}
}

// GetBalance returns the current balance, creating the account with the
// default balance on first access.
func (s *BalanceService) GetBalance(ctx context.Context, fid string) (int64, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return 0, err
	}

	balance, err := retryRead(ctx, func() (int64, error) {
		if _, err := s.accounts.Ensure(ctx, fid, "", s.defaultBalance); err != nil {
			return 0, storeError("ensure account", err)
		}
		balance, err := s.accounts.GetBalance(ctx, fid)
		return balance, storeError("get balance", err)
	})
	if err != nil {
		return 0, fail(ctx, "get_balance", fid, err)
	}
	return balance, nil
}

// SetBalance overwrites the balance. Negative values are clamped to zero.
func (s *BalanceService) SetBalance(ctx context.Context, fid, username string, value int64, reason string) (*domain.BalanceChange, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}
	reason, err = normalizeReason(reason, domain.ReasonDirectUpdate)
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)
	if value < 0 {
		value = 0
	}

	var change *domain.BalanceChange
	err = db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.accounts.EnsureWithTx(ctx, tx, fid, username, s.defaultBalance); err != nil {
			return err
		}
		before, err := s.accounts.LockBalanceWithTx(ctx, tx, fid)
		if err != nil {
			return err
		}
		after, err := s.accounts.SetWithTx(ctx, tx, fid, username, value)
		if err != nil {
			return err
		}

		change = &domain.BalanceChange{FID: fid, Balance: after, Change: after - before, Reason: reason}
		return s.recordWithTx(ctx, tx, change)
	})
	if err != nil {
		return nil, fail(ctx, "set_balance", fid, err)
	}

	s.committed(ctx, change)
	return change, nil
}

// AdjustBalance applies balance = max(0, balance + delta). It is meant for
// informal adjustments such as game results; transfers use DebitWithTx.
func (s *BalanceService) AdjustBalance(ctx context.Context, fid, username string, delta int64, reason string) (*domain.BalanceChange, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}
	reason, err = normalizeReason(reason, domain.ReasonGame)
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)

	var change *domain.BalanceChange
	err = db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		change, err = s.AdjustWithTx(ctx, tx, fid, username, delta, reason)
		return err
	})
	if err != nil {
		return nil, fail(ctx, "adjust_balance", fid, err)
	}

	s.committed(ctx, change)
	return change, nil
}

// Add credits a positive amount.
func (s *BalanceService) Add(ctx context.Context, fid, username string, amount int64, reason string) (*domain.BalanceChange, error) {
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = domain.ReasonAdd
	}
	return s.AdjustBalance(ctx, fid, username, amount, reason)
}

// Subtract debits a positive amount or fails with *InsufficientFundsError,
// leaving the balance unchanged.
func (s *BalanceService) Subtract(ctx context.Context, fid, username string, amount int64, reason string) (*domain.BalanceChange, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("amount", amount); err != nil {
		return nil, err
	}
	reason, err = normalizeReason(reason, domain.ReasonSubtract)
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)

	var change *domain.BalanceChange
	err = db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.accounts.EnsureWithTx(ctx, tx, fid, username, s.defaultBalance); err != nil {
			return err
		}
		after, err := s.DebitWithTx(ctx, tx, fid, amount)
		if err != nil {
			return err
		}

		change = &domain.BalanceChange{FID: fid, Balance: after, Change: -amount, Reason: reason}
		return s.recordWithTx(ctx, tx, change)
	})
	if err != nil {
		return nil, fail(ctx, "subtract_balance", fid, err)
	}

	s.committed(ctx, change)
	return change, nil
}

// AdjustWithTx is AdjustBalance inside an existing transaction. The account
// is bootstrapped with the default balance first, so a first-ever credit
// yields default + delta.
func (s *BalanceService) AdjustWithTx(ctx context.Context, tx pgx.Tx, fid, username string, delta int64, reason string) (*domain.BalanceChange, error) {
	if _, err := s.accounts.EnsureWithTx(ctx, tx, fid, username, s.defaultBalance); err != nil {
		return nil, err
	}

	// Lock first so the applied change recorded in the ledger is exact.
	before, err := s.accounts.LockBalanceWithTx(ctx, tx, fid)
	if err != nil {
		return nil, err
	}
	after, err := s.accounts.AdjustClampedWithTx(ctx, tx, fid, username, delta)
	if err != nil {
		return nil, err
	}

	change := &domain.BalanceChange{FID: fid, Balance: after, Change: after - before, Reason: reason}
	if err := s.recordWithTx(ctx, tx, change); err != nil {
		return nil, err
	}
	return change, nil
}

// DebitWithTx deducts amount within an existing transaction. It never
// clamps: an overdraw fails with *InsufficientFundsError.
func (s *BalanceService) DebitWithTx(ctx context.Context, tx pgx.Tx, fid string, amount int64) (int64, error) {
	if err := requirePositive("amount", amount); err != nil {
		return 0, err
	}

	after, ok, err := s.accounts.DebitWithTx(ctx, tx, fid, amount)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return 0, ErrAccountNotFound
	case err != nil:
		return 0, err
	case !ok:
		balance, err := s.accounts.LockBalanceWithTx(ctx, tx, fid)
		if err != nil {
			return 0, err
		}
		return 0, &InsufficientFundsError{Balance: balance, Requested: amount}
	}
	return after, nil
}

// CreditOrCreateWithTx credits amount; an unknown fid starts at exactly amount.
func (s *BalanceService) CreditOrCreateWithTx(ctx context.Context, tx pgx.Tx, fid, username string, amount int64) (int64, error) {
	if err := requirePositive("amount", amount); err != nil {
		return 0, err
	}
	balance, _, err := s.accounts.CreditOrCreateWithTx(ctx, tx, fid, username, amount)
	return balance, err
}

// History returns ledger entries touching fid, newest first.
func (s *BalanceService) History(ctx context.Context, fid string, limit int) ([]*domain.LedgerEntry, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	entries, err := retryRead(ctx, func() ([]*domain.LedgerEntry, error) {
		entries, err := s.ledger.ListByFID(ctx, fid, limit)
		return entries, storeError("list ledger", err)
	})
	if err != nil {
		return nil, fail(ctx, "history", fid, err)
	}
	if entries == nil {
		entries = []*domain.LedgerEntry{}
	}
	return entries, nil
}

// recordWithTx appends a self-adjustment entry; no-op changes are skipped.
func (s *BalanceService) recordWithTx(ctx context.Context, tx pgx.Tx, change *domain.BalanceChange) error {
	if change.Change == 0 {
		return nil
	}
	return s.ledger.CreateWithTx(ctx, tx, &domain.LedgerEntry{
		FromFID: change.FID,
		ToFID:   change.FID,
		Amount:  change.Change,
		Reason:  change.Reason,
	})
}

// committed runs after a successful commit.
func (s *BalanceService) committed(ctx context.Context, changes ...*domain.BalanceChange) {
	for _, c := range changes {
		ledgerMutations.WithLabelValues(c.Reason).Inc()
	}
	publishChanges(ctx, s.events, changes...)
}
