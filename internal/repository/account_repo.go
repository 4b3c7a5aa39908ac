package repository

import (
	"context"
	"errors"

	"oink_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository owns the accounts table. Every balance write is a single
// UPDATE/UPSERT evaluated by the database; no method writes a balance that
// was computed in Go from an earlier read.
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Ensure creates the account with the default balance unless it exists.
// Concurrent callers never double-create: the loser hits ON CONFLICT.
func (r *AccountRepository) Ensure(ctx context.Context, fid, username string, defaultBalance int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO accounts (fid, username, balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (fid) DO NOTHING`,
		fid, username, defaultBalance,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// EnsureWithTx is Ensure inside an existing transaction.
func (r *AccountRepository) EnsureWithTx(ctx context.Context, tx pgx.Tx, fid, username string, defaultBalance int64) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO accounts (fid, username, balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (fid) DO NOTHING`,
		fid, username, defaultBalance,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetBalance returns ErrNotFound for unknown fids.
func (r *AccountRepository) GetBalance(ctx context.Context, fid string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM accounts WHERE fid = $1`, fid).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (r *AccountRepository) GetByFID(ctx context.Context, fid string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRow(ctx,
		`SELECT fid, username, balance, created_at, updated_at
		 FROM accounts
		 WHERE fid = $1`,
		fid,
	).Scan(&a.FID, &a.Username, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByUsername matches case-insensitively on the trimmed username. When
// several accounts share a label the most recently active one wins.
func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRow(ctx,
		`SELECT fid, username, balance, created_at, updated_at
		 FROM accounts
		 WHERE lower(btrim(username)) = lower(btrim($1))
		 ORDER BY updated_at DESC
		 LIMIT 1`,
		username,
	).Scan(&a.FID, &a.Username, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// LockBalanceWithTx reads the balance under a row lock held until commit.
func (r *AccountRepository) LockBalanceWithTx(ctx context.Context, tx pgx.Tx, fid string) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE fid = $1 FOR UPDATE`, fid).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

// LockBalancesWithTx locks every existing account among fids in fid order, so
// two transfers touching the same pair cannot deadlock. Missing fids are
// absent from the result.
func (r *AccountRepository) LockBalancesWithTx(ctx context.Context, tx pgx.Tx, fids []string) (map[string]int64, error) {
	rows, err := tx.Query(ctx,
		`SELECT fid, balance FROM accounts WHERE fid = ANY($1) ORDER BY fid FOR UPDATE`,
		fids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := make(map[string]int64, len(fids))
	for rows.Next() {
		var (
			fid     string
			balance int64
		)
		if err := rows.Scan(&fid, &balance); err != nil {
			return nil, err
		}
		balances[fid] = balance
	}
	return balances, rows.Err()
}

// AdjustClampedWithTx applies balance = max(0, balance + delta).
func (r *AccountRepository) AdjustClampedWithTx(ctx context.Context, tx pgx.Tx, fid, username string, delta int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = GREATEST(0, balance + $2),
		     username = COALESCE(NULLIF($3, ''), username),
		     updated_at = now()
		 WHERE fid = $1
		 RETURNING balance`,
		fid, delta, username,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

// SetWithTx overwrites the balance with a caller-supplied absolute value.
func (r *AccountRepository) SetWithTx(ctx context.Context, tx pgx.Tx, fid, username string, value int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = $2,
		     username = COALESCE(NULLIF($3, ''), username),
		     updated_at = now()
		 WHERE fid = $1
		 RETURNING balance`,
		fid, value, username,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

// DebitWithTx subtracts amount only when the balance covers it. ok is false
// when the account exists but the balance is insufficient.
func (r *AccountRepository) DebitWithTx(ctx context.Context, tx pgx.Tx, fid string, amount int64) (newBalance int64, ok bool, err error) {
	err = tx.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = balance - $2, updated_at = now()
		 WHERE fid = $1 AND balance >= $2
		 RETURNING balance`,
		fid, amount,
	).Scan(&newBalance)
	if err == nil {
		return newBalance, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// Could be not found or insufficient funds, check which
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE fid = $1)`, fid).Scan(&exists); err != nil {
		return 0, false, err
	}
	if !exists {
		return 0, false, ErrNotFound
	}
	return 0, false, nil
}

// CreditWithTx adds amount to an existing account.
func (r *AccountRepository) CreditWithTx(ctx context.Context, tx pgx.Tx, fid, username string, amount int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = balance + $2,
		     username = COALESCE(NULLIF($3, ''), username),
		     updated_at = now()
		 WHERE fid = $1
		 RETURNING balance`,
		fid, amount, username,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

// CreditOrCreateWithTx credits amount, creating the account with exactly
// amount as its first balance when it does not exist yet.
func (r *AccountRepository) CreditOrCreateWithTx(ctx context.Context, tx pgx.Tx, fid, username string, amount int64) (balance int64, created bool, err error) {
	err = tx.QueryRow(ctx,
		`INSERT INTO accounts (fid, username, balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (fid) DO UPDATE
		 SET balance = accounts.balance + EXCLUDED.balance,
		     username = COALESCE(NULLIF(EXCLUDED.username, ''), accounts.username),
		     updated_at = now()
		 RETURNING balance, (xmax = 0)`,
		fid, username, amount,
	).Scan(&balance, &created)
	return balance, created, err
}
