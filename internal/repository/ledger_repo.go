package repository

import (
	"context"

	"oink_ledger/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRefIndex is the unique index guarding one transfer per message.
const MessageRefIndex = "uq_ledger_entries_message_ref"

// LedgerRepository is append-only: there is no update or delete.
type LedgerRepository struct {
	db *pgxpool.Pool
}

func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateWithTx appends an entry inside the transaction that changed the
// balances it describes.
func (r *LedgerRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	return tx.QueryRow(ctx,
		`INSERT INTO ledger_entries (id, from_fid, to_fid, amount, reason, message_ref)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		e.ID, e.FromFID, e.ToFID, e.Amount, e.Reason, e.MessageRef,
	).Scan(&e.CreatedAt)
}

// ListByFID returns entries where fid is either side, newest first.
func (r *LedgerRepository) ListByFID(ctx context.Context, fid string, limit int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, from_fid, to_fid, amount, reason, message_ref, created_at
		 FROM ledger_entries
		 WHERE from_fid = $1 OR to_fid = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		fid, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanRows(rows)
}

// Helper to scan rows into LedgerEntry slice
func (r *LedgerRepository) scanRows(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var result []*domain.LedgerEntry

	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.FromFID, &e.ToFID, &e.Amount, &e.Reason, &e.MessageRef, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}

	return result, rows.Err()
}
