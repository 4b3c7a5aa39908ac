package repository

import (
	"context"
	"time"

	"oink_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckinDayConstraint enforces one check-in per fid per UTC day.
const CheckinDayConstraint = "uq_daily_checkins_fid_date"

type CheckinRepository struct {
	db *pgxpool.Pool
}

func NewCheckinRepository(db *pgxpool.Pool) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// Dates returns every check-in date of fid, newest first.
func (r *CheckinRepository) Dates(ctx context.Context, fid string) ([]time.Time, error) {
	rows, err := r.db.Query(ctx,
		`SELECT checkin_date FROM daily_checkins WHERE fid = $1 ORDER BY checkin_date DESC`,
		fid,
	)
	if err != nil {
		return nil, err
	}
	return scanDates(rows)
}

// DatesWithTx is Dates inside an existing transaction.
func (r *CheckinRepository) DatesWithTx(ctx context.Context, tx pgx.Tx, fid string) ([]time.Time, error) {
	rows, err := tx.Query(ctx,
		`SELECT checkin_date FROM daily_checkins WHERE fid = $1 ORDER BY checkin_date DESC`,
		fid,
	)
	if err != nil {
		return nil, err
	}
	return scanDates(rows)
}

// CreateWithTx inserts the record. A second insert for the same day fails
// with a unique violation on CheckinDayConstraint.
func (r *CheckinRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, rec *domain.CheckinRecord) error {
	return tx.QueryRow(ctx,
		`INSERT INTO daily_checkins (fid, checkin_date, streak, reward)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		rec.FID, rec.Date, rec.Streak, rec.Reward,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func scanDates(rows pgx.Rows) ([]time.Time, error) {
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
