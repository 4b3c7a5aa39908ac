package service

import (
	"context"
	"time"

	"oink_ledger/internal/db"
	"oink_ledger/internal/domain"
	"oink_ledger/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckinService grants at most one reward per fid per UTC day.
type CheckinService struct {
	db         *pgxpool.Pool
	checkins   *repository.CheckinRepository
	balances   *BalanceService
	reward     int64
	bonusTiers []StreakBonusTier
	now        func() time.Time
}

// NewCheckinService creates a check-in service paying a flat reward. With
// streakBonus the DefaultStreakBonusTiers are added on milestone days.
func NewCheckinService(db *pgxpool.Pool, balances *BalanceService, reward int64, streakBonus bool) *CheckinService {
	s := &CheckinService{
		db:       db,
		checkins: repository.NewCheckinRepository(db),
		balances: balances,
		reward:   reward,
		now:      time.Now,
	}
	if streakBonus {
		s.bonusTiers = DefaultStreakBonusTiers
	}
	return s
}

// WithClock replaces the wall clock; the date is always taken in UTC.
func (s *CheckinService) WithClock(now func() time.Time) *CheckinService {
	s.now = now
	return s
}

// GetStatus recomputes the streak from check-in history.
func (s *CheckinService) GetStatus(ctx context.Context, fid string) (*domain.CheckinStatus, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}

	dates, err := retryRead(ctx, func() ([]time.Time, error) {
		dates, err := s.checkins.Dates(ctx, fid)
		return dates, storeError("list checkins", err)
	})
	if err != nil {
		return nil, fail(ctx, "checkin_status", fid, err)
	}
	return statusFrom(dates, s.now()), nil
}

// PerformCheckin records today's check-in and credits the reward in one
// transaction. A second call on the same UTC day fails with
// ErrAlreadyCheckedIn, also when both calls race.
func (s *CheckinService) PerformCheckin(ctx context.Context, fid, username string) (*domain.CheckinResult, error) {
	fid, err := normalizeFID("fid", fid)
	if err != nil {
		return nil, err
	}
	username = normalizeUsername(username)

	now := s.now()
	today := dayUTC(now)
	yesterday := today.AddDate(0, 0, -1)

	var (
		result *domain.CheckinResult
		change *domain.BalanceChange
	)
	err = db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		dates, err := s.checkins.DatesWithTx(ctx, tx, fid)
		if err != nil {
			return err
		}
		if hasDay(dates, today) {
			return ErrAlreadyCheckedIn
		}

		streak := 1
		if hasDay(dates, yesterday) {
			pre, _, _ := streakFrom(dates, now)
			streak = pre + 1
		}
		bonus := bonusFor(s.bonusTiers, streak)

		rec := &domain.CheckinRecord{
			FID:    fid,
			Date:   today,
			Streak: streak,
			Reward: s.reward + bonus,
		}
		if err := s.checkins.CreateWithTx(ctx, tx, rec); err != nil {
			// the unique constraint is the final arbiter under races
			if repository.IsUniqueViolation(err, repository.CheckinDayConstraint) {
				return ErrAlreadyCheckedIn
			}
			return err
		}

		change, err = s.balances.AdjustWithTx(ctx, tx, fid, username, rec.Reward, domain.ReasonCheckin)
		if err != nil {
			return err
		}

		_, chain, _ := streakFrom(append(dates, today), now)
		result = &domain.CheckinResult{
			Date:        today,
			Streak:      streak,
			Reward:      rec.Reward,
			Bonus:       bonus,
			Balance:     change.Balance,
			StreakDates: chain,
		}
		return nil
	})
	if err != nil {
		return nil, fail(ctx, "checkin", fid, err)
	}

	checkinsTotal.Inc()
	s.balances.committed(ctx, change)
	return result, nil
}
