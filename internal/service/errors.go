package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateTransfer = errors.New("transfer already recorded for this message")
	ErrStoreUnavailable  = errors.New("ledger store unavailable")
	ErrGuestAccount      = errors.New("guest accounts cannot send or receive tips")

	ErrSenderNotFound    = fmt.Errorf("sender: %w", ErrAccountNotFound)
	ErrRecipientNotFound = fmt.Errorf("recipient: %w", ErrAccountNotFound)
)

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientFundsError carries the unchanged balance for display.
type InsufficientFundsError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Balance, e.Requested)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// storeError passes domain errors through untouched and marks connectivity
// failures as ErrStoreUnavailable.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainError(err):
		return err
	case isStoreUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrValidation,
		ErrInsufficientFunds,
		ErrAlreadyCheckedIn,
		ErrAccountNotFound,
		ErrDuplicateTransfer,
		ErrStoreUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isStoreUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryRead runs an idempotent read once more after a store outage.
func retryRead[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	v, err := fn()
	if errors.Is(err, ErrStoreUnavailable) && ctx.Err() == nil {
		return fn()
	}
	return v, err
}

const maxFieldLen = 64

var reasonPattern = regexp.MustCompile(`^[a-z0-9_:.-]+$`)

func normalizeFID(field, fid string) (string, error) {
	fid = strings.TrimSpace(fid)
	if fid == "" {
		return "", invalid(field, "is required")
	}
	if len(fid) > maxFieldLen {
		return "", invalid(field, "is too long")
	}
	return fid, nil
}

func normalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if len(username) > maxFieldLen {
		username = username[:maxFieldLen]
	}
	return username
}

// normalizeReason lowercases the tag and falls back when it is empty.
func normalizeReason(reason, fallback string) (string, error) {
	reason = strings.ToLower(strings.TrimSpace(reason))
	if reason == "" {
		return fallback, nil
	}
	if len(reason) > maxFieldLen || !reasonPattern.MatchString(reason) {
		return "", invalid("reason", "must be a short tag of [a-z0-9_:.-]")
	}
	return reason, nil
}

func requirePositive(field string, amount int64) error {
	if amount <= 0 {
		return invalid(field, "must be a positive integer")
	}
	return nil
}
