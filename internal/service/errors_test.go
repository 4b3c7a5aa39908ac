package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreError_PassesDomainErrors(t *testing.T) {
	for _, err := range []error{
		ErrAlreadyCheckedIn,
		ErrSenderNotFound,
		&InsufficientFundsError{Balance: 5, Requested: 10},
		invalid("fid", "is required"),
	} {
		assert.Same(t, err, storeError("op", err))
	}
	assert.NoError(t, storeError("op", nil))
}

func TestStoreError_MarksOutages(t *testing.T) {
	outages := []error{
		context.DeadlineExceeded,
		fmt.Errorf("query: %w", context.DeadlineExceeded),
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
	}
	for _, cause := range outages {
		err := storeError("get balance", cause)
		assert.ErrorIs(t, err, ErrStoreUnavailable, "%v", cause)
		assert.ErrorIs(t, err, cause)
	}

	err := storeError("get balance", &pgconn.PgError{Code: "23514"})
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "get balance")
}

func TestInsufficientFundsError(t *testing.T) {
	err := fmt.Errorf("tip: %w", &InsufficientFundsError{Balance: 3, Requested: 7})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	var funds *InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.Equal(t, int64(3), funds.Balance)
}

func TestValidationError_WrapsCause(t *testing.T) {
	err := &ValidationError{Field: "toFid", Reason: "guest", Err: ErrGuestAccount}
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrGuestAccount)
	assert.Equal(t, "toFid: guest", err.Error())
}

func TestRetryRead(t *testing.T) {
	calls := 0
	v, err := retryRead(context.Background(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, storeError("read", context.DeadlineExceeded)
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 2, calls)

	calls = 0
	_, err = retryRead(context.Background(), func() (int, error) {
		calls++
		return 0, ErrAccountNotFound
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, 1, calls, "business errors are not retried")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls = 0
	_, err = retryRead(ctx, func() (int, error) {
		calls++
		return 0, storeError("read", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Equal(t, 1, calls, "no retry once the caller gave up")
}

func TestNormalizeReason(t *testing.T) {
	r, err := normalizeReason("", "game")
	require.NoError(t, err)
	assert.Equal(t, "game", r)

	r, err = normalizeReason("  Game:Slots ", "game")
	require.NoError(t, err)
	assert.Equal(t, "game:slots", r)

	_, err = normalizeReason("drop table;", "game")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeFID(t *testing.T) {
	fid, err := normalizeFID("fid", " 1234 ")
	require.NoError(t, err)
	assert.Equal(t, "1234", fid)

	_, err = normalizeFID("fid", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	long := make([]byte, maxFieldLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = normalizeFID("fid", string(long))
	assert.ErrorIs(t, err, ErrValidation)
}
