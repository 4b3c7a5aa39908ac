package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: CheckinDayConstraint}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, CheckinDayConstraint))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup), CheckinDayConstraint))
	assert.False(t, IsUniqueViolation(dup, MessageRefIndex))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
