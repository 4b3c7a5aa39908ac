package integration

import (
	"context"
	"os"
	"testing"

	"oink_ledger/internal/migrations"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// openDB connects to DATABASE_URL and applies the schema, or skips.
func openDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err, "connect db")
	t.Cleanup(db.Close)

	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err, "apply migrations")
	return db
}

// newFID returns an fid no earlier run has used.
func newFID(prefix string) string {
	return prefix + uuid.NewString()[:18]
}
