package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/imagetext/apiserver/config"
	"github.com/imagetext/apiserver/internal/db"
	"github.com/imagetext/apiserver/types"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "store.db"),
	}
	require.NoError(t, db.Migrate(ctx, cfg, db.Up))

	conn, err := db.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func createUser(t *testing.T, repo *UserRepository, email string) types.User {
	t.Helper()

	user, err := repo.Create(context.Background(), types.User{Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string {
	return &s
}
