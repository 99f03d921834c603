package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"deskchat/internal/db"
	"deskchat/internal/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "deskchat.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// registerUser is a shorthand for tests that just need accounts.
func registerUser(t *testing.T, repo *UserRepo, username string) models.User {
	t.Helper()
	user, err := repo.Register(context.Background(), username, "secret1", "")
	require.NoError(t, err)
	return user
}
