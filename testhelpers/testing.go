// Package testhelpers sets up a real PostgreSQL database for round-trip
// tests. Tests using it are skipped unless TEST_DATABASE_URL is set.
package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"bizmanager/internal/models"
	"bizmanager/internal/repositories"
	"bizmanager/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestDB holds the database connection for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// SetupTestDB connects to TEST_DATABASE_URL and makes sure the schema
// exists. The pool is closed when the test finishes.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, connString, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err, "connect to test database")
	require.NoError(t, database.EnsureSchema(ctx, pool))
	t.Cleanup(pool.Close)

	return &TestDB{Pool: pool}
}

// NewIdentityRef returns a well-formed, unique identity reference.
func NewIdentityRef(t *testing.T) models.IdentityRef {
	t.Helper()
	subject := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	ref, err := models.NewIdentityRef("auth0|" + subject)
	require.NoError(t, err)
	return ref
}

// SetupTestUser stores a live user and returns it.
func SetupTestUser(t *testing.T, db *TestDB) *models.User {
	t.Helper()

	name, err := models.NewName("Test", "Owner")
	require.NoError(t, err)
	email, err := models.NewEmail("owner-" + uuid.NewString()[:8] + "@example.com")
	require.NoError(t, err)
	user, err := models.NewUser(uuid.New(), NewIdentityRef(t), name, email, time.Now().Add(-time.Minute), false, false)
	require.NoError(t, err)

	require.NoError(t, repositories.NewUserRepo(db.Pool).Create(context.Background(), user))
	return user
}

// SetupTestBusiness stores a live business owned by ownerID.
func SetupTestBusiness(t *testing.T, db *TestDB, ownerID uuid.UUID) *models.Business {
	t.Helper()

	name, err := models.NewBusinessName("Test Business LLC", "Test Business")
	require.NoError(t, err)
	structure, err := models.NewBusinessStructure(1, "US")
	require.NoError(t, err)
	business, err := models.NewBusiness(uuid.New(), ownerID, name, structure, "Retail", false)
	require.NoError(t, err)

	require.NoError(t, repositories.NewBusinessRepo(db.Pool).Create(context.Background(), business))
	return business
}
