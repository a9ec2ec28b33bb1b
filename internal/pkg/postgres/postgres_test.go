package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/pkg/postgres/migrations"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "categories_slug_key"))
	assert.False(t, IsUniqueViolation(err, "listing_images_position_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("boom"), ""))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("noop", nil))

	err := Classify("find listing", driver.ErrBadConn)
	var te *apperror.TransientStorageError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "find listing", te.Op)
	assert.ErrorIs(t, err, driver.ErrBadConn)

	err = Classify("find listing", context.DeadlineExceeded)
	assert.True(t, apperror.IsTransient(err))

	err = Classify("insert listing", &pgconn.PgError{Code: "23514"})
	assert.False(t, apperror.IsTransient(err))
	assert.Contains(t, err.Error(), "insert listing")
}

func TestRetryReadStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), 3, func() (int, error) {
		calls++
		return 0, apperror.NotFound("listing", "x")
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 1, calls)
}

func TestRetryReadRetriesTransientFailures(t *testing.T) {
	calls := 0
	v, err := RetryRead(context.Background(), 3, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &apperror.TransientStorageError{Op: "read", Err: driver.ErrBadConn}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestRetryReadGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	_, err := RetryRead(context.Background(), 2, func() (int, error) {
		calls++
		return 0, &apperror.TransientStorageError{Op: "read", Err: driver.ErrBadConn}
	})
	assert.True(t, apperror.IsTransient(err))
	assert.Equal(t, 2, calls)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := ExtractUpMigration(content)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")

	assert.Equal(t, "SELECT 1;", ExtractUpMigration("SELECT 1;"))
}

func TestEmbeddedMigrationsCoverEveryTable(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, f := range files {
		b, err := fs.ReadFile(migrations.FS, f)
		require.NoError(t, err)
		all.WriteString(ExtractUpMigration(string(b)))
	}
	for _, table := range []string{
		"categories", "category_suggestions", "listings", "listing_images", "listing_status_events",
		"yacht_extensions", "part_extensions", "marina_extensions", "crew_extensions",
		"equipment_extensions", "service_extensions", "storage_extensions", "insurance_extensions",
		"expertise_extensions", "marketplace_item_extensions",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
