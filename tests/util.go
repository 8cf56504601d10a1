package testutil

import (
	"context"
	"path/filepath"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/student"
	"github.com/csnedu/appointments/storage/database"
	sqlxrepos "github.com/csnedu/appointments/storage/database/sqlx"
)

// PrepareDB opens an isolated, migrated in-memory sqlite3 database, closed when the test ends.
// A single connection is used, so callers must run every query of a transaction on the transaction.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := database.OpenDSN("sqlite3", dsn, 1)
	require.NoError(t, err, "PrepareDB()")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db), "PrepareDB()")
	return db
}

// PrepareFileDB opens a migrated sqlite3 database file of the test temp dir, with a pool
// of maxOpenConns connections, so transactions really run concurrently.
func PrepareFileDB(t *testing.T, maxOpenConns int) *sqlx.DB {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "appointments.db"))
	db, err := database.OpenDSN("sqlite3", dsn, maxOpenConns)
	require.NoError(t, err, "PrepareFileDB()")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db), "PrepareFileDB()")
	return db
}

// NewValidator returns a validator with every application rule registered,
// and the translator its messages are registered on.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	booking.InitValidators(validate, translator)
	return validate, translator
}

// CreateStudent inserts a student & its credential without validation.
func CreateStudent(t *testing.T, db *sqlx.DB, name, email, username, pwd string) student.Student {
	t.Helper()

	repo := sqlxrepos.NewStudentRepository(db)
	st, err := repo.CreateStudent(context.Background(), student.Student{Name: name, Email: email})
	require.NoError(t, err, "CreateStudent()")

	cred := student.Credential{StudentID: st.ID, Username: username}
	require.NoError(t, cred.SetPassword(pwd), "CreateStudent()")
	require.NoError(t, repo.CreateCredential(context.Background(), cred), "CreateStudent()")
	return st
}

// SeedReferenceData inserts the reference locations & exams.
func SeedReferenceData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	repo := sqlxrepos.NewBookingRepository(db)
	for _, loc := range booking.ReferenceLocations {
		_, err := repo.CreateLocationIfNotExist(context.Background(), loc)
		require.NoError(t, err, "SeedReferenceData()")
	}
	for _, name := range booking.ReferenceExams {
		_, err := repo.CreateExamIfNotExist(context.Background(), name)
		require.NoError(t, err, "SeedReferenceData()")
	}
}

// CountRows returns the number of rows of table.
func CountRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM "+table), "CountRows()")
	return n
}
