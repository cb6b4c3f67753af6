package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"elearning-access/internal/domain/access"
	"elearning-access/internal/domain/enrollments"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*EnrollmentsRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewEnrollmentsRepo(db), mock
}

func TestEnrollmentsRepo_UpdateProgress_RowsAffectedError(t *testing.T) {
	repo, mock := newMockRepo(t)

	boom := errors.New("rows affected unavailable")
	mock.ExpectExec("UPDATE enrollments").WillReturnResult(sqlmock.NewErrorResult(boom))

	err := repo.UpdateProgress(context.Background(), "e-1", 50, false, time.Now())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentsRepo_UpdateProgress_NoRows(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE enrollments").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProgress(context.Background(), "missing", 50, false, time.Now())
	assert.ErrorIs(t, err, enrollments.ErrNotFound)
}

func TestEnrollmentsRepo_UpdateAccess_StaleVersion(t *testing.T) {
	repo, mock := newMockRepo(t)
	ent := access.Entitlement{AccessDuration: access.DurationLifetime, AccessStartDate: time.Now()}

	mock.ExpectQuery("UPDATE enrollments").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.UpdateAccess(context.Background(), "e-1", 1, ent, time.Now())
	assert.ErrorIs(t, err, enrollments.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentsRepo_UpdateAccess_Missing(t *testing.T) {
	repo, mock := newMockRepo(t)
	ent := access.Entitlement{AccessDuration: access.DurationLifetime, AccessStartDate: time.Now()}

	mock.ExpectQuery("UPDATE enrollments").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("e-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := repo.UpdateAccess(context.Background(), "e-1", 1, ent, time.Now())
	assert.ErrorIs(t, err, enrollments.ErrNotFound)
}

func TestEnrollmentsRepo_UpdateAccess_ReturnsNewVersion(t *testing.T) {
	repo, mock := newMockRepo(t)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ent := access.Entitlement{AccessDuration: access.DurationOneMonth, AccessStartDate: end.AddDate(0, -1, 0), AccessEndDate: &end}

	mock.ExpectQuery("UPDATE enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(4)))

	v, err := repo.UpdateAccess(context.Background(), "e-1", 3, ent, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 4, v)
}
