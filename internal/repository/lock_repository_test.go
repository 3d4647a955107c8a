package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
)

func TestLockRepositoryCreateIfAbsent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	monday := time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lock_periods")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("lock-1"))
	lock := &models.LockPeriod{WeekStart: monday, Note: "weekly lock"}
	created, err := repo.CreateIfAbsent(context.Background(), lock)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "lock-1", lock.ID)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lock_periods")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	created, err = repo.CreateIfAbsent(context.Background(), &models.LockPeriod{WeekStart: monday})
	require.NoError(t, err)
	require.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepositoryFindCoveringUsesSevenDaySpan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLockRepository(db)

	day := time.Date(2025, 10, 5, 15, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, week_start, locked_at, note FROM lock_periods")).
		WithArgs(time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), time.Date(2025, 9, 28, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "week_start", "locked_at", "note"}).
			AddRow("lock-1", time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC), time.Now(), ""))

	lock, err := repo.FindCovering(context.Background(), day)
	require.NoError(t, err)
	require.Equal(t, "lock-1", lock.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
