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

func TestPolicyRepositoryFindWindowForDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	day := time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`ORDER BY start_date DESC LIMIT 1`).
		WithArgs(day).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "profile", "start_date", "end_date", "created_at"}).
			AddRow("w-2", "Term 3", "term", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), time.Now()))

	window, err := repo.FindWindowForDate(context.Background(), day.Add(9*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "w-2", window.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepositoryFindSlotMode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM slot_modes")).
		WithArgs("w-1", 1, 3, "07:00", "08:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "window_id", "pool_id", "weekday", "slot_start", "slot_end", "mode", "performance_cap", "general_cap"}).
			AddRow("row-1", "w-1", 1, 3, "07:00", "08:00", "HYBRID", 12, nil))

	row, err := repo.FindSlotMode(context.Background(), "w-1", 1, 3, models.Slot{Start: "07:00", End: "08:00"})
	require.NoError(t, err)
	require.Equal(t, models.ModeHybrid, row.Mode)
	require.Equal(t, 12, *row.PerformanceCap)
	require.Nil(t, row.GeneralCap)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepositoryListExceptionsOverlap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPolicyRepository(db)

	start := time.Date(2025, 9, 24, 7, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE pool_id = $1 AND starts_at < $3 AND ends_at > $2")).
		WithArgs(2, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id", "pool_id", "starts_at", "ends_at", "reason"}).
			AddRow("ex-1", 2, start.Add(-time.Hour), start.Add(30*time.Minute), "floor repair"))

	list, err := repo.ListExceptions(context.Background(), 2, start, end)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "floor repair", list[0].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}
