package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
)

func TestAllocationRepositoryTakenResourcesUnion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	day := time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"resources"}).
		AddRow("{3,1}").
		AddRow("{2,3}")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT a.resources FROM allocations a")).
		WithArgs(2, day, "07:00", "08:00", pq.StringArray{"approved", "pending", "provisional"}).
		WillReturnRows(rows)

	taken, err := repo.TakenResources(context.Background(), 2, day, models.Slot{Start: "07:00", End: "08:00"})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryUpsertReturnsExistingID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO allocations")).
		WithArgs(sqlmock.AnyArg(), "inst-1", 1, models.FromInts([]int{4, 5}), models.AllocationApproved, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("alloc-existing"))

	alloc := &models.Allocation{InstanceID: "inst-1", PoolID: 1, Resources: models.FromInts([]int{4, 5}), Status: models.AllocationApproved}
	require.NoError(t, repo.Upsert(context.Background(), nil, alloc))
	require.Equal(t, "alloc-existing", alloc.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAllocationRepositoryMarkAdded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAllocationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_marks")).
		WithArgs("inst-1", models.SyncAdded, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_marks")).
		WithArgs("inst-2", models.SyncAdded, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.MarkAdded(context.Background(), nil, []string{"inst-1", "inst-2"})
	require.NoError(t, err)
	require.Equal(t, 2, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}
