package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var requestCols = []string{"id", "owner_id", "group_id", "start_date", "end_date", "weekdays", "slot_start", "slot_end", "pool_key", "headcount", "notes", "resources", "areas", "created_at", "updated_at"}

func TestBookingRepositoryCreateAndFindRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.BookingRequest{
		OwnerID:   "coach-1",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		Weekdays:  models.FromInts([]int{1, 3}),
		SlotStart: "07:00",
		SlotEnd:   "08:00",
		PoolKey:   models.PoolBase,
		Headcount: 12,
		Resources: models.FromInts([]int{1, 2, 3}),
	}
	require.NoError(t, repo.CreateRequest(context.Background(), req))
	require.NotEmpty(t, req.ID)

	now := time.Now()
	rows := sqlmock.NewRows(requestCols).
		AddRow(req.ID, "coach-1", nil, req.StartDate, req.EndDate, "{1,3}", "07:00", "08:00", "Base", 12, "", "{1,2,3}", "{platform}", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, group_id")).
		WithArgs(req.ID).
		WillReturnRows(rows)

	found, err := repo.FindRequest(context.Background(), nil, req.ID)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, models.ToInts(found.Weekdays))
	require.Equal(t, []int{1, 2, 3}, models.ToInts(found.Resources))
	require.Equal(t, []string{"platform"}, []string(found.Areas))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryPatchRequest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	headcount := 8
	mock.ExpectExec(regexp.QuoteMeta("UPDATE booking_requests SET headcount = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(8, sqlmock.AnyArg(), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.PatchRequest(context.Background(), nil, "req-1", models.RequestPatch{Headcount: &headcount}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE booking_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.PatchRequest(context.Background(), nil, "missing", models.RequestPatch{Headcount: &headcount})
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.PatchRequest(context.Background(), nil, "req-1", models.RequestPatch{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryInsertInstancesDefaultsDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_instances")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_instances")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	instances := []models.BookingInstance{
		{RequestID: "req-1", Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), SlotStart: "07:00", SlotEnd: "08:00", PoolKey: "Base"},
		{RequestID: "req-1", Date: time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC), SlotStart: "07:00", SlotEnd: "08:00", PoolKey: "Base"},
	}
	require.NoError(t, repo.InsertInstances(context.Background(), tx, instances))
	require.NoError(t, tx.Commit())

	for _, inst := range instances {
		require.NotEmpty(t, inst.ID)
		require.Equal(t, models.InstanceDraft, inst.Status)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryFindInstanceForUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	rows := sqlmock.NewRows([]string{"id", "request_id", "date", "slot_start", "slot_end", "pool_key", "status", "created_at"}).
		AddRow("inst-1", "req-1", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), "07:00", "08:00", "Power", "draft", time.Now())
	mock.ExpectQuery(`FROM booking_instances WHERE id = \$1 FOR UPDATE`).
		WithArgs("inst-1").
		WillReturnRows(rows)

	inst, err := repo.FindInstance(context.Background(), nil, "inst-1", true)
	require.NoError(t, err)
	require.Equal(t, models.InstanceDraft, inst.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositorySetInstanceStatusNeverRegresses(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE booking_instances SET status = $2")).
		WithArgs("inst-1", models.InstanceDraft).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetInstanceStatus(context.Background(), nil, "inst-1", models.InstanceDraft)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListApprovedFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"instance_id", "request_id", "date", "slot_start", "slot_end", "pool_key", "owner_id", "group_id", "headcount", "notes", "areas", "resources", "sync_status"}).
		AddRow("inst-1", "req-1", from, "07:00", "08:00", "Power", "coach-1", "squad-a", 10, "", "{}", "{1,2}", "pending")
	mock.ExpectQuery(`WHERE i.status = 'approved' AND i.date >= \$1 AND i.date <= \$2 AND i.pool_key = \$3 AND COALESCE\(s.status, 'pending'\) <> 'added'`).
		WithArgs(from, to, "Power").
		WillReturnRows(rows)

	list, err := repo.ListApproved(context.Background(), models.WorklistFilter{From: from, To: to, PoolKey: "Power", Sync: models.SyncPending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []int{1, 2}, models.ToInts(list[0].Resources))
	require.Equal(t, models.SyncPending, list[0].Sync)
	require.NoError(t, mock.ExpectationsWereMet())
}
