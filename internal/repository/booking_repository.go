package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rackbook-api/internal/models"
)

const requestColumns = `id, owner_id, group_id, start_date, end_date, weekdays, slot_start, slot_end, pool_key, headcount, notes, resources, areas, created_at, updated_at`

const instanceColumns = `id, request_id, date, slot_start, slot_end, pool_key, status, created_at`

// BookingRepository persists booking requests and their dated instances.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateRequest stores a new booking request.
func (r *BookingRepository) CreateRequest(ctx context.Context, request *models.BookingRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO booking_requests (` + requestColumns + `)
VALUES (:id, :owner_id, :group_id, :start_date, :end_date, :weekdays, :slot_start, :slot_end, :pool_key, :headcount, :notes, :resources, :areas, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create booking request: %w", err)
	}
	return nil
}

// FindRequest loads a booking request by id.
func (r *BookingRepository) FindRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	var request models.BookingRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &request, `SELECT `+requestColumns+` FROM booking_requests WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// PatchRequest applies the non-nil fields of the patch.
func (r *BookingRepository) PatchRequest(ctx context.Context, exec sqlx.ExtContext, id string, patch models.RequestPatch) error {
	if patch.Empty() {
		return nil
	}
	setParts := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if patch.Headcount != nil {
		args = append(args, *patch.Headcount)
		setParts = append(setParts, fmt.Sprintf("headcount = $%d", len(args)))
	}
	if patch.Notes != nil {
		args = append(args, *patch.Notes)
		setParts = append(setParts, fmt.Sprintf("notes = $%d", len(args)))
	}
	if patch.Areas != nil {
		args = append(args, pq.StringArray(patch.Areas))
		setParts = append(setParts, fmt.Sprintf("areas = $%d", len(args)))
	}
	args = append(args, time.Now().UTC())
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)
	query := fmt.Sprintf("UPDATE booking_requests SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))

	result, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch booking request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check booking request patch rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertInstances bulk inserts dated instances using the provided executor.
func (r *BookingRepository) InsertInstances(ctx context.Context, exec sqlx.ExtContext, instances []models.BookingInstance) error {
	if len(instances) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()
	const query = `INSERT INTO booking_instances (` + instanceColumns + `)
VALUES (:id, :request_id, :date, :slot_start, :slot_end, :pool_key, :status, :created_at)`
	for i := range instances {
		inst := &instances[i]
		if inst.ID == "" {
			inst.ID = uuid.NewString()
		}
		if inst.Status == "" {
			inst.Status = models.InstanceDraft
		}
		if inst.CreatedAt.IsZero() {
			inst.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, inst); err != nil {
			return fmt.Errorf("insert booking instance: %w", err)
		}
	}
	return nil
}

// ListInstances returns the instances of a request ordered by date.
func (r *BookingRepository) ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error) {
	const query = `SELECT ` + instanceColumns + ` FROM booking_instances WHERE request_id = $1 ORDER BY date ASC, slot_start ASC`
	var instances []models.BookingInstance
	if err := r.db.SelectContext(ctx, &instances, query, requestID); err != nil {
		return nil, fmt.Errorf("list booking instances: %w", err)
	}
	return instances, nil
}

// FindInstance loads an instance; forUpdate locks the row inside a transaction.
func (r *BookingRepository) FindInstance(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.BookingInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM booking_instances WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var inst models.BookingInstance
	if err := sqlx.GetContext(ctx, r.exec(exec), &inst, query, id); err != nil {
		return nil, err
	}
	return &inst, nil
}

// ListBlockSiblings returns every instance of the request sharing slot and pool.
func (r *BookingRepository) ListBlockSiblings(ctx context.Context, inst models.BookingInstance) ([]models.BookingInstance, error) {
	const query = `SELECT ` + instanceColumns + ` FROM booking_instances
WHERE request_id = $1 AND slot_start = $2 AND slot_end = $3 AND pool_key = $4
ORDER BY date ASC`
	var instances []models.BookingInstance
	if err := r.db.SelectContext(ctx, &instances, query, inst.RequestID, inst.SlotStart, inst.SlotEnd, inst.PoolKey); err != nil {
		return nil, fmt.Errorf("list block siblings: %w", err)
	}
	return instances, nil
}

// SetInstanceStatus moves an instance to the given status. An approved instance only accepts approved.
func (r *BookingRepository) SetInstanceStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.InstanceStatus) error {
	const query = `UPDATE booking_instances SET status = $2
WHERE id = $1 AND (status <> 'approved' OR $2 = 'approved')`
	result, err := r.exec(exec).ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("set booking instance status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check booking instance status rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByStatus returns instances in the given status joined with request fields, oldest date first.
func (r *BookingRepository) ListByStatus(ctx context.Context, status models.InstanceStatus) ([]models.InstanceWithRequest, error) {
	const query = `SELECT i.id, i.request_id, i.date, i.slot_start, i.slot_end, i.pool_key, i.status, i.created_at,
       b.owner_id, b.group_id, b.headcount, b.notes, b.resources
FROM booking_instances i
JOIN booking_requests b ON b.id = i.request_id
WHERE i.status = $1
ORDER BY i.date ASC, i.slot_start ASC`
	var rows []models.InstanceWithRequest
	if err := r.db.SelectContext(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("list booking instances by status: %w", err)
	}
	return rows, nil
}

// ListApproved returns approved instances with their allocation and sync state.
func (r *BookingRepository) ListApproved(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT i.id AS instance_id, i.request_id, i.date, i.slot_start, i.slot_end, i.pool_key,
       b.owner_id, b.group_id, b.headcount, b.notes, b.areas,
       COALESCE(a.resources, '{}') AS resources,
       COALESCE(s.status, 'pending') AS sync_status
FROM booking_instances i
JOIN booking_requests b ON b.id = i.request_id
LEFT JOIN allocations a ON a.instance_id = i.id
LEFT JOIN sync_marks s ON s.instance_id = i.id
WHERE i.status = 'approved' AND i.date >= $1 AND i.date <= $2`)
	args := []interface{}{models.DateOnly(filter.From), models.DateOnly(filter.To)}

	if filter.PoolKey != "" {
		args = append(args, filter.PoolKey)
		builder.WriteString(fmt.Sprintf(" AND i.pool_key = $%d", len(args)))
	}
	if filter.SlotStart != "" {
		args = append(args, filter.SlotStart, filter.SlotEnd)
		builder.WriteString(fmt.Sprintf(" AND i.slot_start = $%d AND i.slot_end = $%d", len(args)-1, len(args)))
	}
	switch filter.Sync {
	case models.SyncAdded:
		builder.WriteString(" AND s.status = 'added'")
	case models.SyncPending:
		builder.WriteString(" AND COALESCE(s.status, 'pending') <> 'added'")
	}
	builder.WriteString(" ORDER BY i.date ASC, i.slot_start ASC")

	var rows []models.WorklistRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list approved instances: %w", err)
	}
	return rows, nil
}
