package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// AllocationRepository persists allocations and sync marks.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs the repository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// TakenResources returns the sorted resource numbers held on the pool for exactly this date and slot.
func (r *AllocationRepository) TakenResources(ctx context.Context, poolID int, day time.Time, slot models.Slot) ([]int, error) {
	const query = `SELECT a.resources FROM allocations a
JOIN booking_instances i ON i.id = a.instance_id
WHERE a.pool_id = $1 AND i.date = $2 AND i.slot_start = $3 AND i.slot_end = $4 AND a.status = ANY($5)`
	statuses := make(pq.StringArray, len(models.TakenStatuses))
	for i, s := range models.TakenStatuses {
		statuses[i] = string(s)
	}
	var held []pq.Int64Array
	if err := r.db.SelectContext(ctx, &held, query, poolID, models.DateOnly(day), slot.Start, slot.End, statuses); err != nil {
		return nil, fmt.Errorf("taken resources: %w", err)
	}
	seen := make(map[int]struct{})
	for _, arr := range held {
		for _, n := range arr {
			seen[int(n)] = struct{}{}
		}
	}
	taken := make([]int, 0, len(seen))
	for n := range seen {
		taken = append(taken, n)
	}
	sort.Ints(taken)
	return taken, nil
}

// Upsert writes the allocation of an instance, replacing any existing one.
func (r *AllocationRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, alloc *models.Allocation) error {
	if alloc.ID == "" {
		alloc.ID = uuid.NewString()
	}
	alloc.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO allocations (id, instance_id, pool_id, resources, status, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (instance_id) DO UPDATE
SET pool_id = EXCLUDED.pool_id,
    resources = EXCLUDED.resources,
    status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at
RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &alloc.ID, query,
		alloc.ID, alloc.InstanceID, alloc.PoolID, alloc.Resources, alloc.Status, alloc.UpdatedAt); err != nil {
		return fmt.Errorf("upsert allocation: %w", err)
	}
	return nil
}

// UpsertSyncMark sets the external sync state of an instance.
func (r *AllocationRepository) UpsertSyncMark(ctx context.Context, exec sqlx.ExtContext, instanceID string, status models.SyncStatus) error {
	const query = `INSERT INTO sync_marks (instance_id, status, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (instance_id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	if _, err := r.exec(exec).ExecContext(ctx, query, instanceID, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert sync mark: %w", err)
	}
	return nil
}

// MarkAdded flags every given instance as copied into the external sheet.
func (r *AllocationRepository) MarkAdded(ctx context.Context, exec sqlx.ExtContext, instanceIDs []string) (int, error) {
	target := r.exec(exec)
	for _, id := range instanceIDs {
		if err := r.UpsertSyncMark(ctx, target, id, models.SyncAdded); err != nil {
			return 0, err
		}
	}
	return len(instanceIDs), nil
}
