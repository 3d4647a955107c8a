package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rackbook-api/internal/models"
)

const changeRequestColumns = `id, instance_id, requested_by, reason, payload, status, decided_by, decided_at, decision_note, created_at`

// ChangeRequestRepository persists change requests.
type ChangeRequestRepository struct {
	db *sqlx.DB
}

// NewChangeRequestRepository constructs the repository.
func NewChangeRequestRepository(db *sqlx.DB) *ChangeRequestRepository {
	return &ChangeRequestRepository{db: db}
}

func (r *ChangeRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a pending change request.
func (r *ChangeRequestRepository) Create(ctx context.Context, change *models.ChangeRequest) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.Status == "" {
		change.Status = models.ChangeRequestPending
	}
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO change_requests (` + changeRequestColumns + `)
VALUES (:id, :instance_id, :requested_by, :reason, :payload, :status, :decided_by, :decided_at, :decision_note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, change); err != nil {
		return fmt.Errorf("create change request: %w", err)
	}
	return nil
}

// FindByID loads a change request, optionally locking it inside a transaction.
func (r *ChangeRequestRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string, forUpdate bool) (*models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + ` FROM change_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var change models.ChangeRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &change, query, id); err != nil {
		return nil, err
	}
	return &change, nil
}

// ListPending returns the decision queue, oldest first.
func (r *ChangeRequestRepository) ListPending(ctx context.Context) ([]models.ChangeQueueItem, error) {
	const query = `SELECT c.id, c.instance_id, c.requested_by, c.reason, c.payload, c.status, c.decided_by, c.decided_at, c.decision_note, c.created_at,
       i.date, i.pool_key, i.slot_start, i.slot_end
FROM change_requests c
JOIN booking_instances i ON i.id = c.instance_id
WHERE c.status = 'pending'
ORDER BY c.created_at ASC`
	var items []models.ChangeQueueItem
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list pending change requests: %w", err)
	}
	return items, nil
}

// DecideParams groups the columns written when a change request is decided.
type DecideParams struct {
	ID        string
	Status    models.ChangeRequestStatus
	DecidedBy string
	DecidedAt time.Time
	Note      *string
}

// Decide records the decision only while the row is still pending.
func (r *ChangeRequestRepository) Decide(ctx context.Context, exec sqlx.ExtContext, params DecideParams) error {
	const query = `UPDATE change_requests
SET status = $2, decided_by = $3, decided_at = $4, decision_note = $5
WHERE id = $1 AND status = 'pending'`
	result, err := r.exec(exec).ExecContext(ctx, query, params.ID, params.Status, params.DecidedBy, params.DecidedAt, params.Note)
	if err != nil {
		return fmt.Errorf("decide change request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check change request decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
