package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// PoolRepository reads and seeds pools, resources and areas.
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository constructs the repository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListPools returns every pool ordered by id.
func (r *PoolRepository) ListPools(ctx context.Context) ([]models.Pool, error) {
	var pools []models.Pool
	if err := r.db.SelectContext(ctx, &pools, `SELECT id, key FROM pools ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	return pools, nil
}

// FindPoolByKey loads a pool by its key.
func (r *PoolRepository) FindPoolByKey(ctx context.Context, key string) (*models.Pool, error) {
	var pool models.Pool
	if err := r.db.GetContext(ctx, &pool, `SELECT id, key FROM pools WHERE key = $1`, key); err != nil {
		return nil, err
	}
	return &pool, nil
}

// ListResources returns the resources of a pool ordered by number.
func (r *PoolRepository) ListResources(ctx context.Context, poolID int) ([]models.Resource, error) {
	const query = `SELECT id, pool_id, number, capacity, zone FROM resources WHERE pool_id = $1 ORDER BY number ASC`
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, poolID); err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

// ListAllResources returns every resource ordered by pool then number.
func (r *PoolRepository) ListAllResources(ctx context.Context) ([]models.Resource, error) {
	const query = `SELECT id, pool_id, number, capacity, zone FROM resources ORDER BY pool_id ASC, number ASC`
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query); err != nil {
		return nil, fmt.Errorf("list all resources: %w", err)
	}
	return resources, nil
}

// ListAreas returns area tags, optionally restricted to one pool.
func (r *PoolRepository) ListAreas(ctx context.Context, poolID *int) ([]models.Area, error) {
	query := `SELECT id, pool_id, key, name, units_count, bookable FROM areas`
	var args []interface{}
	if poolID != nil {
		query += ` WHERE pool_id = $1`
		args = append(args, *poolID)
	}
	query += ` ORDER BY pool_id ASC, key ASC`
	var areas []models.Area
	if err := r.db.SelectContext(ctx, &areas, query, args...); err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

// UpsertPool creates the pool when missing and returns its id.
func (r *PoolRepository) UpsertPool(ctx context.Context, exec sqlx.ExtContext, key string) (int, error) {
	const query = `INSERT INTO pools (key) VALUES ($1)
ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
RETURNING id`
	var id int
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query, key); err != nil {
		return 0, fmt.Errorf("upsert pool %s: %w", key, err)
	}
	return id, nil
}

// UpsertResource inserts or refreshes a resource keyed by (pool, number).
func (r *PoolRepository) UpsertResource(ctx context.Context, exec sqlx.ExtContext, resource models.Resource) error {
	const query = `INSERT INTO resources (pool_id, number, capacity, zone)
VALUES (:pool_id, :number, :capacity, :zone)
ON CONFLICT (pool_id, number) DO UPDATE
SET capacity = EXCLUDED.capacity,
    zone = EXCLUDED.zone`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, resource); err != nil {
		return fmt.Errorf("upsert resource %d: %w", resource.Number, err)
	}
	return nil
}

// UpsertArea inserts or refreshes an area keyed by (pool, key).
func (r *PoolRepository) UpsertArea(ctx context.Context, exec sqlx.ExtContext, area models.Area) error {
	const query = `INSERT INTO areas (pool_id, key, name, units_count, bookable)
VALUES (:pool_id, :key, :name, :units_count, :bookable)
ON CONFLICT (pool_id, key) DO UPDATE
SET name = EXCLUDED.name,
    units_count = EXCLUDED.units_count,
    bookable = EXCLUDED.bookable`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, area); err != nil {
		return fmt.Errorf("upsert area %s: %w", area.Key, err)
	}
	return nil
}
