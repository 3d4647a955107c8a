package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/pkg/cache"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type inventoryReader interface {
	ListPools(ctx context.Context) ([]models.Pool, error)
	ListAllResources(ctx context.Context) ([]models.Resource, error)
	ListAreas(ctx context.Context, poolID *int) ([]models.Area, error)
}

// MatrixSlot is one slot-mode cell as displayed by the slots viewer.
type MatrixSlot struct {
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Mode       models.SlotMode `json:"mode"`
	PerfCap    *int            `json:"perfCap"`
	GeneralCap *int            `json:"generalCap"`
}

// MatrixDay is the slot catalog for one date grouped by pool key.
type MatrixDay struct {
	Date   string                  `json:"date"`
	Window models.PolicyWindow     `json:"window"`
	Slots  map[string][]MatrixSlot `json:"slots"`
}

// MatrixService serves read-only views of the policy matrix and inventory through the cache.
type MatrixService struct {
	matrix    matrixReader
	inventory inventoryReader
	cache     *CacheService
	ttl       time.Duration
	logger    *zap.Logger
}

// NewMatrixService constructs the service. cache may be nil.
func NewMatrixService(matrix matrixReader, inventory inventoryReader, cacheSvc *CacheService, ttl time.Duration, logger *zap.Logger) *MatrixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatrixService{matrix: matrix, inventory: inventory, cache: cacheSvc, ttl: ttl, logger: logger}
}

// SlotsForDate returns the active window and its slot rows for the date's weekday, grouped by pool.
func (s *MatrixService) SlotsForDate(ctx context.Context, day time.Time) (*MatrixDay, error) {
	day = models.DateOnly(day)
	return remember(ctx, s.cache, cache.Key("matrix", day.Format(models.DateLayout)), s.ttl, func() (*MatrixDay, error) {
		return s.loadDay(ctx, day)
	})
}

func (s *MatrixService) loadDay(ctx context.Context, day time.Time) (*MatrixDay, error) {
	window, err := s.matrix.FindWindowForDate(ctx, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no policy window covers %s", day.Format(models.DateLayout)))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load policy window")
	}
	rows, err := s.matrix.ListSlotModes(ctx, window.ID, models.ISOWeekday(day))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot modes")
	}
	pools, err := s.inventory.ListPools(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pools")
	}

	keys := make(map[int]string, len(pools))
	out := &MatrixDay{Date: day.Format(models.DateLayout), Window: *window, Slots: make(map[string][]MatrixSlot, len(pools))}
	for _, p := range pools {
		keys[p.ID] = p.Key
		out.Slots[p.Key] = []MatrixSlot{}
	}
	for _, row := range rows {
		poolKey, ok := keys[row.PoolID]
		if !ok {
			poolKey = fmt.Sprintf("pool-%d", row.PoolID)
		}
		out.Slots[poolKey] = append(out.Slots[poolKey], MatrixSlot{
			Start:      row.SlotStart,
			End:        row.SlotEnd,
			Mode:       row.Mode,
			PerfCap:    row.PerformanceCap,
			GeneralCap: row.GeneralCap,
		})
	}
	return out, nil
}

// Pools lists pools.
func (s *MatrixService) Pools(ctx context.Context) ([]models.Pool, error) {
	return cachedList(ctx, s.cache, cache.Key("inventory", "pools"), s.ttl, func() ([]models.Pool, error) {
		return s.inventory.ListPools(ctx)
	})
}

// Resources lists every resource ordered by pool and number.
func (s *MatrixService) Resources(ctx context.Context) ([]models.Resource, error) {
	return cachedList(ctx, s.cache, cache.Key("inventory", "resources"), s.ttl, func() ([]models.Resource, error) {
		return s.inventory.ListAllResources(ctx)
	})
}

// Areas lists area tags.
func (s *MatrixService) Areas(ctx context.Context) ([]models.Area, error) {
	return cachedList(ctx, s.cache, cache.Key("inventory", "areas"), s.ttl, func() ([]models.Area, error) {
		return s.inventory.ListAreas(ctx, nil)
	})
}

// InvalidateAll drops every cached matrix and inventory entry.
func (s *MatrixService) InvalidateAll(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cache.Key("*"))
}

func cachedList[T any](ctx context.Context, c *CacheService, key string, ttl time.Duration, load func() ([]T, error)) ([]T, error) {
	items, err := remember(ctx, c, key, ttl, load)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inventory")
	}
	return items, nil
}
