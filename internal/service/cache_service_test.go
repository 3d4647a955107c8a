package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type readModelStoreStub struct {
	entries map[string][]byte
	getErr  error
}

func newReadModelStoreStub() *readModelStoreStub {
	return &readModelStoreStub{entries: map[string][]byte{}}
}

func (s *readModelStoreStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *readModelStoreStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *readModelStoreStub) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	removed := 0
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

type countingInventoryStub struct {
	poolCalls int
}

func (s *countingInventoryStub) ListPools(ctx context.Context) ([]models.Pool, error) {
	s.poolCalls++
	return []models.Pool{{ID: 1, Key: models.PoolPower}, {ID: 2, Key: models.PoolBase}}, nil
}

func (s *countingInventoryStub) ListAllResources(ctx context.Context) ([]models.Resource, error) {
	return nil, errors.New("connection reset")
}

func (s *countingInventoryStub) ListAreas(ctx context.Context, poolID *int) ([]models.Area, error) {
	return []models.Area{}, nil
}

func TestMatrixSlotsServedFromCacheUntilInvalidated(t *testing.T) {
	store := newReadModelStoreStub()
	inventory := &countingInventoryStub{}
	cacheSvc := NewCacheService(store, nil, time.Minute, nil, true)
	matrix := kioskMatrixStub{rows: []models.SlotModeRow{{PoolID: 2, SlotStart: "07:30", SlotEnd: "09:00", Mode: models.ModeHybrid}}}
	svc := NewMatrixService(matrix, inventory, cacheSvc, time.Minute, nil)
	day := mustDate(t, "2025-10-06")

	first, err := svc.SlotsForDate(context.Background(), day)
	require.NoError(t, err)
	second, err := svc.SlotsForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, inventory.poolCalls)
	assert.Equal(t, first.Slots, second.Slots)
	require.Len(t, second.Slots[models.PoolBase], 1)
	assert.Equal(t, "07:30", second.Slots[models.PoolBase][0].Start)

	require.NoError(t, svc.InvalidateAll(context.Background()))
	assert.Empty(t, store.entries)
	_, err = svc.SlotsForDate(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, inventory.poolCalls)
}

func TestCacheFailureFallsBackToSource(t *testing.T) {
	store := newReadModelStoreStub()
	store.getErr = errors.New("redis down")
	inventory := &countingInventoryStub{}
	svc := NewMatrixService(kioskMatrixStub{}, inventory, NewCacheService(store, nil, time.Minute, nil, true), time.Minute, nil)

	pools, err := svc.Pools(context.Background())
	require.NoError(t, err)
	assert.Len(t, pools, 2)
	assert.Equal(t, 1, inventory.poolCalls)
}

func TestCacheDoesNotStoreLoadErrors(t *testing.T) {
	store := newReadModelStoreStub()
	svc := NewMatrixService(kioskMatrixStub{}, &countingInventoryStub{}, NewCacheService(store, nil, time.Minute, nil, true), time.Minute, nil)

	_, err := svc.Resources(context.Background())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Empty(t, store.entries)
}

func TestDisabledCacheAlwaysLoads(t *testing.T) {
	inventory := &countingInventoryStub{}
	svc := NewMatrixService(kioskMatrixStub{}, inventory, nil, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Pools(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inventory.poolCalls)
	assert.NoError(t, svc.InvalidateAll(context.Background()))
}
