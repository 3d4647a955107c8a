package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
)

type kioskPoolsStub struct{}

func (kioskPoolsStub) ListPools(ctx context.Context) ([]models.Pool, error) {
	return []models.Pool{{ID: 1, Key: models.PoolPower}, {ID: 2, Key: models.PoolBase}}, nil
}

type kioskMatrixStub struct {
	rows []models.SlotModeRow
}

func (s kioskMatrixStub) FindWindowForDate(ctx context.Context, day time.Time) (*models.PolicyWindow, error) {
	return &models.PolicyWindow{ID: "win-1"}, nil
}

func (s kioskMatrixStub) ListSlotModes(ctx context.Context, windowID string, weekday int) ([]models.SlotModeRow, error) {
	return s.rows, nil
}

type approvedListerStub struct {
	rows    []models.WorklistRow
	filters []models.WorklistFilter
}

func (s *approvedListerStub) ListApproved(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error) {
	s.filters = append(s.filters, filter)
	var out []models.WorklistRow
	for _, row := range s.rows {
		if row.PoolKey == filter.PoolKey && row.SlotStart == filter.SlotStart {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestKioskHubDropsWhenBufferFull(t *testing.T) {
	hub := NewKioskHub(1, nil, nil)
	id, ch := hub.Register()
	_, other := hub.Register()

	assert.Equal(t, 2, hub.Broadcast(KioskEvent{Type: KioskEventUpdate}))
	// the first subscriber has not drained its buffer
	<-other
	assert.Equal(t, 1, hub.Broadcast(KioskEvent{Type: KioskEventUpdate}))

	hub.Unregister(id)
	_, open := <-ch
	assert.True(t, open, "buffered event still readable")
	_, open = <-ch
	assert.False(t, open)
	assert.Equal(t, 1, hub.Len())

	hub.Unregister(id)
	assert.Equal(t, 1, hub.Len())
}

func TestKioskStateCurrentAndNextSlot(t *testing.T) {
	group := "u18-squad"
	matrix := kioskMatrixStub{rows: []models.SlotModeRow{
		{PoolID: 1, SlotStart: "09:00", SlotEnd: "10:30"},
		{PoolID: 1, SlotStart: "07:30", SlotEnd: "09:00"},
		{PoolID: 2, SlotStart: "10:30", SlotEnd: "12:00"},
	}}
	approved := &approvedListerStub{rows: []models.WorklistRow{
		{InstanceID: "inst-1", PoolKey: models.PoolPower, SlotStart: "09:00", SlotEnd: "10:30", OwnerID: "coach-1", GroupID: &group, Resources: models.FromInts([]int{1, 2}), Sync: models.SyncAdded},
		{InstanceID: "inst-2", PoolKey: models.PoolPower, SlotStart: "09:00", SlotEnd: "10:30", OwnerID: "coach-2", Resources: models.FromInts([]int{5})},
	}}
	svc := NewKioskService(kioskPoolsStub{}, matrix, approved, NewKioskHub(1, nil, nil), nil)

	state, err := svc.State(context.Background(), time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	power := state.Pools[models.PoolPower]
	require.NotNil(t, power.CurrentSlot)
	assert.Equal(t, "09:00", power.CurrentSlot.Start, "start is inclusive")
	assert.Nil(t, power.NextSlot)
	require.Len(t, power.CurrentAllocations, 2)
	assert.Equal(t, "u18-squad", power.CurrentAllocations[0].Squad)
	assert.Equal(t, "coach-2", power.CurrentAllocations[1].Squad)

	base := state.Pools[models.PoolBase]
	assert.Nil(t, base.CurrentSlot)
	require.NotNil(t, base.NextSlot)
	assert.Equal(t, "10:30", base.NextSlot.Start)
	assert.Empty(t, base.CurrentAllocations)
}

func TestKioskPumpBroadcastsUpdate(t *testing.T) {
	hub := NewKioskHub(2, nil, nil)
	svc := NewKioskService(kioskPoolsStub{}, kioskMatrixStub{}, &approvedListerStub{}, hub, nil)
	svc.now = func() time.Time { return time.Date(2025, 10, 6, 9, 0, 0, 0, time.UTC) }
	_, ch := hub.Register()

	svc.Pump()

	select {
	case ev := <-ch:
		assert.Equal(t, KioskEventUpdate, ev.Type)
		assert.Len(t, ev.Payload.Pools, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("no update broadcast")
	}
}

func TestKioskPumpNilSafe(t *testing.T) {
	var svc *KioskService
	assert.NotPanics(t, svc.Pump)
}
