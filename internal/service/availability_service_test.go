package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/models"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
)

type requestReaderStub struct {
	request   *models.BookingRequest
	instances []models.BookingInstance
	err       error
}

func (s *requestReaderStub) FindRequest(ctx context.Context, exec sqlx.ExtContext, id string) (*models.BookingRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.request == nil || s.request.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.request, nil
}

func (s *requestReaderStub) ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error) {
	return s.instances, nil
}

type poolReaderStub struct {
	pools     map[string]models.Pool
	resources map[int][]models.Resource
}

func (s *poolReaderStub) FindPoolByKey(ctx context.Context, key string) (*models.Pool, error) {
	pool, ok := s.pools[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &pool, nil
}

func (s *poolReaderStub) ListResources(ctx context.Context, poolID int) ([]models.Resource, error) {
	return s.resources[poolID], nil
}

type occupancyStub struct {
	taken map[string][]int
}

func (s *occupancyStub) TakenResources(ctx context.Context, poolID int, day time.Time, slot models.Slot) ([]int, error) {
	return s.taken[day.Format(models.DateLayout)], nil
}

type slotPolicyStub struct {
	rows       map[string]models.SlotModeRow
	missing    map[string]string
	exceptions map[string][]models.ExceptionWindow
}

func (s *slotPolicyStub) Resolve(ctx context.Context, day time.Time, poolID int, slot models.Slot) (*PolicyResolution, error) {
	key := day.Format(models.DateLayout)
	if reason, ok := s.missing[key]; ok {
		return nil, &PolicyMissingError{Reason: reason}
	}
	row, ok := s.rows[key]
	if !ok {
		return nil, errors.New("unexpected date " + key)
	}
	return &PolicyResolution{Row: row}, nil
}

func (s *slotPolicyStub) Exceptions(ctx context.Context, day time.Time, poolID int, slot models.Slot) ([]models.ExceptionWindow, error) {
	return s.exceptions[day.Format(models.DateLayout)], nil
}

func intPtr(v int) *int { return &v }

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := models.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func basePoolResources() []models.Resource {
	out := make([]models.Resource, 0, 24)
	for n := 1; n <= 24; n++ {
		zone := (n-1)/6 + 1
		out = append(out, models.Resource{PoolID: 2, Number: n, Capacity: models.CapacityFull, Zone: &zone})
	}
	return out
}

func powerPoolResources() []models.Resource {
	out := make([]models.Resource, 0, 20)
	for n := 1; n <= 20; n++ {
		out = append(out, models.Resource{PoolID: 1, Number: n, Capacity: models.CapacityFull})
	}
	return out
}

func testPools() *poolReaderStub {
	return &poolReaderStub{
		pools: map[string]models.Pool{
			models.PoolPower: {ID: 1, Key: models.PoolPower},
			models.PoolBase:  {ID: 2, Key: models.PoolBase},
		},
		resources: map[int][]models.Resource{1: powerPoolResources(), 2: basePoolResources()},
	}
}

type availabilityFixture struct {
	requests  *requestReaderStub
	occupancy *occupancyStub
	policy    *slotPolicyStub
}

func newAvailabilityFixture(t *testing.T, poolKey string, headcount int, resources []int, dates ...string) *availabilityFixture {
	t.Helper()
	request := &models.BookingRequest{
		ID:        "req-1",
		PoolKey:   poolKey,
		SlotStart: "07:30",
		SlotEnd:   "09:00",
		Headcount: headcount,
		Resources: models.FromInts(resources),
	}
	fx := &availabilityFixture{
		requests:  &requestReaderStub{request: request},
		occupancy: &occupancyStub{taken: map[string][]int{}},
		policy: &slotPolicyStub{
			rows:       map[string]models.SlotModeRow{},
			missing:    map[string]string{},
			exceptions: map[string][]models.ExceptionWindow{},
		},
	}
	for i, raw := range dates {
		fx.requests.instances = append(fx.requests.instances, models.BookingInstance{
			ID:        "inst-" + string(rune('a'+i)),
			RequestID: request.ID,
			Date:      mustDate(t, raw),
			SlotStart: request.SlotStart,
			SlotEnd:   request.SlotEnd,
			PoolKey:   poolKey,
			Status:    models.InstanceDraft,
		})
		fx.policy.rows[raw] = models.SlotModeRow{Mode: models.ModeHybrid, PerformanceCap: intPtr(30)}
	}
	return fx
}

func (fx *availabilityFixture) service(workers int) *AvailabilityService {
	return NewAvailabilityService(fx.requests, testPools(), fx.occupancy, fx.policy, nil, workers, nil)
}

func TestAvailabilityFitWhenRequestedResourcesFree(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolPower, 10, []int{1, 2}, "2025-10-06")
	fx.occupancy.taken["2025-10-06"] = []int{5, 6}

	results, err := fx.service(2).Check(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, models.AvailabilityFit, res.Status)
	assert.Empty(t, res.Reasons)
	assert.Nil(t, res.Suggestion)
	assert.Equal(t, []int{5, 6}, res.Occupied)
	for _, n := range []int{1, 2} {
		assert.NotContains(t, res.Occupied, n)
	}
}

func TestAvailabilityPartialSuggestsSameZoneBlock(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolBase, 12, []int{1, 2, 3}, "2025-10-06")
	fx.occupancy.taken["2025-10-06"] = []int{1, 2, 3}

	results, err := fx.service(1).Check(context.Background(), "req-1")
	require.NoError(t, err)

	res := results[0]
	require.Equal(t, models.AvailabilityPartial, res.Status)
	assert.Equal(t, []int{4, 5, 6}, res.Suggestion)
	assert.Equal(t, []string{"requested resources unavailable"}, res.Reasons)
	for _, n := range res.Suggestion {
		assert.NotContains(t, res.Occupied, n)
	}
}

func TestAvailabilityNeverFallsBackToAnotherZone(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolBase, 12, []int{1, 2, 3, 4, 5, 6}, "2025-10-06")
	fx.occupancy.taken["2025-10-06"] = []int{2}

	results, err := fx.service(1).Check(context.Background(), "req-1")
	require.NoError(t, err)

	res := results[0]
	assert.Equal(t, models.AvailabilityConflict, res.Status)
	assert.Equal(t, []string{"no contiguous alternative available"}, res.Reasons)
	assert.Nil(t, res.Suggestion)
}

func TestAvailabilityModeConflicts(t *testing.T) {
	cases := []struct {
		name   string
		mode   models.SlotMode
		reason string
	}{
		{name: "teaching block", mode: models.ModeTeachingBlock, reason: "teaching block"},
		{name: "general only", mode: models.ModeGeneralOnly, reason: "general-only window"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newAvailabilityFixture(t, models.PoolPower, 4, []int{1}, "2025-10-07")
			fx.policy.rows["2025-10-07"] = models.SlotModeRow{Mode: tc.mode}

			results, err := fx.service(1).Check(context.Background(), "req-1")
			require.NoError(t, err)
			assert.Equal(t, models.AvailabilityConflict, results[0].Status)
			assert.Equal(t, []string{tc.reason}, results[0].Reasons)
		})
	}
}

func TestAvailabilityHeadcountOverCapIsNeverFit(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolPower, 45, []int{1, 2}, "2025-10-06")

	results, err := fx.service(1).Check(context.Background(), "req-1")
	require.NoError(t, err)

	res := results[0]
	assert.NotEqual(t, models.AvailabilityFit, res.Status)
	assert.Equal(t, models.AvailabilityPartial, res.Status)
	assert.Equal(t, []string{"headcount 45 exceeds performance cap 30"}, res.Reasons)
	assert.Equal(t, []int{1, 2}, res.Suggestion)
}

func TestAvailabilityExceptionAddsReason(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolBase, 4, []int{7, 8}, "2025-10-08")
	fx.policy.exceptions["2025-10-08"] = []models.ExceptionWindow{{Reason: "Floor resurfacing"}}

	results, err := fx.service(1).Check(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityPartial, results[0].Status)
	assert.Equal(t, []string{"exception: Floor resurfacing"}, results[0].Reasons)
}

func TestAvailabilityMissingPolicyIsConflict(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolPower, 4, []int{1}, "2025-12-25")
	fx.policy.missing["2025-12-25"] = "No policy window for 2025-12-25"

	results, err := fx.service(1).Check(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.AvailabilityConflict, results[0].Status)
	assert.Equal(t, []string{"No policy window for 2025-12-25"}, results[0].Reasons)
}

func TestAvailabilityKeepsInstanceOrder(t *testing.T) {
	dates := []string{"2025-10-06", "2025-10-07", "2025-10-08", "2025-10-09", "2025-10-10"}
	fx := newAvailabilityFixture(t, models.PoolPower, 4, []int{3}, dates...)
	fx.policy.rows["2025-10-08"] = models.SlotModeRow{Mode: models.ModeTeachingBlock}

	results, err := fx.service(4).Check(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, results, len(dates))
	for i, res := range results {
		assert.Equal(t, dates[i], res.Date.Format(models.DateLayout))
	}
	assert.Equal(t, models.AvailabilityConflict, results[2].Status)
}

func TestAvailabilityUnknownRequest(t *testing.T) {
	fx := newAvailabilityFixture(t, models.PoolPower, 4, []int{1}, "2025-10-06")

	_, err := fx.service(1).Check(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
