package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rackbook-api/internal/dto"
	"github.com/noah-isme/rackbook-api/internal/middleware"
	"github.com/noah-isme/rackbook-api/internal/models"
	"github.com/noah-isme/rackbook-api/internal/service"
	appErrors "github.com/noah-isme/rackbook-api/pkg/errors"
	"github.com/noah-isme/rackbook-api/pkg/export"
)

type bookingAPIStub struct {
	draftOwner string
	draftGroup *string
	editErr    error
	editAdmin  bool
}

func (s *bookingAPIStub) CreateDraft(ctx context.Context, req dto.CreateBookingRequest, ownerID string) (*models.BookingRequest, error) {
	s.draftOwner = ownerID
	s.draftGroup = req.GroupID
	return &models.BookingRequest{ID: "req-1", OwnerID: ownerID, GroupID: req.GroupID}, nil
}

func (s *bookingAPIStub) Expand(ctx context.Context, requestID string) (int, error) {
	if requestID == "missing" {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	return 4, nil
}

func (s *bookingAPIStub) ListInstances(ctx context.Context, requestID string) ([]models.BookingInstance, error) {
	return []models.BookingInstance{{ID: "inst-1", RequestID: requestID}}, nil
}

func (s *bookingAPIStub) AdminBuckets(ctx context.Context) (*dto.AdminBuckets, error) {
	return &dto.AdminBuckets{NewDrafts: []models.InstanceWithRequest{}, ManualNeeded: []models.InstanceWithRequest{}, OverridesInsideLock: []models.InstanceWithRequest{}}, nil
}

func (s *bookingAPIStub) EditInstance(ctx context.Context, instanceID string, patch dto.InstancePatch, isAdmin bool) (*models.BookingInstance, error) {
	s.editAdmin = isAdmin
	if s.editErr != nil {
		return nil, s.editErr
	}
	return &models.BookingInstance{ID: instanceID}, nil
}

type availabilityAPIStub struct{}

func (availabilityAPIStub) Check(ctx context.Context, requestID string) ([]models.AvailabilityResult, error) {
	return []models.AvailabilityResult{{InstanceID: "inst-1", Status: models.AvailabilityFit}}, nil
}

type approvalAPIStub struct {
	last dto.ApproveRequest
}

func (s *approvalAPIStub) Approve(ctx context.Context, instanceID string, req dto.ApproveRequest) (*dto.ApproveResponse, error) {
	s.last = req
	return &dto.ApproveResponse{Approved: 1, Allocations: []models.Allocation{{InstanceID: instanceID}}}, nil
}

type changeAPIStub struct {
	decideErr error
}

func (s *changeAPIStub) Submit(ctx context.Context, req dto.SubmitChangeRequest, requesterID string, isAdmin bool) (*models.ChangeRequest, error) {
	return &models.ChangeRequest{ID: "cr-1", InstanceID: req.InstanceID, RequestedBy: requesterID, Status: models.ChangeRequestPending}, nil
}

func (s *changeAPIStub) Decide(ctx context.Context, id string, req dto.DecideChangeRequest, deciderID string) (*dto.DecideChangeResponse, error) {
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	return &dto.DecideChangeResponse{ID: id, Approved: *req.Approve}, nil
}

func (s *changeAPIStub) Queue(ctx context.Context) ([]models.ChangeQueueItem, error) {
	return []models.ChangeQueueItem{}, nil
}

type lockAPIStub struct {
	at time.Time
}

func (s *lockAPIStub) RunWeeklyLock(ctx context.Context, now time.Time) (*models.LockRunResult, error) {
	s.at = now
	return &models.LockRunResult{Created: true, LockID: "lock-1"}, nil
}

type worklistAPIStub struct {
	filter models.WorklistFilter
	marked []string
}

func (s *worklistAPIStub) List(ctx context.Context, filter models.WorklistFilter) ([]models.WorklistRow, error) {
	s.filter = filter
	return []models.WorklistRow{{InstanceID: "inst-1"}}, nil
}

func (s *worklistAPIStub) Export(ctx context.Context, filter models.WorklistFilter, format export.Format) ([]byte, error) {
	s.filter = filter
	return []byte("Date,Pool,Slot,Squad,Resources,Sync,Notes\n"), nil
}

func (s *worklistAPIStub) MarkAdded(ctx context.Context, instanceIDs []string) (int, error) {
	if len(instanceIDs) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "instanceIds required")
	}
	s.marked = instanceIDs
	return len(instanceIDs), nil
}

type matrixAPIStub struct{}

func (matrixAPIStub) SlotsForDate(ctx context.Context, day time.Time) (*service.MatrixDay, error) {
	return &service.MatrixDay{Date: day.Format(models.DateLayout)}, nil
}

func (matrixAPIStub) Pools(ctx context.Context) ([]models.Pool, error) {
	return []models.Pool{{ID: 1, Key: models.PoolPower}, {ID: 2, Key: models.PoolBase}}, nil
}

func (matrixAPIStub) Resources(ctx context.Context) ([]models.Resource, error) {
	return []models.Resource{}, nil
}

func (matrixAPIStub) Areas(ctx context.Context) ([]models.Area, error) {
	return nil, errors.New("db down")
}

type kioskStateStub struct{}

func (kioskStateStub) State(ctx context.Context, now time.Time) (*models.KioskState, error) {
	return &models.KioskState{Now: now, Pools: map[string]models.KioskPoolState{}}, nil
}

type hubStub struct {
	events       chan service.KioskEvent
	unregistered atomic.Bool
}

func (h *hubStub) Register() (uint64, <-chan service.KioskEvent) {
	return 7, h.events
}

func (h *hubStub) Unregister(id uint64) {
	h.unregistered.Store(true)
}

type signerStub struct {
	expiresAt time.Time
}

func (s signerStub) Generate(kioskID string) (string, time.Time, error) {
	return "tok-" + kioskID, s.expiresAt, nil
}

func (s signerStub) Parse(token string) (string, time.Time, error) {
	if !strings.HasPrefix(token, "tok-") {
		return "", time.Time{}, errors.New("bad token")
	}
	return strings.TrimPrefix(token, "tok-"), s.expiresAt, nil
}

type inboxAPIStub struct {
	recipient string
}

func (s *inboxAPIStub) Inbox(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	s.recipient = recipient
	return []models.Notification{}, nil
}

type routerFixture struct {
	router    *gin.Engine
	bookings  *bookingAPIStub
	approvals *approvalAPIStub
	changes   *changeAPIStub
	locks     *lockAPIStub
	worklist  *worklistAPIStub
	hub       *hubStub
	inbox     *inboxAPIStub
}

func testAuth(c *gin.Context) {
	role := c.GetHeader("X-Test-Role")
	if role == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID:  c.GetHeader("X-Test-User"),
		Role:    models.UserRole(role),
		GroupID: c.GetHeader("X-Test-Group"),
	})
	c.Next()
}

func newRouterFixture(streamCfg KioskStreamConfig) *routerFixture {
	gin.SetMode(gin.TestMode)
	f := &routerFixture{
		bookings:  &bookingAPIStub{},
		approvals: &approvalAPIStub{},
		changes:   &changeAPIStub{},
		locks:     &lockAPIStub{},
		worklist:  &worklistAPIStub{},
		hub:       &hubStub{events: make(chan service.KioskEvent, 1)},
		inbox:     &inboxAPIStub{},
	}
	routes := Routes{
		Bookings: NewBookingHandler(f.bookings, availabilityAPIStub{}, f.approvals),
		Changes:  NewChangeRequestHandler(f.changes),
		Locks:    NewLockHandler(f.locks),
		Worklist: NewWorklistHandler(f.worklist),
		Matrix:   NewMatrixHandler(matrixAPIStub{}),
		Kiosk:    NewKioskHandler(kioskStateStub{}, f.hub, signerStub{expiresAt: time.Now().Add(time.Hour)}, streamCfg, nil),
		Inbox:    NewNotificationHandler(f.inbox),
	}
	f.router = gin.New()
	routes.Register(f.router.Group("/api/v1"), testAuth)
	return f
}

func doRequest(router http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
		req.Header.Set("X-Test-User", "user-1")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const (
	admin        = string(models.RoleAdmin)
	practitioner = string(models.RolePractitioner)
)

func TestRoutesRequireAuth(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})
	for _, path := range []string{"/api/v1/kiosk/state", "/api/v1/inventory/pools", "/api/v1/notifications"} {
		w := doRequest(f.router, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminRoutesForbidPractitioners(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})
	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/requests"},
		{http.MethodPost, "/api/v1/admin/instances/inst-1/approve"},
		{http.MethodPost, "/api/v1/admin/locks/run"},
		{http.MethodGet, "/api/v1/changes/queue"},
		{http.MethodPost, "/api/v1/changes/cr-1/decide"},
		{http.MethodGet, "/api/v1/bookings/worklist?from=2025-10-01&to=2025-10-07"},
		{http.MethodPost, "/api/v1/sync/inst-1/mark-added"},
	}
	for _, tc := range cases {
		w := doRequest(f.router, tc.method, tc.path, practitioner, "")
		assert.Equal(t, http.StatusForbidden, w.Code, tc.path)
	}
}

func TestCreateRequestDefaultsGroupFromToken(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", bytes.NewBufferString(`{"start":"2025-10-06","end":"2025-10-31","dow":[1],"slotStart":"07:30","slotEnd":"09:00","pool":"Base"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", practitioner)
	req.Header.Set("X-Test-User", "coach-1")
	req.Header.Set("X-Test-Group", "u18-squad")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "coach-1", f.bookings.draftOwner)
	require.NotNil(t, f.bookings.draftGroup)
	assert.Equal(t, "u18-squad", *f.bookings.draftGroup)

	w = doRequest(f.router, http.MethodPost, "/api/v1/requests", practitioner, `{"start":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpandAndInstances(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/requests/req-1/instances", practitioner, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"created":4}`, mustJSON(t, decodeEnvelope(t, w)["data"]))

	w = doRequest(f.router, http.MethodPost, "/api/v1/requests/missing/instances", practitioner, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/requests/req-1/instances", practitioner, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(f.router, http.MethodPost, "/api/v1/availability/check", practitioner, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(f.router, http.MethodPost, "/api/v1/availability/check", practitioner, `{"requestId":"req-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"FIT"`)
}

func TestEditInstanceLockedCarriesMeta(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})
	f.bookings.editErr = appErrors.ErrLockConflict

	w := doRequest(f.router, http.MethodPatch, "/api/v1/instances/inst-1", practitioner, `{"notes":"late"}`)
	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, map[string]interface{}{"locked": true}, body["meta"])
	assert.False(t, f.bookings.editAdmin)

	f.bookings.editErr = appErrors.ErrShortFreeze
	w = doRequest(f.router, http.MethodPatch, "/api/v1/instances/inst-1", practitioner, `{"notes":"late"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), `"locked"`)

	f.bookings.editErr = nil
	w = doRequest(f.router, http.MethodPatch, "/api/v1/instances/inst-1", admin, `{"notes":"late"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.bookings.editAdmin)
}

func TestApproveBodyOptional(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/admin/instances/inst-1/approve", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.approvals.last.ApplyTo)

	w = doRequest(f.router, http.MethodPost, "/api/v1/admin/instances/inst-1/approve", admin, `{"applyTo":"block","resources":[4,5]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ApprovalBlock, f.approvals.last.ApplyTo)
	assert.Equal(t, []int{4, 5}, f.approvals.last.Resources)
}

func TestChangeRequestRoutes(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/changes", practitioner, `{"instanceId":"inst-1","reason":"clash","payload":{"resources":[1,2]}}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"requestedBy":"user-1"`)

	w = doRequest(f.router, http.MethodPost, "/api/v1/changes/cr-1/decide", admin, `{"approve":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"approved":true`)

	f.changes.decideErr = appErrors.ErrAlreadyDecided
	w = doRequest(f.router, http.MethodPost, "/api/v1/changes/cr-1/decide", admin, `{"approve":false}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/changes/queue", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0}`, mustJSON(t, decodeEnvelope(t, w)["meta"]))
}

func TestLockRunClockOverride(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/admin/locks/run", admin, `{"now":"2025-10-09T00:15:00Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.locks.at.Equal(time.Date(2025, 10, 9, 0, 15, 0, 0, time.UTC)))

	w = doRequest(f.router, http.MethodPost, "/api/v1/admin/locks/run", admin, `{"now":"thursday"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorklistFilters(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist?from=2025-10-01&to=2025-10-07&pool=Base", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SyncPending, f.worklist.filter.Sync)
	assert.Equal(t, models.PoolBase, f.worklist.filter.PoolKey)

	w = doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist?from=2025-10-01&to=2025-10-07&status=all", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.worklist.filter.Sync)

	w = doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist?from=2025-10-01&to=2025-10-07&status=done", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist?from=yesterday&to=2025-10-07", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist/export?from=2025-10-01&to=2025-10-07", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `worklist-2025-10-01-2025-10-07.csv`)

	w = doRequest(f.router, http.MethodGet, "/api/v1/bookings/worklist/export?from=2025-10-01&to=2025-10-07&format=xml", admin, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkAddedRoutes(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/sync/inst-9/mark-added", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"inst-9"}, f.worklist.marked)

	w = doRequest(f.router, http.MethodPost, "/api/v1/bookings/mark-added", admin, `{"instanceIds":["a","b"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":2}`, mustJSON(t, decodeEnvelope(t, w)["data"]))

	w = doRequest(f.router, http.MethodPost, "/api/v1/bookings/mark-added", admin, `{"instanceIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatrixAndInventoryRoutes(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodGet, "/api/v1/matrix/slots?date=2025-10-06", practitioner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2025-10-06"`)

	w = doRequest(f.router, http.MethodGet, "/api/v1/matrix/slots", practitioner, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/inventory/pools", practitioner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, mustJSON(t, decodeEnvelope(t, w)["meta"]))

	w = doRequest(f.router, http.MethodGet, "/api/v1/inventory/areas", practitioner, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInboxRecipientRules(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodGet, "/api/v1/notifications", practitioner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", f.inbox.recipient)

	w = doRequest(f.router, http.MethodGet, "/api/v1/notifications?recipient=admin-group", practitioner, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/notifications?recipient=admin-group", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin-group", f.inbox.recipient)
}

func TestKioskTokenAndState(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{})

	w := doRequest(f.router, http.MethodPost, "/api/v1/admin/kiosk/tokens", admin, `{"kioskId":"lobby"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok-lobby"`)

	w = doRequest(f.router, http.MethodPost, "/api/v1/admin/kiosk/tokens", admin, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(f.router, http.MethodGet, "/api/v1/kiosk/state?now=2025-10-06T09:00:00Z", practitioner, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"now":"2025-10-06T09:00:00Z"`)

	w = doRequest(f.router, http.MethodGet, "/api/v1/kiosk/state?now=noon", practitioner, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKioskStreamSendsInitThenUpdates(t *testing.T) {
	f := newRouterFixture(KioskStreamConfig{MaxLifetime: 300 * time.Millisecond, Heartbeat: time.Hour})
	f.hub.events <- service.KioskEvent{Type: service.KioskEventUpdate, Payload: models.KioskState{Pools: map[string]models.KioskPoolState{}}}

	server := httptest.NewServer(f.router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/kiosk/stream/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/v1/kiosk/stream/tok-lobby")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	stream := string(body)
	initAt := strings.Index(stream, "event:init")
	updateAt := strings.Index(stream, "event:update")
	require.GreaterOrEqual(t, initAt, 0, stream)
	require.Greater(t, updateAt, initAt, stream)
	assert.True(t, f.hub.unregistered.Load())
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
