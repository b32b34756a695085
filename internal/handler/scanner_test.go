package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quickmart/pos-server/internal/database"
	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/middleware"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
	"github.com/quickmart/pos-server/internal/service"
)

// Mock repositories

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.ScannerSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScannerSession), args.Error(1)
}

func (m *mockSessionRepo) FindActiveByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScannerSession), args.Error(1)
}

func (m *mockSessionRepo) FindLatestPendingByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScannerSession), args.Error(1)
}

func (m *mockSessionRepo) FindMobileActive(ctx context.Context, staffID, mobileConnID string) (*model.ScannerSession, error) {
	args := m.Called(ctx, staffID, mobileConnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScannerSession), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateScannerSessionParams) (*model.ScannerSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScannerSession), args.Error(1)
}

func (m *mockSessionRepo) SupersedeActive(ctx context.Context, staffID string) (int64, error) {
	args := m.Called(ctx, staffID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) CompleteActive(ctx context.Context, staffID string) (int64, error) {
	args := m.Called(ctx, staffID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) BindMobile(ctx context.Context, id, mobileConnID string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, id, mobileConnID, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockSessionRepo) TouchMobile(ctx context.Context, id string, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepo) TouchDesktop(ctx context.Context, id string, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.ScannerSessionRepository {
	return m
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Append(ctx context.Context, params model.AppendScanEventParams) (*model.ScanEvent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanEvent), args.Error(1)
}

func (m *mockEventRepo) CountUnprocessed(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockEventRepo) MarkAllProcessed(ctx context.Context, sessionID string) ([]model.ScanEvent, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScanEvent), args.Error(1)
}

func (m *mockEventRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ScanEvent, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ScanEvent), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, identifier string) (*model.Product, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

type noopNotifier struct{}

func (noopNotifier) Emit(ctx context.Context, params service.EmitParams) {}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

func newTestHandler(sessions *mockSessionRepo, events *mockEventRepo, resolver *mockResolver) *ScannerHandler {
	svc := service.NewScannerService(stubTxRunner{}, sessions, events, resolver, noopNotifier{}, 12*time.Hour, 500)
	return NewScannerHandler(svc)
}

func withIdentity(r *http.Request, staffID, username, connID string) *http.Request {
	identity := &middleware.Identity{
		StaffID:      staffID,
		Username:     username,
		DisplayName:  username,
		ConnectionID: connID,
	}
	ctx := context.WithValue(r.Context(), middleware.IdentityContextKey, identity)
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestScannerActivate(t *testing.T) {
	t.Run("activates and returns staff username", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		h := newTestHandler(sessions, new(mockEventRepo), new(mockResolver))

		sessions.On("SupersedeActive", mock.Anything, "staff-1").Return(int64(0), nil)
		sessions.On("Create", mock.Anything, mock.Anything).Return(&model.ScannerSession{ID: "sess-1"}, nil)

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/activate", nil), "staff-1", "alice", "conn-d")
		rec := httptest.NewRecorder()
		h.Activate(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "alice", body["staffUsername"])
	})
}

func TestScannerStatus(t *testing.T) {
	t.Run("reports inactive scanner", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		h := newTestHandler(sessions, new(mockEventRepo), new(mockResolver))

		sessions.On("FindActiveByStaff", mock.Anything, "staff-1").Return(nil, nil)

		req := withIdentity(httptest.NewRequest(http.MethodGet, "/status", nil), "staff-1", "alice", "conn-d")
		rec := httptest.NewRecorder()
		h.Status(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["isActive"])
		assert.Equal(t, "Scanner not active", body["message"])
	})
}

func TestScannerJoin(t *testing.T) {
	t.Run("join without desktop activation returns success false", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		h := newTestHandler(sessions, new(mockEventRepo), new(mockResolver))

		sessions.On("FindLatestPendingByStaff", mock.Anything, "staff-1").Return(nil, nil)
		sessions.On("FindMobileActive", mock.Anything, "staff-1", "conn-m").Return(nil, nil)
		sessions.On("FindActiveByStaff", mock.Anything, "staff-1").Return(nil, nil)

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/join", nil), "staff-1", "alice", "conn-m")
		rec := httptest.NewRecorder()
		h.Join(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, false, body["sessionActivated"])
		assert.Contains(t, body["message"], "No desktop activation")
	})

	t.Run("join binds pending session", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		h := newTestHandler(sessions, new(mockEventRepo), new(mockResolver))

		sessions.On("FindLatestPendingByStaff", mock.Anything, "staff-1").Return(&model.ScannerSession{
			ID:        "sess-1",
			StaffName: "alice",
			Status:    model.ScannerStatusPendingMobile,
		}, nil)
		sessions.On("BindMobile", mock.Anything, "sess-1", "conn-m", mock.Anything).Return(true, nil)

		req := withIdentity(httptest.NewRequest(http.MethodPost, "/join", nil), "staff-1", "alice", "conn-m")
		rec := httptest.NewRecorder()
		h.Join(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["sessionActivated"])
		assert.Equal(t, "alice", body["staffUsername"])
	})
}

func TestScannerSubmitScan(t *testing.T) {
	t.Run("scan without pairing returns conflict with error code", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		h := newTestHandler(sessions, new(mockEventRepo), new(mockResolver))

		sessions.On("FindMobileActive", mock.Anything, "staff-1", "conn-m").Return(nil, nil)

		payload, _ := json.Marshal(map[string]any{"identifier": "cola", "quantity": 1})
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(payload)), "staff-1", "alice", "conn-m")
		rec := httptest.NewRecorder()
		h.SubmitScan(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, string(apperrors.ErrCodeNoActivePairing), body["errorCode"])
	})

	t.Run("scan into full queue returns queue full code", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		events := new(mockEventRepo)
		resolver := new(mockResolver)
		h := newTestHandler(sessions, events, resolver)

		sessions.On("FindMobileActive", mock.Anything, "staff-1", "conn-m").Return(&model.ScannerSession{
			ID:     "sess-1",
			Status: model.ScannerStatusMobileActive,
		}, nil)
		resolver.On("Resolve", mock.Anything, "cola").Return(&model.Product{
			ID: "p1", Name: "Cola", PriceCents: 250, Stock: 10,
		}, nil)
		events.On("CountUnprocessed", mock.Anything, "sess-1").Return(500, nil)

		payload, _ := json.Marshal(map[string]any{"identifier": "cola", "quantity": 1})
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(payload)), "staff-1", "alice", "conn-m")
		rec := httptest.NewRecorder()
		h.SubmitScan(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, string(apperrors.ErrCodeQueueFull), body["errorCode"])
	})

	t.Run("successful scan defaults quantity to one", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		events := new(mockEventRepo)
		resolver := new(mockResolver)
		h := newTestHandler(sessions, events, resolver)

		sessions.On("FindMobileActive", mock.Anything, "staff-1", "conn-m").Return(&model.ScannerSession{
			ID:     "sess-1",
			Status: model.ScannerStatusMobileActive,
		}, nil)
		resolver.On("Resolve", mock.Anything, "cola").Return(&model.Product{
			ID: "p1", Name: "Cola", PriceCents: 250, Stock: 10,
		}, nil)
		events.On("CountUnprocessed", mock.Anything, "sess-1").Return(0, nil)
		events.On("Append", mock.Anything, mock.MatchedBy(func(p model.AppendScanEventParams) bool {
			return p.Quantity == 1
		})).Return(&model.ScanEvent{ID: 1}, nil)
		sessions.On("TouchMobile", mock.Anything, "sess-1", mock.Anything).Return(nil)

		payload, _ := json.Marshal(map[string]any{"identifier": "cola"})
		req := withIdentity(httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(payload)), "staff-1", "alice", "conn-m")
		rec := httptest.NewRecorder()
		h.SubmitScan(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Cola", body["productName"])
	})
}

func TestScannerFetchItems(t *testing.T) {
	t.Run("returns relayed items", func(t *testing.T) {
		sessions := new(mockSessionRepo)
		events := new(mockEventRepo)
		h := newTestHandler(sessions, events, new(mockResolver))

		sessions.On("FindActiveByStaff", mock.Anything, "staff-1").Return(&model.ScannerSession{
			ID:     "sess-1",
			Status: model.ScannerStatusMobileActive,
		}, nil)
		events.On("MarkAllProcessed", mock.Anything, "sess-1").Return([]model.ScanEvent{
			{ID: 1, ProductID: "p1", ProductName: "Cola", UnitPriceCents: 250, Quantity: 2},
		}, nil)
		sessions.On("TouchDesktop", mock.Anything, "sess-1", mock.Anything).Return(nil)

		req := withIdentity(httptest.NewRequest(http.MethodGet, "/items", nil), "staff-1", "alice", "conn-d")
		rec := httptest.NewRecorder()
		h.FetchItems(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		items := body["items"].([]any)
		require.Len(t, items, 1)
		first := items[0].(map[string]any)
		assert.Equal(t, "Cola", first["productName"])
		assert.Equal(t, float64(250), first["priceCents"])
		assert.Equal(t, "1 new item", body["message"])
	})
}
