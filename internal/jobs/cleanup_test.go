package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
)

type mockScannerSessionRepo struct {
	deleteExpiredCount int64
}

func (m *mockScannerSessionRepo) FindByID(ctx context.Context, id string) (*model.ScannerSession, error) {
	return nil, nil
}

func (m *mockScannerSessionRepo) FindActiveByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	return nil, nil
}

func (m *mockScannerSessionRepo) FindLatestPendingByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	return nil, nil
}

func (m *mockScannerSessionRepo) FindMobileActive(ctx context.Context, staffID, mobileConnID string) (*model.ScannerSession, error) {
	return nil, nil
}

func (m *mockScannerSessionRepo) Create(ctx context.Context, params model.CreateScannerSessionParams) (*model.ScannerSession, error) {
	return nil, nil
}

func (m *mockScannerSessionRepo) SupersedeActive(ctx context.Context, staffID string) (int64, error) {
	return 0, nil
}

func (m *mockScannerSessionRepo) CompleteActive(ctx context.Context, staffID string) (int64, error) {
	return 0, nil
}

func (m *mockScannerSessionRepo) BindMobile(ctx context.Context, id, mobileConnID string, expiresAt time.Time) (bool, error) {
	return false, nil
}

func (m *mockScannerSessionRepo) TouchMobile(ctx context.Context, id string, expiresAt time.Time) error {
	return nil
}

func (m *mockScannerSessionRepo) TouchDesktop(ctx context.Context, id string, expiresAt time.Time) error {
	return nil
}

func (m *mockScannerSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return m.deleteExpiredCount, nil
}

func (m *mockScannerSessionRepo) WithTx(tx *sqlx.Tx) repository.ScannerSessionRepository {
	return m
}

type mockStaffSessionRepo struct {
	deleteExpiredCount int64
}

func (m *mockStaffSessionRepo) Create(ctx context.Context, params model.CreateStaffSessionParams) (*model.StaffSession, error) {
	return nil, nil
}

func (m *mockStaffSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.StaffSession, error) {
	return nil, nil
}

func (m *mockStaffSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	return nil
}

func (m *mockStaffSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return m.deleteExpiredCount, nil
}

type mockNotificationRepo struct {
	deleteExpiredCount int64
}

func (m *mockNotificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) ListActive(ctx context.Context, audience model.NotificationAudience, limit, offset int) ([]model.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) Dismiss(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (m *mockNotificationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	return m.deleteExpiredCount, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewCleanupJob(nil, nil, nil, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		job := NewCleanupJob(
			&mockScannerSessionRepo{},
			&mockStaffSessionRepo{},
			&mockNotificationRepo{},
			100*time.Millisecond,
		)

		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()
	})

	t.Run("runs cleanup on start", func(t *testing.T) {
		job := NewCleanupJob(
			&mockScannerSessionRepo{deleteExpiredCount: 2},
			&mockStaffSessionRepo{deleteExpiredCount: 3},
			&mockNotificationRepo{deleteExpiredCount: 1},
			1*time.Hour,
		)

		job.Start()
		time.Sleep(10 * time.Millisecond)
		job.Stop()
	})
}
