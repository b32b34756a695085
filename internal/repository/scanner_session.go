package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/database"
	"github.com/quickmart/pos-server/internal/model"
)

// ScannerSessionRepository persists pairing sessions between a desktop POS
// terminal and a mobile scanner. Every read filters on expires_at so expired
// sessions are invisible even before the cleanup job removes them.
type ScannerSessionRepository interface {
	FindByID(ctx context.Context, id string) (*model.ScannerSession, error)
	// FindActiveByStaff returns the most recently updated session for the
	// staff member that is still pending_mobile or mobile_active.
	FindActiveByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error)
	// FindLatestPendingByStaff returns the newest pending_mobile session,
	// tie-broken by created_at.
	FindLatestPendingByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error)
	// FindMobileActive returns the mobile_active session bound to exactly
	// this staff member and mobile connection.
	FindMobileActive(ctx context.Context, staffID, mobileConnID string) (*model.ScannerSession, error)
	Create(ctx context.Context, params model.CreateScannerSessionParams) (*model.ScannerSession, error)
	// SupersedeActive marks every active session of the staff member
	// superseded_by_desktop with immediate expiry. Returns rows affected.
	SupersedeActive(ctx context.Context, staffID string) (int64, error)
	// CompleteActive marks every active session completed_by_desktop with
	// immediate expiry. Returns rows affected.
	CompleteActive(ctx context.Context, staffID string) (int64, error)
	// BindMobile transitions pending_mobile -> mobile_active. The status
	// guard in the WHERE clause makes the transition race-safe; returns
	// false when the session was no longer pending.
	BindMobile(ctx context.Context, id, mobileConnID string, expiresAt time.Time) (bool, error)
	TouchMobile(ctx context.Context, id string, expiresAt time.Time) error
	TouchDesktop(ctx context.Context, id string, expiresAt time.Time) error
	DeleteExpired(ctx context.Context) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ScannerSessionRepository
}

type scannerSessionRepo struct {
	db database.DBTX
}

func NewScannerSessionRepository(db *sqlx.DB) ScannerSessionRepository {
	return &scannerSessionRepo{db: db}
}

func (r *scannerSessionRepo) WithTx(tx *sqlx.Tx) ScannerSessionRepository {
	return &scannerSessionRepo{db: tx}
}

func (r *scannerSessionRepo) FindByID(ctx context.Context, id string) (*model.ScannerSession, error) {
	var s model.ScannerSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM scanner_sessions WHERE id = $1
	`, id)
	return HandleNotFound(&s, err)
}

func (r *scannerSessionRepo) FindActiveByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	var s model.ScannerSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM scanner_sessions
		WHERE staff_id = $1
		AND status IN ('pending_mobile', 'mobile_active')
		AND expires_at > NOW()
		ORDER BY updated_at DESC
		LIMIT 1
	`, staffID)
	return HandleNotFound(&s, err)
}

func (r *scannerSessionRepo) FindLatestPendingByStaff(ctx context.Context, staffID string) (*model.ScannerSession, error) {
	var s model.ScannerSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM scanner_sessions
		WHERE staff_id = $1
		AND status = 'pending_mobile'
		AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`, staffID)
	return HandleNotFound(&s, err)
}

func (r *scannerSessionRepo) FindMobileActive(ctx context.Context, staffID, mobileConnID string) (*model.ScannerSession, error) {
	var s model.ScannerSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM scanner_sessions
		WHERE staff_id = $1
		AND mobile_conn_id = $2
		AND status = 'mobile_active'
		AND expires_at > NOW()
	`, staffID, mobileConnID)
	return HandleNotFound(&s, err)
}

func (r *scannerSessionRepo) Create(ctx context.Context, params model.CreateScannerSessionParams) (*model.ScannerSession, error) {
	var s model.ScannerSession
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO scanner_sessions (id, staff_id, staff_name, desktop_conn_id, expires_at, last_desktop_heartbeat)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING *
	`, params.ID, params.StaffID, params.StaffName, params.DesktopConnID, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scannerSessionRepo) SupersedeActive(ctx context.Context, staffID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE scanner_sessions SET
			status = 'superseded_by_desktop',
			expires_at = NOW(),
			updated_at = NOW()
		WHERE staff_id = $1
		AND status IN ('pending_mobile', 'mobile_active')
	`, staffID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *scannerSessionRepo) CompleteActive(ctx context.Context, staffID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE scanner_sessions SET
			status = 'completed_by_desktop',
			expires_at = NOW(),
			updated_at = NOW()
		WHERE staff_id = $1
		AND status IN ('pending_mobile', 'mobile_active')
	`, staffID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *scannerSessionRepo) BindMobile(ctx context.Context, id, mobileConnID string, expiresAt time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE scanner_sessions SET
			status = 'mobile_active',
			mobile_conn_id = $2,
			last_mobile_heartbeat = NOW(),
			expires_at = $3,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending_mobile'
	`, id, mobileConnID, expiresAt)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *scannerSessionRepo) TouchMobile(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scanner_sessions SET
			last_mobile_heartbeat = NOW(),
			expires_at = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, expiresAt)
	return err
}

func (r *scannerSessionRepo) TouchDesktop(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scanner_sessions SET
			last_desktop_heartbeat = NOW(),
			expires_at = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, expiresAt)
	return err
}

func (r *scannerSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM scanner_sessions
		WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
