package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/model"
)

type StaffRepository interface {
	FindByID(ctx context.Context, id string) (*model.Staff, error)
	FindByUsername(ctx context.Context, username string) (*model.Staff, error)
}

type staffRepo struct {
	db *sqlx.DB
}

func NewStaffRepository(db *sqlx.DB) StaffRepository {
	return &staffRepo{db: db}
}

func (r *staffRepo) FindByID(ctx context.Context, id string) (*model.Staff, error) {
	var s model.Staff
	err := r.db.GetContext(ctx, &s, `SELECT * FROM staff WHERE id = $1`, id)
	return HandleNotFound(&s, err)
}

func (r *staffRepo) FindByUsername(ctx context.Context, username string) (*model.Staff, error) {
	var s model.Staff
	err := r.db.GetContext(ctx, &s, `SELECT * FROM staff WHERE username = $1`, username)
	return HandleNotFound(&s, err)
}

// Staff auth sessions (cookie-backed)

type StaffSessionRepository interface {
	Create(ctx context.Context, params model.CreateStaffSessionParams) (*model.StaffSession, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.StaffSession, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type staffSessionRepo struct {
	db *sqlx.DB
}

func NewStaffSessionRepository(db *sqlx.DB) StaffSessionRepository {
	return &staffSessionRepo{db: db}
}

func (r *staffSessionRepo) Create(ctx context.Context, params model.CreateStaffSessionParams) (*model.StaffSession, error) {
	var s model.StaffSession
	err := r.db.GetContext(ctx, &s, `
		INSERT INTO staff_sessions (staff_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.StaffID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *staffSessionRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.StaffSession, error) {
	var s model.StaffSession
	err := r.db.GetContext(ctx, &s, `
		SELECT * FROM staff_sessions
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash)
	return HandleNotFound(&s, err)
}

func (r *staffSessionRepo) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM staff_sessions WHERE token_hash = $1
	`, tokenHash)
	return err
}

func (r *staffSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM staff_sessions WHERE expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
