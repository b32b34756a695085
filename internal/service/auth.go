package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
	"github.com/quickmart/pos-server/internal/util"
)

type LoginResult struct {
	Token string
	Staff *model.Staff
}

type AuthService struct {
	staffRepo   repository.StaffRepository
	sessionRepo repository.StaffSessionRepository
	sessionTTL  time.Duration
}

func NewAuthService(
	staffRepo repository.StaffRepository,
	sessionRepo repository.StaffSessionRepository,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		staffRepo:   staffRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	staff, err := s.staffRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find staff: %w", err)
	}

	if staff == nil || !util.CheckPasswordHash(password, staff.PasswordHash) {
		log.Warn().Str("username", username).Msg("login failed")
		return nil, apperrors.Unauthorized("Invalid username or password")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	_, err = s.sessionRepo.Create(ctx, model.CreateStaffSessionParams{
		StaffID:   staff.ID,
		TokenHash: util.HashToken(token),
		ExpiresAt: time.Now().Add(s.sessionTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create staff session: %w", err)
	}

	log.Info().
		Str("staffId", staff.ID).
		Str("username", staff.Username).
		Msg("staff logged in")

	return &LoginResult{Token: token, Staff: staff}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByTokenHash(ctx, util.HashToken(token)); err != nil {
		return fmt.Errorf("delete staff session: %w", err)
	}
	return nil
}

// ResolveSession maps a session token to the authenticated staff member.
// Returns nil when the token is unknown or expired.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.Staff, error) {
	session, err := s.sessionRepo.FindByTokenHash(ctx, util.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("find staff session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	return s.staffRepo.FindByID(ctx, session.StaffID)
}
