package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/config"
	"github.com/quickmart/pos-server/internal/database"
	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
)

// TxRunner runs a function inside a database transaction. Satisfied by
// *database.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

type ActivateResult struct {
	SessionID     string `json:"sessionId"`
	StaffUsername string `json:"staffUsername"`
	Superseded    int64  `json:"-"`
}

type ActivationStatus struct {
	IsActive        bool                       `json:"isActive"`
	Status          model.ScannerSessionStatus `json:"status,omitempty"`
	StaffUsername   string                     `json:"staffUsername,omitempty"`
	MobileConnected bool                       `json:"mobileConnected"`
}

type JoinResult struct {
	SessionActivated bool
	StaffUsername    string
	Message          string
}

type SubmitScanResult struct {
	ProductName string
	Quantity    int
}

// RelayedItem is one scan delivered to the desktop poller.
type RelayedItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	PriceCents  int64  `json:"priceCents"`
	Quantity    int    `json:"quantity"`
}

type FetchResult struct {
	Items   []RelayedItem
	Message string
}

// ScannerService implements the pairing state machine and the scan relay
// queue. All coordination runs through the database; any server instance can
// serve any request for a session.
type ScannerService struct {
	db       TxRunner
	sessions repository.ScannerSessionRepository
	events   repository.ScanEventRepository
	products ProductResolver
	notifier Notifier
	ttl      time.Duration
	queueMax int
}

func NewScannerService(
	db TxRunner,
	sessions repository.ScannerSessionRepository,
	events repository.ScanEventRepository,
	products ProductResolver,
	notifier Notifier,
	ttl time.Duration,
	queueMax int,
) *ScannerService {
	return &ScannerService{
		db:       db,
		sessions: sessions,
		events:   events,
		products: products,
		notifier: notifier,
		ttl:      ttl,
		queueMax: queueMax,
	}
}

// ActivateDesktop supersedes any active session of the staff member and
// creates a fresh pending_mobile session, both inside one transaction so a
// concurrent reader never sees two active sessions for the same staff.
func (s *ScannerService) ActivateDesktop(ctx context.Context, staffID, staffName, desktopConnID string) (*ActivateResult, error) {
	sessionID := uuid.NewString()
	expiresAt := time.Now().Add(s.ttl)

	var superseded int64
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.sessions.WithTx(tx)

		count, err := repo.SupersedeActive(ctx, staffID)
		if err != nil {
			return fmt.Errorf("supersede active sessions: %w", err)
		}
		superseded = count

		_, err = repo.Create(ctx, model.CreateScannerSessionParams{
			ID:            sessionID,
			StaffID:       staffID,
			StaffName:     staffName,
			DesktopConnID: desktopConnID,
			ExpiresAt:     expiresAt,
		})
		if err != nil {
			return fmt.Errorf("create scanner session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if superseded > 0 {
		s.notifier.Emit(ctx, EmitParams{
			Title:    "Scanner pairing replaced",
			Message:  fmt.Sprintf("%s started a new scanner pairing; the previous one was disconnected", staffName),
			Severity: model.SeverityWarning,
			Audience: model.AudienceMobiles,
		})
	}

	log.Info().
		Str("sessionId", sessionID).
		Str("staffId", staffID).
		Int64("superseded", superseded).
		Time("expiresAt", expiresAt).
		Msg("scanner session activated")

	return &ActivateResult{
		SessionID:     sessionID,
		StaffUsername: staffName,
		Superseded:    superseded,
	}, nil
}

// DeactivateDesktop completes every active session of the staff member with
// immediate expiry. Not an error when none exist.
func (s *ScannerService) DeactivateDesktop(ctx context.Context, staffID string) error {
	count, err := s.sessions.CompleteActive(ctx, staffID)
	if err != nil {
		return fmt.Errorf("complete active sessions: %w", err)
	}

	if count > 0 {
		log.Info().
			Str("staffId", staffID).
			Int64("sessions", count).
			Msg("scanner session deactivated")
	}

	return nil
}

// CheckActivation reports whether the staff member has a live session.
// MobileConnected is a derived liveness heuristic, not authoritative: the
// mobile may still submit scans while this briefly reports false.
func (s *ScannerService) CheckActivation(ctx context.Context, staffID string) (*ActivationStatus, error) {
	session, err := s.sessions.FindActiveByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	if session == nil {
		return &ActivationStatus{IsActive: false}, nil
	}

	mobileConnected := session.Status == model.ScannerStatusMobileActive &&
		session.LastMobileHeartbeat != nil &&
		time.Since(*session.LastMobileHeartbeat) < config.MobileLivenessWindow

	return &ActivationStatus{
		IsActive:        true,
		Status:          session.Status,
		StaffUsername:   session.StaffName,
		MobileConnected: mobileConnected,
	}, nil
}

// JoinMobile binds a mobile connection to the staff member's newest pending
// session. Re-joining with the same connection while already mobile_active is
// idempotent and only refreshes heartbeat and expiry.
func (s *ScannerService) JoinMobile(ctx context.Context, staffID, mobileConnID string) (*JoinResult, error) {
	pending, err := s.sessions.FindLatestPendingByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("find pending session: %w", err)
	}

	if pending != nil {
		bound, err := s.sessions.BindMobile(ctx, pending.ID, mobileConnID, time.Now().Add(s.ttl))
		if err != nil {
			return nil, fmt.Errorf("bind mobile: %w", err)
		}
		if bound {
			log.Info().
				Str("sessionId", pending.ID).
				Str("staffId", staffID).
				Msg("mobile joined scanner session")

			return &JoinResult{
				SessionActivated: true,
				StaffUsername:    pending.StaffName,
				Message:          "Scanner paired",
			}, nil
		}
		// Lost a race: the session left pending_mobile between the read and
		// the guarded update. Fall through to the re-join checks.
	}

	active, err := s.sessions.FindMobileActive(ctx, staffID, mobileConnID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if active != nil {
		if err := s.sessions.TouchMobile(ctx, active.ID, time.Now().Add(s.ttl)); err != nil {
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		return &JoinResult{
			SessionActivated: true,
			StaffUsername:    active.StaffName,
			Message:          "Scanner already paired",
		}, nil
	}

	other, err := s.sessions.FindActiveByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if other != nil && other.Status == model.ScannerStatusMobileActive {
		log.Warn().
			Str("sessionId", other.ID).
			Str("staffId", staffID).
			Msg("join rejected: session bound to another mobile")

		return &JoinResult{
			SessionActivated: false,
			Message:          "Another mobile is already paired with this register",
		}, nil
	}

	return &JoinResult{
		SessionActivated: false,
		Message:          "No desktop activation found for this account; activate the scanner on the register first",
	}, nil
}

// SubmitScan appends one scan snapshot to the staff member's session bound to
// this mobile connection. The stock check here is advisory; the authoritative
// decrement happens at bill generation.
func (s *ScannerService) SubmitScan(ctx context.Context, staffID, mobileConnID, identifier string, quantity int) (*SubmitScanResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.MissingRequired("identifier")
	}
	if quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity", "must be a positive integer")
	}

	session, err := s.sessions.FindMobileActive(ctx, staffID, mobileConnID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NoActivePairing()
	}

	product, err := s.products.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if product.Stock < quantity {
		return nil, apperrors.InsufficientStock(product.Name, product.Stock)
	}

	depth, err := s.events.CountUnprocessed(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("count unprocessed: %w", err)
	}
	if depth >= s.queueMax {
		return nil, apperrors.QueueFull(depth)
	}

	event, err := s.events.Append(ctx, model.AppendScanEventParams{
		SessionID:      session.ID,
		ProductID:      product.ID,
		ProductName:    product.Name,
		UnitPriceCents: product.PriceCents,
		Quantity:       quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("append scan event: %w", err)
	}
	if event == nil {
		// The session was superseded, completed, or expired between the
		// lookup above and the guarded insert.
		return nil, apperrors.NoActivePairing()
	}

	if err := s.sessions.TouchMobile(ctx, session.ID, time.Now().Add(s.ttl)); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("refresh after scan failed")
	}

	s.notifier.Emit(ctx, EmitParams{
		Message:  fmt.Sprintf("Scanned %d x %s", quantity, product.Name),
		Severity: model.SeverityInfo,
		Audience: model.AudienceDesktops,
	})

	log.Debug().
		Int64("eventId", event.ID).
		Str("sessionId", session.ID).
		Str("productId", product.ID).
		Int("quantity", quantity).
		Msg("scan event appended")

	return &SubmitScanResult{
		ProductName: product.Name,
		Quantity:    quantity,
	}, nil
}

// FetchUnprocessedItems delivers the session's unprocessed scans to the
// desktop in append order and marks them processed in the same statement, so
// an item is returned at most once even under overlapping polls.
func (s *ScannerService) FetchUnprocessedItems(ctx context.Context, staffID string) (*FetchResult, error) {
	session, err := s.sessions.FindActiveByStaff(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	if session == nil {
		return &FetchResult{Items: []RelayedItem{}, Message: "Scanner not active"}, nil
	}

	if session.Status != model.ScannerStatusMobileActive {
		return &FetchResult{Items: []RelayedItem{}, Message: "Waiting for mobile to join"}, nil
	}

	events, err := s.events.MarkAllProcessed(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}

	if err := s.sessions.TouchDesktop(ctx, session.ID, time.Now().Add(s.ttl)); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("refresh after fetch failed")
	}

	items := make([]RelayedItem, len(events))
	for i, ev := range events {
		items[i] = RelayedItem{
			ProductID:   ev.ProductID,
			ProductName: ev.ProductName,
			PriceCents:  ev.UnitPriceCents,
			Quantity:    ev.Quantity,
		}
	}

	if len(items) > 0 {
		log.Debug().
			Str("sessionId", session.ID).
			Int("items", len(items)).
			Msg("scan events delivered to desktop")
	}

	message := fmt.Sprintf("%d new items", len(items))
	if len(items) == 1 {
		message = "1 new item"
	}

	return &FetchResult{Items: items, Message: message}, nil
}
