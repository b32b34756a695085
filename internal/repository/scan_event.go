package repository

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/model"
)

type ScanEventRepository interface {
	// Append inserts a scan event only while the session is still
	// mobile_active and unexpired; the status guard lives in the INSERT
	// itself so a concurrent supersede cannot land an event on a dead
	// session. Returns nil when the guard matched no session.
	Append(ctx context.Context, params model.AppendScanEventParams) (*model.ScanEvent, error)
	CountUnprocessed(ctx context.Context, sessionID string) (int, error)
	// MarkAllProcessed flips every unprocessed event of the session to
	// processed and returns them in append order. The conditional UPDATE is
	// a single statement, so two concurrent pollers can never both receive
	// the same event: whichever statement runs second matches zero rows.
	MarkAllProcessed(ctx context.Context, sessionID string) ([]model.ScanEvent, error)
	ListBySession(ctx context.Context, sessionID string) ([]model.ScanEvent, error)
}

type scanEventRepo struct {
	db *sqlx.DB
}

func NewScanEventRepository(db *sqlx.DB) ScanEventRepository {
	return &scanEventRepo{db: db}
}

func (r *scanEventRepo) Append(ctx context.Context, params model.AppendScanEventParams) (*model.ScanEvent, error) {
	var ev model.ScanEvent
	err := r.db.GetContext(ctx, &ev, `
		INSERT INTO scan_events (session_id, product_id, product_name, unit_price_cents, quantity)
		SELECT id, $2, $3, $4, $5 FROM scanner_sessions
		WHERE id = $1 AND status = 'mobile_active' AND expires_at > NOW()
		RETURNING *
	`, params.SessionID, params.ProductID, params.ProductName, params.UnitPriceCents, params.Quantity)
	return HandleNotFound(&ev, err)
}

func (r *scanEventRepo) CountUnprocessed(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM scan_events
		WHERE session_id = $1 AND processed = FALSE
	`, sessionID)
	return count, err
}

func (r *scanEventRepo) MarkAllProcessed(ctx context.Context, sessionID string) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	err := r.db.SelectContext(ctx, &events, `
		UPDATE scan_events SET processed = TRUE
		WHERE session_id = $1 AND processed = FALSE
		RETURNING *
	`, sessionID)
	if err != nil {
		return nil, err
	}

	// RETURNING does not guarantee row order; restore append order.
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	return events, nil
}

func (r *scanEventRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ScanEvent, error) {
	var events []model.ScanEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM scan_events
		WHERE session_id = $1
		ORDER BY id ASC
	`, sessionID)
	return events, err
}
