package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/database"
	"github.com/quickmart/pos-server/internal/model"
)

type BillRepository interface {
	Create(ctx context.Context, id, staffID string, totalCents int64) (*model.Bill, error)
	CreateItem(ctx context.Context, item model.BillItem) (*model.BillItem, error)
	FindByID(ctx context.Context, id string) (*model.Bill, error)
	FindItems(ctx context.Context, billID string) ([]model.BillItem, error)
	ListByStaff(ctx context.Context, staffID string, limit, offset int) ([]model.Bill, error)
	CountByStaff(ctx context.Context, staffID string) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) BillRepository
}

type billRepo struct {
	db database.DBTX
}

func NewBillRepository(db *sqlx.DB) BillRepository {
	return &billRepo{db: db}
}

func (r *billRepo) WithTx(tx *sqlx.Tx) BillRepository {
	return &billRepo{db: tx}
}

func (r *billRepo) Create(ctx context.Context, id, staffID string, totalCents int64) (*model.Bill, error) {
	var b model.Bill
	err := r.db.GetContext(ctx, &b, `
		INSERT INTO bills (id, staff_id, total_cents)
		VALUES ($1, $2, $3)
		RETURNING *
	`, id, staffID, totalCents)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *billRepo) CreateItem(ctx context.Context, item model.BillItem) (*model.BillItem, error) {
	var bi model.BillItem
	err := r.db.GetContext(ctx, &bi, `
		INSERT INTO bill_items (bill_id, product_id, product_name, unit_price_cents, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, item.BillID, item.ProductID, item.ProductName, item.UnitPriceCents, item.Quantity)
	if err != nil {
		return nil, err
	}
	return &bi, nil
}

func (r *billRepo) FindByID(ctx context.Context, id string) (*model.Bill, error) {
	var b model.Bill
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bills WHERE id = $1`, id)
	return HandleNotFound(&b, err)
}

func (r *billRepo) FindItems(ctx context.Context, billID string) ([]model.BillItem, error) {
	var items []model.BillItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM bill_items
		WHERE bill_id = $1
		ORDER BY id ASC
	`, billID)
	return items, err
}

func (r *billRepo) ListByStaff(ctx context.Context, staffID string, limit, offset int) ([]model.Bill, error) {
	var bills []model.Bill
	err := r.db.SelectContext(ctx, &bills, `
		SELECT * FROM bills
		WHERE staff_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, staffID, limit, offset)
	return bills, err
}

func (r *billRepo) CountByStaff(ctx context.Context, staffID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM bills WHERE staff_id = $1
	`, staffID)
	return count, err
}
