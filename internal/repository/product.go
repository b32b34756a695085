package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/quickmart/pos-server/internal/database"
	"github.com/quickmart/pos-server/internal/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	List(ctx context.Context, limit, offset int) ([]model.Product, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, params model.CreateProductParams) (*model.Product, error)
	Update(ctx context.Context, id string, params model.UpdateProductParams) (*model.Product, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DecrementStock atomically reduces stock by quantity, guarded on
	// stock >= quantity. Returns the updated product, or nil when the guard
	// failed (insufficient stock or unknown product).
	DecrementStock(ctx context.Context, id string, quantity int) (*model.Product, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ProductRepository
}

type productRepo struct {
	db database.DBTX
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) WithTx(tx *sqlx.Tx) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	return HandleNotFound(&p, err)
}

func (r *productRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE barcode = $1`, barcode)
	return HandleNotFound(&p, err)
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM products
		WHERE LOWER(name) = LOWER($1)
		ORDER BY created_at ASC
		LIMIT 1
	`, name)
	return HandleNotFound(&p, err)
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return products, err
}

func (r *productRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`)
	return count, err
}

func (r *productRepo) Create(ctx context.Context, params model.CreateProductParams) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO products (name, barcode, price_cents, stock, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.Name, params.Barcode, params.PriceCents, params.Stock, params.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Update(ctx context.Context, id string, params model.UpdateProductParams) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `
		UPDATE products SET
			name = $2,
			barcode = $3,
			price_cents = $4,
			stock = $5,
			low_stock_threshold = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, params.Name, params.Barcode, params.PriceCents, params.Stock, params.LowStockThreshold)
	return HandleNotFound(&p, err)
}

func (r *productRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id string, quantity int) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, `
		UPDATE products SET
			stock = stock - $2,
			updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING *
	`, id, quantity)
	return HandleNotFound(&p, err)
}
