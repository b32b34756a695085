package model

import "time"

type Product struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Barcode           *string   `db:"barcode" json:"barcode,omitempty"`
	PriceCents        int64     `db:"price_cents" json:"priceCents"`
	Stock             int       `db:"stock" json:"stock"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"lowStockThreshold"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateProductParams struct {
	Name              string
	Barcode           *string
	PriceCents        int64
	Stock             int
	LowStockThreshold int
}

type UpdateProductParams struct {
	Name              string
	Barcode           *string
	PriceCents        int64
	Stock             int
	LowStockThreshold int
}
