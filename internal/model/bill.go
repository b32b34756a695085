package model

import "time"

type Bill struct {
	ID         string     `db:"id" json:"id"`
	StaffID    string     `db:"staff_id" json:"staffId"`
	TotalCents int64      `db:"total_cents" json:"totalCents"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	Items      []BillItem `db:"-" json:"items,omitempty"`
}

type BillItem struct {
	ID             int64  `db:"id" json:"id"`
	BillID         string `db:"bill_id" json:"billId"`
	ProductID      string `db:"product_id" json:"productId"`
	ProductName    string `db:"product_name" json:"productName"`
	UnitPriceCents int64  `db:"unit_price_cents" json:"unitPriceCents"`
	Quantity       int    `db:"quantity" json:"quantity"`
}

// BillLine is one requested line item when generating a bill. The stock
// decrement for each line is authoritative and happens inside the bill
// transaction, unlike the advisory check at scan time.
type BillLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
