package model

import "time"

// ScannerSession coordinates one desktop POS terminal and one mobile scanner
// for barcode relay. At most one session per staff member may be in an active
// status at a time; activating a new one supersedes the old atomically.
type ScannerSession struct {
	ID                   string               `db:"id" json:"id"`
	StaffID              string               `db:"staff_id" json:"staffId"`
	StaffName            string               `db:"staff_name" json:"staffName"`
	DesktopConnID        string               `db:"desktop_conn_id" json:"-"`
	MobileConnID         *string              `db:"mobile_conn_id" json:"-"`
	Status               ScannerSessionStatus `db:"status" json:"status"`
	ExpiresAt            time.Time            `db:"expires_at" json:"expiresAt"`
	LastDesktopHeartbeat *time.Time           `db:"last_desktop_heartbeat" json:"lastDesktopHeartbeat,omitempty"`
	LastMobileHeartbeat  *time.Time           `db:"last_mobile_heartbeat" json:"lastMobileHeartbeat,omitempty"`
	CreatedAt            time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt            time.Time            `db:"updated_at" json:"updatedAt"`
}

type CreateScannerSessionParams struct {
	ID            string
	StaffID       string
	StaffName     string
	DesktopConnID string
	ExpiresAt     time.Time
}

// ScanEvent is a snapshot of one barcode scan relayed from the mobile to the
// desktop. Product name and price are captured at scan time, not live
// references. Processed flips false -> true exactly once, when the desktop
// retrieves the event.
type ScanEvent struct {
	ID             int64     `db:"id" json:"id"`
	SessionID      string    `db:"session_id" json:"sessionId"`
	ProductID      string    `db:"product_id" json:"productId"`
	ProductName    string    `db:"product_name" json:"productName"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unitPriceCents"`
	Quantity       int       `db:"quantity" json:"quantity"`
	Processed      bool      `db:"processed" json:"processed"`
	ScannedAt      time.Time `db:"scanned_at" json:"scannedAt"`
}

type AppendScanEventParams struct {
	SessionID      string
	ProductID      string
	ProductName    string
	UnitPriceCents int64
	Quantity       int
}
