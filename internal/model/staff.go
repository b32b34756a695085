package model

import "time"

type Staff struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         StaffRole `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type StaffSession struct {
	ID        string    `db:"id" json:"id"`
	StaffID   string    `db:"staff_id" json:"staffId"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateStaffSessionParams struct {
	StaffID   string
	TokenHash string
	ExpiresAt time.Time
}
