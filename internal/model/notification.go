package model

import "time"

type Notification struct {
	ID                string               `db:"id" json:"id"`
	Title             *string              `db:"title" json:"title,omitempty"`
	Message           string               `db:"message" json:"message"`
	Severity          NotificationSeverity `db:"severity" json:"severity"`
	Audience          NotificationAudience `db:"audience" json:"audience"`
	DisplayDurationMs int                  `db:"display_duration_ms" json:"displayDurationMs"`
	Dismissed         bool                 `db:"dismissed" json:"dismissed"`
	CreatedAt         time.Time            `db:"created_at" json:"createdAt"`
	ExpiresAt         time.Time            `db:"expires_at" json:"expiresAt"`
}

type CreateNotificationParams struct {
	ID                string
	Title             *string
	Message           string
	Severity          NotificationSeverity
	Audience          NotificationAudience
	DisplayDurationMs int
	ExpiresAt         time.Time
}
