package model

type ScannerSessionStatus string

const (
	ScannerStatusPendingMobile       ScannerSessionStatus = "pending_mobile"
	ScannerStatusMobileActive        ScannerSessionStatus = "mobile_active"
	ScannerStatusCompletedByDesktop  ScannerSessionStatus = "completed_by_desktop"
	ScannerStatusSupersededByDesktop ScannerSessionStatus = "superseded_by_desktop"
	ScannerStatusExpired             ScannerSessionStatus = "expired"
)

// IsActive reports whether the status still participates in a pairing.
// Expiry is time-based and checked separately against ExpiresAt.
func (s ScannerSessionStatus) IsActive() bool {
	return s == ScannerStatusPendingMobile || s == ScannerStatusMobileActive
}

type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

type NotificationAudience string

const (
	AudienceAll      NotificationAudience = "all"
	AudienceDesktops NotificationAudience = "desktops"
	AudienceMobiles  NotificationAudience = "mobiles"
)

type StaffRole string

const (
	RoleCashier StaffRole = "cashier"
	RoleManager StaffRole = "manager"
)
