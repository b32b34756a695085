package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// MobileLivenessWindow is how recent the last mobile heartbeat must be for
// the desktop status endpoint to report the mobile as connected. Heartbeat
// cadence and desktop poll cadence are independent, so this is a display
// heuristic only: a mobile may still submit scans while briefly reported
// as disconnected.
const MobileLivenessWindow = 45 * time.Second

// Default rate limit for scan submission when config leaves it unset
const DefaultRateLimitPerMin = 120
