package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventLoginSuccess      EventType = "login_success"
	EventLoginFailure      EventType = "login_failure"
	EventLogout            EventType = "logout"
	EventScannerActivate   EventType = "scanner_activate"
	EventScannerDeactivate EventType = "scanner_deactivate"
	EventScannerJoin       EventType = "scanner_join"
	EventRateLimitExceed   EventType = "rate_limit_exceeded"
	EventAuthFailure       EventType = "auth_failure"
)

type Event struct {
	Type      EventType
	StaffID   string
	SessionID string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.StaffID != "" {
		logger = logger.With().Str("staff_id", event.StaffID).Logger()
	}
	if event.SessionID != "" {
		logger = logger.With().Str("session_id", event.SessionID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = logEvent.Interface(k, v)
	}
	logEvent.Msg("audit event")
}

// FromRequest fills network fields from the HTTP request.
func FromRequest(r *http.Request, event Event) Event {
	event.IP = r.RemoteAddr
	event.UserAgent = r.UserAgent()
	return event
}
