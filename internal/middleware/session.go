package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/audit"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/service"
	"github.com/quickmart/pos-server/internal/util"
)

const (
	SessionCookie = "pos_session"
	SessionMaxAge = 24 * time.Hour
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Identity is the authenticated caller of a request: who the staff member
// is plus which device connection the request came from. The connection ID
// is derived from the auth session token, so the desktop and the mobile of
// the same staff member naturally carry distinct connection IDs.
type Identity struct {
	StaffID      string
	Username     string
	DisplayName  string
	Role         model.StaffRole
	ConnectionID string
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

type SessionMiddleware struct {
	auth *service.AuthService
}

func NewSessionMiddleware(auth *service.AuthService) *SessionMiddleware {
	return &SessionMiddleware{auth: auth}
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		staff, err := m.auth.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			log.Error().Err(err).Msg("session middleware: database error")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Session validation failed",
			})
			return
		}

		if staff == nil {
			audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
				Type: audit.EventAuthFailure,
			}))
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		identity := &Identity{
			StaffID:      staff.ID,
			Username:     staff.Username,
			DisplayName:  staff.DisplayName,
			Role:         staff.Role,
			ConnectionID: util.HashToken(cookie.Value),
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}
