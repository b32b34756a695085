package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/audit"
	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/httputil"
	"github.com/quickmart/pos-server/internal/middleware"
	"github.com/quickmart/pos-server/internal/service"
)

type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
}

func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	return r
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, apperrors.MissingRequired("username and password"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrCodeUnauthorized {
			audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Details: map[string]interface{}{"username": req.Username},
			}))
			httputil.WriteError(w, err)
			return
		}
		log.Error().Err(err).Msg("login failed")
		httputil.WriteError(w, apperrors.Internal("Login failed"))
		return
	}

	middleware.SetSessionCookie(w, result.Token, h.secureCookie)

	audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		StaffID: result.Staff.ID,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"staffId":     result.Staff.ID,
		"username":    result.Staff.Username,
		"displayName": result.Staff.DisplayName,
		"role":        result.Staff.Role,
	})
}

// POST /v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err == nil && cookie.Value != "" {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("logout failed")
		} else {
			audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
				Type: audit.EventLogout,
			}))
		}
	}

	middleware.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out",
	})
}
