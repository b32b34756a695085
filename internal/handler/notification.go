package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/httputil"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/service"
	"github.com/quickmart/pos-server/internal/util"
)

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Feed)
	r.Post("/{id}/dismiss", h.Dismiss)
	return r
}

// GET /v1/notifications?audience=desktops
func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	audience := r.URL.Query().Get("audience")
	if !util.IsValidEnum(audience, []string{
		string(model.AudienceAll), string(model.AudienceDesktops), string(model.AudienceMobiles),
	}) {
		httputil.WriteError(w, apperrors.InvalidInput("audience", "must be all, desktops, or mobiles"))
		return
	}

	notifications, err := h.notifications.Feed(r.Context(), model.NotificationAudience(audience), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("notification feed failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
	})
}

// POST /v1/notifications/{id}/dismiss
func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		httputil.WriteError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	dismissed, err := h.notifications.Dismiss(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("notificationId", id).Msg("dismiss notification failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if !dismissed {
		httputil.WriteError(w, apperrors.NotFound("Notification"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
