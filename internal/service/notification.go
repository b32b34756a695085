package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/model"
	redisclient "github.com/quickmart/pos-server/internal/redis"
	"github.com/quickmart/pos-server/internal/repository"
)

const defaultDisplayDurationMs = 5000

// EmitParams describes one event for the popup/topbar feed.
type EmitParams struct {
	Title             string
	Message           string
	Severity          model.NotificationSeverity
	Audience          model.NotificationAudience
	DisplayDurationMs int
}

// Notifier is the sink the core services emit human-readable events into.
// Implementations are fire-and-forget: a failed emit must never fail the
// operation that produced it.
type Notifier interface {
	Emit(ctx context.Context, params EmitParams)
}

type NotificationService struct {
	repo  repository.NotificationRepository
	redis *redisclient.Client
	ttl   time.Duration
}

func NewNotificationService(repo repository.NotificationRepository, redis *redisclient.Client, ttl time.Duration) *NotificationService {
	return &NotificationService{
		repo:  repo,
		redis: redis,
		ttl:   ttl,
	}
}

func (s *NotificationService) Emit(ctx context.Context, params EmitParams) {
	if params.Severity == "" {
		params.Severity = model.SeverityInfo
	}
	if params.Audience == "" {
		params.Audience = model.AudienceAll
	}
	if params.DisplayDurationMs <= 0 {
		params.DisplayDurationMs = defaultDisplayDurationMs
	}

	var title *string
	if params.Title != "" {
		title = &params.Title
	}

	n, err := s.repo.Create(ctx, model.CreateNotificationParams{
		ID:                uuid.NewString(),
		Title:             title,
		Message:           params.Message,
		Severity:          params.Severity,
		Audience:          params.Audience,
		DisplayDurationMs: params.DisplayDurationMs,
		ExpiresAt:         time.Now().Add(s.ttl),
	})
	if err != nil {
		log.Error().Err(err).Str("message", params.Message).Msg("notification emit failed")
		return
	}

	s.publish(ctx, n)

	log.Debug().
		Str("notificationId", n.ID).
		Str("severity", string(n.Severity)).
		Str("audience", string(n.Audience)).
		Msg("notification emitted")
}

// publish pushes the notification onto the live feed channel. Best effort:
// clients that miss it still see the row on their next feed poll.
func (s *NotificationService) publish(ctx context.Context, n *model.Notification) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(n)
	if err != nil {
		return
	}

	channel := redisclient.NotificationChannel(string(n.Audience))
	if err := s.redis.Publish(ctx, channel, data).Err(); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("notification publish failed")
	}
}

func (s *NotificationService) Feed(ctx context.Context, audience model.NotificationAudience, limit, offset int) ([]model.Notification, error) {
	if audience == "" {
		audience = model.AudienceAll
	}
	return s.repo.ListActive(ctx, audience, limit, offset)
}

func (s *NotificationService) Dismiss(ctx context.Context, id string) (bool, error) {
	return s.repo.Dismiss(ctx, id)
}
