package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/repository"
)

// CleanupJob periodically sweeps rows that lazy expiry filters already hide
// from reads: expired scanner sessions, staff sessions, and notifications.
type CleanupJob struct {
	scannerSessionRepo repository.ScannerSessionRepository
	staffSessionRepo   repository.StaffSessionRepository
	notificationRepo   repository.NotificationRepository
	interval           time.Duration
	done               chan struct{}
}

func NewCleanupJob(
	scannerSessionRepo repository.ScannerSessionRepository,
	staffSessionRepo repository.StaffSessionRepository,
	notificationRepo repository.NotificationRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		scannerSessionRepo: scannerSessionRepo,
		staffSessionRepo:   staffSessionRepo,
		notificationRepo:   notificationRepo,
		interval:           interval,
		done:               make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	j.runCleanup(ctx, "scanner sessions", j.scannerSessionRepo.DeleteExpired)
	j.runCleanup(ctx, "staff sessions", j.staffSessionRepo.DeleteExpired)
	j.runCleanup(ctx, "notifications", j.notificationRepo.DeleteExpired)
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
