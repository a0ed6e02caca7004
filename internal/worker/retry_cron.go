package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues report jobs for
// closed shifts whose report is still pending. Covers crashes between the
// close commit and the enqueue, and Redis outages. Failed reports land in
// the DLQ and are left for manual inspection.

import (
	"context"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Repo       repository.RegisterRepository
	Dispatcher *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries shifts with undelivered reports, and re-enqueues their jobs.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	shifts, err := cfg.Repo.ListPendingReports(ctx, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending reports")
		return
	}
	if len(shifts) == 0 {
		return
	}

	log.Info().Int("count", len(shifts)).Msg("retry_cron: re-enqueueing pending reports")

	for i := range shifts {
		shift := &shifts[i]
		payload := ReportJobPayload{
			TenantID: shift.TenantID.String(),
			ShiftID:  shift.ID.String(),
		}
		if err := cfg.Dispatcher.EnqueueReport(ctx, payload); err != nil {
			log.Warn().Err(err).Str("shift_id", shift.ID.String()).Msg("retry_cron: enqueue failed")
			return // redis is down, the next tick will retry the batch
		}
	}
}
