package worker

// report_worker.go
// Processes closing-report jobs from QueueReport.
// Renders the shift closing report to PDF, persists it to disk, and
// enqueues an email job so the supervisor gets a copy.

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/infra"
	"github.com/Mike861205/cajavscode-sub001/internal/model"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportJobPayload is the job envelope sent to QueueReport.
type ReportJobPayload struct {
	TenantID string `json:"tenant_id"`
	ShiftID  string `json:"shift_id"`
}

// ReportBuilder assembles the closing report for a closed shift.
// Satisfied by the register service; declared here so the worker does
// not depend on the service package.
type ReportBuilder interface {
	Report(ctx context.Context, tenantID, shiftID uuid.UUID) (*dto.ClosingReport, error)
}

// ReportWorker renders and stores closing-report PDFs.
type ReportWorker struct {
	builder         ReportBuilder
	repo            repository.RegisterRepository
	dispatcher      *Dispatcher
	storagePath     string
	supervisorEmail string
}

func NewReportWorker(
	builder ReportBuilder,
	repo repository.RegisterRepository,
	dispatcher *Dispatcher,
	storagePath string,
	supervisorEmail string,
) *ReportWorker {
	return &ReportWorker{
		builder:         builder,
		repo:            repo,
		dispatcher:      dispatcher,
		storagePath:     storagePath,
		supervisorEmail: supervisorEmail,
	}
}

// Process handles a single report job:
//  1. Parse ReportJobPayload from the job envelope
//  2. Build the closing report from the frozen ledger
//  3. Render it to PDF with up to 3 attempts
//  4. Store the file and flip the shift's report status
//  5. Enqueue the supervisor email
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}

	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		log.Error().Str("tenant_id", payload.TenantID).Msg("report_worker: invalid tenant_id")
		return
	}
	shiftID, err := uuid.Parse(payload.ShiftID)
	if err != nil {
		log.Error().Str("shift_id", payload.ShiftID).Msg("report_worker: invalid shift_id")
		return
	}

	shift, err := w.repo.FindShiftByID(ctx, tenantID, shiftID)
	if err != nil {
		log.Error().Err(err).Str("shift_id", payload.ShiftID).Msg("report_worker: shift not found")
		return
	}
	if shift.Status != model.ShiftClosed {
		log.Warn().Str("shift_id", payload.ShiftID).Msg("report_worker: shift not closed — skipping")
		return
	}

	report, err := w.builder.Report(ctx, tenantID, shiftID)
	if err != nil {
		log.Error().Err(err).Str("shift_id", payload.ShiftID).Msg("report_worker: failed to build report")
		w.markFailed(ctx, shift, raw, err)
		return
	}

	var pdf []byte
	renderErr := withRetry(ctx, 3, func(attempt int) error {
		data, err := infra.RenderClosingReportPDF(*report)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("shift_id", payload.ShiftID).
				Msg("report_worker: render attempt failed, retrying")
			return err
		}
		pdf = data
		return nil
	})
	if renderErr != nil {
		log.Error().Err(renderErr).Str("shift_id", payload.ShiftID).Msg("report_worker: render failed after all retries")
		w.markFailed(ctx, shift, raw, renderErr)
		return
	}

	if err := os.MkdirAll(w.storagePath, 0o755); err != nil {
		w.markFailed(ctx, shift, raw, err)
		return
	}
	path := filepath.Join(w.storagePath, fmt.Sprintf("shift_%s.pdf", shiftID))
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		log.Error().Err(err).Str("path", path).Msg("report_worker: failed to write PDF")
		w.markFailed(ctx, shift, raw, err)
		return
	}

	shift.ReportStatus = model.ReportSent
	shift.ReportPath = &path
	if err := w.repo.UpdateShiftTx(nil, shift); err != nil {
		log.Error().Err(err).Str("shift_id", payload.ShiftID).Msg("report_worker: failed to update shift")
		return
	}
	log.Info().Str("path", path).Str("shift_id", payload.ShiftID).Msg("report_worker: PDF stored")

	if w.supervisorEmail != "" {
		emailJob := EmailJobPayload{
			ToEmail: w.supervisorEmail,
			Subject: fmt.Sprintf("Shift closing report — %s", shiftID),
			Body: fmt.Sprintf("Shift closed by %s at %s.\nCounted: %s %s — difference: %s.",
				report.Cashier, report.ClosedAt,
				report.Reconciliation.CountedTotal.StringFixed(2), report.Currency,
				report.Reconciliation.Difference.StringFixed(2)),
			PDFPath: path,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", w.supervisorEmail).Msg("report_worker: failed to enqueue email")
		}
	}
}

func (w *ReportWorker) markFailed(ctx context.Context, shift *model.RegisterShift, raw json.RawMessage, cause error) {
	shift.ReportStatus = model.ReportFailed
	if err := w.repo.UpdateShiftTx(nil, shift); err != nil {
		log.Error().Err(err).Str("shift_id", shift.ID.String()).Msg("report_worker: failed to mark report failed")
	}
	SendToDLQ(ctx, w.dispatcher.rdb, QueueReport, "report", raw, cause.Error(), 3)
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
