// Package worker syncs journaled submissions to the export sheet. It is
// driven by batch-recorded AMQP messages, with a periodic catch-up pass for
// submissions whose messages were lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"moneybook/internal/amqp"
	"moneybook/internal/history"
	"moneybook/internal/sheets"
)

type ExportWorker struct {
	journal   *history.Store
	sheet     sheets.SubmissionAppender
	batchSize int
}

func NewExportWorker(journal *history.Store, sheet sheets.SubmissionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		journal:   journal,
		sheet:     sheet,
		batchSize: batchSize,
	}
}

// HandleBatchRecorded processes a single batch-recorded message from AMQP.
func (w *ExportWorker) HandleBatchRecorded(ctx context.Context, msg *amqp.BatchRecordedMessage) error {
	slog.InfoContext(ctx, "Processing batch recorded message",
		"submission_id", msg.SubmissionID,
		"account_id", msg.AccountID,
		"created", msg.Created)

	sub, err := w.journal.Get(ctx, msg.SubmissionID)
	if err != nil {
		return fmt.Errorf("get submission from journal: %w", err)
	}

	if sub.Exported {
		slog.DebugContext(ctx, "Submission already exported, skipping",
			"submission_id", sub.ID)
		return nil
	}

	if err := w.exportSubmission(ctx, sub); err != nil {
		return fmt.Errorf("export submission: %w", err)
	}
	return nil
}

// ProcessPending exports any submissions that have no export mark yet. This
// is the backup path for lost AMQP messages.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.journal.ListUnexported(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unexported submissions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending submissions", "count", len(pending))

	for _, sub := range pending {
		if err := w.exportSubmission(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Failed to export submission",
				"submission_id", sub.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupExportCheck drains the unexported backlog once at worker startup,
// recovering from missed messages or worker downtime.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.journal.ListUnexported(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unexported submissions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending submissions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending submissions on startup, processing...",
		"count", len(pending))

	exported := 0
	failed := 0
	for _, sub := range pending {
		if err := w.exportSubmission(ctx, sub); err != nil {
			slog.ErrorContext(ctx, "Failed to export submission during startup",
				"submission_id", sub.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportSubmission(ctx context.Context, sub history.Submission) error {
	ref, err := w.sheet.AppendSubmission(ctx, sub)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.journal.MarkExported(ctx, sub.ID); err != nil {
		// The rows are on the sheet; a missing mark means a duplicate export
		// on the next pass, not data loss.
		slog.ErrorContext(ctx, "Failed to mark submission as exported",
			"submission_id", sub.ID, "error", err)
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Exported submission",
		"submission_id", sub.ID,
		"account_id", sub.AccountID,
		"rows", sub.Created,
		"sheet_ref", ref)
	return nil
}
