// Package services orchestrates the batch transaction editor: the draft
// list, the retailer directory and the submission coordinator, plus the
// best-effort journaling and event publishing that follow a submission.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"moneybook/internal/amqp"
	"moneybook/internal/core"
	"moneybook/internal/drafts"
	"moneybook/internal/history"
	applog "moneybook/internal/log"
	"moneybook/internal/retailers"
	"moneybook/internal/submit"
)

// SubmitReport is the user-facing outcome of one batch submission.
type SubmitReport struct {
	Created int
	Failed  int
	// Reset is true when at least one row succeeded and the draft list was
	// replaced with a single blank row.
	Reset   bool
	Results []submit.RowResult
}

// EditorService drives one editing session. The store is session-scoped; the
// directory, coordinator, journal and AMQP client are shared across sessions.
type EditorService struct {
	store       *drafts.Store
	directory   *retailers.Directory
	coordinator *submit.Coordinator
	journal     *history.Store
	amqpClient  *amqp.Client
}

func NewEditorService(
	store *drafts.Store,
	directory *retailers.Directory,
	coordinator *submit.Coordinator,
	journal *history.Store,
	amqpClient *amqp.Client,
) *EditorService {
	return &EditorService{
		store:       store,
		directory:   directory,
		coordinator: coordinator,
		journal:     journal,
		amqpClient:  amqpClient,
	}
}

// Store exposes the underlying draft list for row-level operations.
func (s *EditorService) Store() *drafts.Store {
	return s.store
}

// Directory exposes the retailer directory for list rendering.
func (s *EditorService) Directory() *retailers.Directory {
	return s.directory
}

// Submitting reports whether a batch is currently outstanding.
func (s *EditorService) Submitting() bool {
	return s.coordinator.InFlight()
}

// SubmitAll submits the current draft list. When at least one row succeeds
// the list is reset to a single blank row; when every row fails the list is
// left untouched for correction. Journaling and event publishing are
// best-effort and never fail the submission itself.
func (s *EditorService) SubmitAll(ctx context.Context) (SubmitReport, error) {
	rows := s.store.Rows()

	outcome, err := s.coordinator.Submit(ctx, rows)
	if err != nil {
		return SubmitReport{}, fmt.Errorf("submit batch: %w", err)
	}

	report := SubmitReport{
		Created: outcome.Created,
		Failed:  outcome.Failed,
		Results: outcome.Results,
	}
	if outcome.Created == 0 {
		return report, nil
	}

	s.store.Reset()
	report.Reset = true

	id := s.journalBatch(ctx, rows, outcome)
	if id != 0 {
		s.publishBatchRecorded(ctx, id, outcome.Created)
	}

	return report, nil
}

// CreateRetailerFor creates a retailer and binds it to the draft row that
// invoked the dialog. rowID 0 means "unspecified" and falls back to the last
// row in list order. An unknown rowID still creates the retailer; only the
// binding is skipped.
func (s *EditorService) CreateRetailerFor(ctx context.Context, rowID int, name string, category core.Category) (core.Retailer, error) {
	created, err := s.directory.Create(ctx, name, category)
	if err != nil {
		return core.Retailer{}, err
	}

	if rowID == 0 && s.store.Len() > 0 {
		rowID = s.store.LastRow().ID
	}
	if !s.store.UpdateRow(rowID, drafts.Patch{RetailerID: &created.ID}) {
		slog.WarnContext(ctx, "Created retailer not bound: row gone",
			"row_id", rowID, "retailer_id", created.ID)
	}

	return created, nil
}

// journalBatch records the settled batch locally; returns 0 when journaling
// is disabled or failed.
func (s *EditorService) journalBatch(ctx context.Context, rows []core.TransactionDraft, outcome submit.Outcome) int64 {
	if s.journal == nil {
		return 0
	}

	entry := history.Submission{
		AccountID: s.store.AccountID(),
		Created:   outcome.Created,
		Failed:    outcome.Failed,
	}
	for i, row := range rows {
		result := outcome.Results[i]
		status := history.RowStatusCreated
		if result.Err != nil {
			status = history.RowStatusFailed
		}
		var retailerName string
		if r, ok := s.directory.FindByID(row.RetailerID); ok {
			retailerName = r.Name
		}
		entry.Rows = append(entry.Rows, history.Row{
			RowIndex:      i + 1,
			Date:          row.Date,
			AmountCents:   row.Amount,
			RetailerID:    row.RetailerID,
			RetailerName:  retailerName,
			Note:          row.Note,
			IsInternal:    row.IsInternal,
			TransactionID: result.TransactionID,
			Status:        status,
		})
	}

	id, err := s.journal.Record(ctx, entry)
	if err != nil {
		// Don't fail the submission - the backend already accepted the rows
		slog.ErrorContext(ctx, "Failed to journal submission",
			"account_id", entry.AccountID, "error", err)
		return 0
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).
		LogBatchSubmitted(ctx, entry.AccountID, id, outcome.Created, outcome.Failed)
	return id
}

func (s *EditorService) publishBatchRecorded(ctx context.Context, submissionID int64, created int) {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping batch recorded message")
		return
	}
	if err := s.amqpClient.PublishBatchRecorded(ctx, submissionID, s.store.AccountID(), created); err != nil {
		slog.ErrorContext(ctx, "Failed to publish batch recorded message",
			"submission_id", submissionID, "error", err)
	}
}
