// Package history persists submitted batches locally so the web UI can show
// recent submissions and the export worker can replay them into a
// spreadsheet. The remote backend stays the system of record; this store is
// a local journal only.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RowStatus marks how one row of a batch settled.
const (
	RowStatusCreated = "created"
	RowStatusFailed  = "failed"
)

// Row is one settled draft row of a recorded submission.
type Row struct {
	RowIndex      int
	Date          string
	AmountCents   *int64
	RetailerID    string
	RetailerName  string
	Note          string
	IsInternal    bool
	TransactionID string
	Status        string
}

// Submission is one recorded batch.
type Submission struct {
	ID          int64
	AccountID   string
	Created     int
	Failed      int
	Exported    bool
	SubmittedAt time.Time
	Rows        []Row
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite journal at dbPath and runs
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a submission with its rows and returns the new id.
func (s *Store) Record(ctx context.Context, sub Submission) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	submittedAt := sub.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO submissions (account_id, created, failed, exported, submitted_at)
		 VALUES (?, ?, ?, 0, ?)`,
		sub.AccountID, sub.Created, sub.Failed, submittedAt)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("submission id: %w", err)
	}

	for _, row := range sub.Rows {
		var amount sql.NullInt64
		if row.AmountCents != nil {
			amount = sql.NullInt64{Int64: *row.AmountCents, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO submission_rows
			   (submission_id, row_index, date, amount_cents, retailer_id, retailer_name, note, is_internal, transaction_id, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, row.RowIndex, row.Date, amount, row.RetailerID, row.RetailerName,
			row.Note, row.IsInternal, row.TransactionID, row.Status)
		if err != nil {
			return 0, fmt.Errorf("insert submission row %d: %w", row.RowIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit submission: %w", err)
	}

	slog.InfoContext(ctx, "Submission recorded",
		"id", id,
		"account_id", sub.AccountID,
		"created", sub.Created,
		"failed", sub.Failed)

	return id, nil
}

// Get loads one submission with its rows.
func (s *Store) Get(ctx context.Context, id int64) (Submission, error) {
	var sub Submission
	var exported int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, created, failed, exported, submitted_at
		   FROM submissions WHERE id = ?`, id).
		Scan(&sub.ID, &sub.AccountID, &sub.Created, &sub.Failed, &exported, &sub.SubmittedAt)
	if err != nil {
		return Submission{}, fmt.Errorf("get submission %d: %w", id, err)
	}
	sub.Exported = exported != 0

	rows, err := s.loadRows(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	sub.Rows = rows
	return sub, nil
}

// ListRecent returns the most recent submissions, newest first, rows included.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.list(ctx,
		`SELECT id, account_id, created, failed, exported, submitted_at
		   FROM submissions ORDER BY id DESC LIMIT ?`, limit)
}

// ListUnexported returns submissions not yet appended to the export sheet,
// oldest first so export order follows submission order.
func (s *Store) ListUnexported(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.list(ctx,
		`SELECT id, account_id, created, failed, exported, submitted_at
		   FROM submissions WHERE exported = 0 ORDER BY id ASC LIMIT ?`, limit)
}

// MarkExported flags a submission as appended to the export sheet.
func (s *Store) MarkExported(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE submissions SET exported = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark submission %d exported: %w", id, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, query string, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var exported int
		if err := rows.Scan(&sub.ID, &sub.AccountID, &sub.Created, &sub.Failed, &exported, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Exported = exported != 0
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}

	for i := range subs {
		subRows, err := s.loadRows(ctx, subs[i].ID)
		if err != nil {
			return nil, err
		}
		subs[i].Rows = subRows
	}
	return subs, nil
}

func (s *Store) loadRows(ctx context.Context, submissionID int64) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, date, amount_cents, retailer_id, retailer_name, note, is_internal, transaction_id, status
		   FROM submission_rows WHERE submission_id = ? ORDER BY row_index ASC`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("load rows for submission %d: %w", submissionID, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var amount sql.NullInt64
		var isInternal int
		if err := rows.Scan(&r.RowIndex, &r.Date, &amount, &r.RetailerID, &r.RetailerName,
			&r.Note, &isInternal, &r.TransactionID, &r.Status); err != nil {
			return nil, fmt.Errorf("scan submission row: %w", err)
		}
		if amount.Valid {
			v := amount.Int64
			r.AmountCents = &v
		}
		r.IsInternal = isInternal != 0
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission rows: %w", err)
	}
	return out, nil
}
