package history

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSubmission() Submission {
	amount := int64(150000)
	return Submission{
		AccountID: "acct-1",
		Created:   2,
		Failed:    1,
		Rows: []Row{
			{RowIndex: 1, Date: "2024-01-01", AmountCents: &amount, RetailerID: "r-1",
				RetailerName: "Corner Mart", Note: "groceries", TransactionID: "tx-1", Status: RowStatusCreated},
			{RowIndex: 2, Date: "2024-01-02", Note: "transfer", IsInternal: true,
				TransactionID: "tx-2", Status: RowStatusCreated},
			{RowIndex: 3, Date: "2024-01-03", Note: "rejected", Status: RowStatusFailed},
		},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, sampleSubmission())
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if id == 0 {
		t.Fatal("Record should return a non-zero id")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.AccountID != "acct-1" || got.Created != 2 || got.Failed != 1 {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Exported {
		t.Error("new submission should not be marked exported")
	}
	if len(got.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got.Rows))
	}
	if got.Rows[0].AmountCents == nil || *got.Rows[0].AmountCents != 150000 {
		t.Errorf("row 1 amount = %v", got.Rows[0].AmountCents)
	}
	if got.Rows[1].AmountCents != nil {
		t.Error("row 2 amount should be NULL")
	}
	if !got.Rows[1].IsInternal {
		t.Error("row 2 should be internal")
	}
	if got.Rows[2].Status != RowStatusFailed {
		t.Errorf("row 3 status = %q", got.Rows[2].Status)
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, _ := s.Record(ctx, sampleSubmission())
	second, _ := s.Record(ctx, sampleSubmission())

	subs, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].ID != second || subs[1].ID != first {
		t.Errorf("expected newest first, got ids %d, %d", subs[0].ID, subs[1].ID)
	}
	if len(subs[0].Rows) != 3 {
		t.Errorf("rows should be loaded, got %d", len(subs[0].Rows))
	}
}

func TestExportLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, _ := s.Record(ctx, sampleSubmission())
	id2, _ := s.Record(ctx, sampleSubmission())

	pending, err := s.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatalf("ListUnexported error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != id1 {
		t.Errorf("expected both pending oldest first, got %+v", pending)
	}

	if err := s.MarkExported(ctx, id1); err != nil {
		t.Fatalf("MarkExported error: %v", err)
	}

	pending, err = s.ListUnexported(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Errorf("only the second submission should remain pending: %+v", pending)
	}

	got, _ := s.Get(ctx, id1)
	if !got.Exported {
		t.Error("submission 1 should be marked exported")
	}
}
