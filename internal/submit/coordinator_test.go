package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"moneybook/internal/backend/memory"
	"moneybook/internal/core"
)

// creatorFunc adapts a function to the TransactionCreator port.
type creatorFunc func(ctx context.Context, draft core.TransactionDraft) (string, error)

func (f creatorFunc) CreateTransaction(ctx context.Context, draft core.TransactionDraft) (string, error) {
	return f(ctx, draft)
}

func draftRows(n int) []core.TransactionDraft {
	rows := make([]core.TransactionDraft, n)
	for i := range rows {
		rows[i] = core.BlankDraft(i+1, "acct-1")
		rows[i].Note = fmt.Sprintf("row-%d", i+1)
	}
	return rows
}

func TestSubmitAllRowsSucceed(t *testing.T) {
	store := memory.New()
	c := NewCoordinator(store)

	out, err := c.Submit(context.Background(), draftRows(3))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Created != 3 || out.Failed != 0 {
		t.Errorf("Created=%d Failed=%d, want 3/0", out.Created, out.Failed)
	}
	if len(store.CreatedTransactions()) != 3 {
		t.Errorf("backend received %d rows, want 3", len(store.CreatedTransactions()))
	}
	for _, r := range out.Results {
		if r.Err != nil || r.TransactionID == "" {
			t.Errorf("row %d: unexpected result %+v", r.RowID, r)
		}
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	store := memory.New()
	store.FailNote("row-2", errors.New("backend rejected"))
	c := NewCoordinator(store)

	out, err := c.Submit(context.Background(), draftRows(3))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Created != 2 || out.Failed != 1 {
		t.Errorf("Created=%d Failed=%d, want 2/1", out.Created, out.Failed)
	}

	// Per-row results identify exactly which row failed.
	for _, r := range out.Results {
		if r.RowID == 2 {
			if r.Err == nil {
				t.Error("row 2 should carry its failure")
			}
		} else if r.Err != nil {
			t.Errorf("row %d should have succeeded: %v", r.RowID, r.Err)
		}
	}
}

func TestSubmitTotalFailure(t *testing.T) {
	store := memory.New()
	store.SetCreateTransactionError(errors.New("backend down"))
	c := NewCoordinator(store)

	out, err := c.Submit(context.Background(), draftRows(4))
	if err != nil {
		t.Fatalf("failed rows must not surface as a Submit error: %v", err)
	}
	if out.Created != 0 || out.Failed != 4 {
		t.Errorf("Created=%d Failed=%d, want 0/4", out.Created, out.Failed)
	}
}

func TestSubmitSuccessFailureMatrix(t *testing.T) {
	for n := 1; n <= 4; n++ {
		for k := 0; k <= n; k++ {
			t.Run(fmt.Sprintf("n%d_k%d", n, k), func(t *testing.T) {
				store := memory.New()
				for i := k + 1; i <= n; i++ {
					store.FailNote(fmt.Sprintf("row-%d", i), errors.New("fail"))
				}
				c := NewCoordinator(store)

				out, err := c.Submit(context.Background(), draftRows(n))
				if err != nil {
					t.Fatalf("Submit error: %v", err)
				}
				if out.Created != k || out.Failed != n-k {
					t.Errorf("Created=%d Failed=%d, want %d/%d", out.Created, out.Failed, k, n-k)
				}
			})
		}
	}
}

func TestSubmitEmptyListIssuesNoCalls(t *testing.T) {
	calls := 0
	c := NewCoordinator(creatorFunc(func(context.Context, core.TransactionDraft) (string, error) {
		calls++
		return "x", nil
	}))

	out, err := c.Submit(context.Background(), nil)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if calls != 0 || out.Created != 0 || out.Failed != 0 {
		t.Errorf("empty batch should settle immediately: calls=%d outcome=%+v", calls, out)
	}
}

func TestSubmitRejectsConcurrentBatch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	c := NewCoordinator(creatorFunc(func(ctx context.Context, _ core.TransactionDraft) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return "x", nil
	}))

	done := make(chan Outcome, 1)
	go func() {
		out, _ := c.Submit(context.Background(), draftRows(1))
		done <- out
	}()

	<-started
	if !c.InFlight() {
		t.Error("InFlight should report true while the batch is outstanding")
	}
	if _, err := c.Submit(context.Background(), draftRows(1)); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("second Submit error = %v, want ErrSubmitInFlight", err)
	}

	close(release)
	out := <-done
	if out.Created != 1 {
		t.Errorf("first batch should settle normally, got %+v", out)
	}
	if c.InFlight() {
		t.Error("InFlight should reset after settlement")
	}
}

func TestSubmitRecoversRowPanic(t *testing.T) {
	c := NewCoordinator(creatorFunc(func(_ context.Context, d core.TransactionDraft) (string, error) {
		if d.ID == 2 {
			panic("transport blew up")
		}
		return "x", nil
	}))

	out, err := c.Submit(context.Background(), draftRows(3))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Created != 2 || out.Failed != 1 {
		t.Errorf("Created=%d Failed=%d, want 2/1", out.Created, out.Failed)
	}
}

func TestSubmitCancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCoordinator(creatorFunc(func(ctx context.Context, _ core.TransactionDraft) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out, err := c.Submit(ctx, draftRows(2))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if out.Failed != 2 {
		t.Errorf("cancelled rows should settle as failures, got %+v", out)
	}
}

func TestSubmitRespectsConcurrencyLimit(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	c := NewCoordinator(creatorFunc(func(context.Context, core.TransactionDraft) (string, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return "x", nil
	}), WithConcurrencyLimit(2))

	if _, err := c.Submit(context.Background(), draftRows(6)); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak)
	}
}
