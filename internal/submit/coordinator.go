// Package submit turns a draft list into independent remote creation
// requests and aggregates the settled outcomes.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"moneybook/internal/backend"
	"moneybook/internal/core"
)

// ErrSubmitInFlight is returned when a batch is submitted while a previous
// one has not settled yet.
var ErrSubmitInFlight = errors.New("batch submission already in flight")

// RowResult is the settled outcome of one row's creation request.
type RowResult struct {
	RowID         int
	TransactionID string
	Err           error
}

// Outcome aggregates the per-row results of one batch.
type Outcome struct {
	Results []RowResult
	Created int
	Failed  int
}

// Coordinator submits draft rows as independent concurrent requests. Requests
// are never serialized against each other and a failing row does not cancel
// the rest; the coordinator always waits for full settlement.
type Coordinator struct {
	creator  backend.TransactionCreator
	limit    int
	inFlight atomic.Bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrencyLimit caps how many row requests run at once.
// Zero or negative means unbounded.
func WithConcurrencyLimit(n int) Option {
	return func(c *Coordinator) {
		c.limit = n
	}
}

func NewCoordinator(creator backend.TransactionCreator, opts ...Option) *Coordinator {
	c := &Coordinator{creator: creator}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports whether a batch is currently outstanding. Callers use it
// to disable the submit affordance while requests are pending.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

// Submit issues one creation request per row, waits for all of them to
// settle and returns the aggregate outcome. A second Submit before the first
// settles returns ErrSubmitInFlight. Cancelling ctx cancels the whole batch;
// rows that were cut short settle as failures.
func (c *Coordinator) Submit(ctx context.Context, rows []core.TransactionDraft) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrSubmitInFlight
	}
	defer c.inFlight.Store(false)

	outcome := Outcome{Results: make([]RowResult, len(rows))}
	if len(rows) == 0 {
		return outcome, nil
	}

	// Per-batch cancellation token: teardown of the caller propagates to
	// every in-flight row request instead of silently abandoning them.
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := new(errgroup.Group)
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i, row := range rows {
		outcome.Results[i] = RowResult{RowID: row.ID}
		g.Go(func() error {
			id, err := c.createRow(batchCtx, row)
			outcome.Results[i].TransactionID = id
			outcome.Results[i].Err = err
			// Row failures are data, not group errors: a failed row must
			// never short-circuit its siblings.
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range outcome.Results {
		if r.Err != nil {
			outcome.Failed++
		} else {
			outcome.Created++
		}
	}
	return outcome, nil
}

// createRow issues one request, converting a panic in the transport layer
// into that row's failure.
func (c *Coordinator) createRow(ctx context.Context, row core.TransactionDraft) (id string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("row %d submission panicked: %v", row.ID, rec)
		}
	}()
	return c.creator.CreateTransaction(ctx, row)
}
