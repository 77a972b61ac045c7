// Package drafts implements the draft list store of the batch transaction
// editor: an ordered list of in-progress transaction rows for one account.
package drafts

import (
	"sync"

	"moneybook/internal/core"
)

// Patch describes a partial row update. Nil fields are left untouched;
// ClearAmount removes the amount regardless of the Amount field.
type Patch struct {
	Date        *string
	Amount      *int64
	ClearAmount bool
	RetailerID  *string
	Note        *string
	IsInternal  *bool
}

// Store holds the ordered draft list for one account. The list always
// contains at least one row; removing the last remaining row is a no-op.
// All operations are safe for concurrent use: the store is shared between
// handler goroutines of one session.
type Store struct {
	mu        sync.Mutex
	accountID string
	rows      []core.TransactionDraft
}

// New returns a store holding a single blank row for the given account.
func New(accountID string) *Store {
	return &Store{
		accountID: accountID,
		rows:      []core.TransactionDraft{core.BlankDraft(1, accountID)},
	}
}

// AccountID returns the owning account, fixed for the store's lifetime.
func (s *Store) AccountID() string {
	return s.accountID
}

// AddRow appends a new blank row with id max(existing)+1 and returns it.
func (s *Store) AddRow() core.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for _, r := range s.rows {
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	row := core.BlankDraft(next, s.accountID)
	s.rows = append(s.rows, row)
	return row
}

// UpdateRow merges patch into the row matching id. An unknown id is a no-op;
// it reports whether a row was updated.
func (s *Store) UpdateRow(id int, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rows {
		if s.rows[i].ID != id {
			continue
		}
		if patch.Date != nil {
			s.rows[i].Date = *patch.Date
		}
		switch {
		case patch.ClearAmount:
			s.rows[i].Amount = nil
		case patch.Amount != nil:
			v := *patch.Amount
			s.rows[i].Amount = &v
		}
		if patch.RetailerID != nil {
			s.rows[i].RetailerID = *patch.RetailerID
		}
		if patch.Note != nil {
			s.rows[i].Note = *patch.Note
		}
		if patch.IsInternal != nil {
			s.rows[i].IsInternal = *patch.IsInternal
		}
		return true
	}
	return false
}

// RemoveRow removes the row matching id and reindexes the remaining rows to a
// contiguous 1..N sequence in insertion order. Removing the only remaining
// row, or an unknown id, is a no-op; it reports whether a row was removed.
func (s *Store) RemoveRow(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rows) <= 1 {
		return false
	}

	idx := -1
	for i, r := range s.rows {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	s.rows = append(s.rows[:idx], s.rows[idx+1:]...)
	for i := range s.rows {
		s.rows[i].ID = i + 1
	}
	return true
}

// Reset replaces the whole list with a single fresh blank row.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = []core.TransactionDraft{core.BlankDraft(1, s.accountID)}
}

// Rows returns a copy of the current list in insertion order.
func (s *Store) Rows() []core.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.TransactionDraft, len(s.rows))
	copy(out, s.rows)
	return out
}

// Row returns the row matching id.
func (s *Store) Row(id int) (core.TransactionDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			return r, true
		}
	}
	return core.TransactionDraft{}, false
}

// LastRow returns the last row in list order.
func (s *Store) LastRow() core.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[len(s.rows)-1]
}

// Len returns the current number of rows.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
