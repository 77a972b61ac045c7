// Package memory provides an in-process backend for development and tests.
// It records created transactions and supports per-row error injection so the
// submission coordinator's partial-failure paths can be exercised.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"moneybook/internal/backend"
	"moneybook/internal/core"
)

type Store struct {
	mu        sync.Mutex
	retailers []core.Retailer
	banks     []backend.Bank
	created   []core.TransactionDraft

	nextRetailerID int
	nextTxID       int

	listErr           error
	createRetailerErr error
	createTxErr       error
	failNotes         map[string]error
}

var _ backend.Backend = (*Store)(nil)

func New() *Store {
	return &Store{
		nextRetailerID: 1,
		nextTxID:       1,
		failNotes:      make(map[string]error),
	}
}

// NewWithDefaults returns a store seeded with a small bank/retailer fixture,
// used by the memory data backend in development mode.
func NewWithDefaults() *Store {
	s := New()
	s.SeedRetailers(
		core.Retailer{Name: "Corner Mart", Category: core.CategoryGrocery},
		core.Retailer{Name: "City Transit", Category: core.CategoryTransportation},
		core.Retailer{Name: "Nine Diner", Category: core.CategoryEatOut},
	)
	s.SeedBanks(backend.Bank{
		ID:      "bank-1",
		Name:    "Demo Bank",
		Balance: 125000,
		Accounts: []backend.Account{
			{ID: "acct-1", Name: "Checking", Balance: 100000},
			{ID: "acct-2", Name: "Savings", Balance: 25000},
		},
	})
	return s
}

// SeedRetailers adds retailers, assigning ids to entries that have none.
func (s *Store) SeedRetailers(retailers ...core.Retailer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range retailers {
		if r.ID == "" {
			r.ID = strconv.Itoa(s.nextRetailerID)
		}
		s.nextRetailerID++
		s.retailers = append(s.retailers, r)
	}
}

func (s *Store) SeedBanks(banks ...backend.Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks = append(s.banks, banks...)
}

// SetListRetailersError makes subsequent ListRetailers calls fail with err.
func (s *Store) SetListRetailersError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

// SetCreateRetailerError makes subsequent CreateRetailer calls fail with err.
func (s *Store) SetCreateRetailerError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createRetailerErr = err
}

// SetCreateTransactionError makes every CreateTransaction call fail with err.
func (s *Store) SetCreateTransactionError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createTxErr = err
}

// FailNote makes CreateTransaction fail only for drafts carrying the given
// note, which lets tests fail specific rows of a batch.
func (s *Store) FailNote(note string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNotes[note] = err
}

// CreatedTransactions returns a copy of all drafts accepted so far.
func (s *Store) CreatedTransactions() []core.TransactionDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.TransactionDraft, len(s.created))
	copy(out, s.created)
	return out
}

func (s *Store) ListRetailers(_ context.Context) ([]core.Retailer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]core.Retailer, len(s.retailers))
	copy(out, s.retailers)
	return out, nil
}

func (s *Store) CreateRetailer(_ context.Context, name string, category core.Category) (core.Retailer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createRetailerErr != nil {
		return core.Retailer{}, s.createRetailerErr
	}

	r := core.Retailer{
		ID:       strconv.Itoa(s.nextRetailerID),
		Name:     name,
		Category: category,
	}
	if err := r.Validate(); err != nil {
		return core.Retailer{}, err
	}
	s.nextRetailerID++
	s.retailers = append(s.retailers, r)
	return r, nil
}

func (s *Store) CreateTransaction(_ context.Context, draft core.TransactionDraft) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createTxErr != nil {
		return "", s.createTxErr
	}
	if err, ok := s.failNotes[draft.Note]; ok {
		return "", err
	}

	id := fmt.Sprintf("tx-%d", s.nextTxID)
	s.nextTxID++
	s.created = append(s.created, draft)
	return id, nil
}

func (s *Store) ListBanks(_ context.Context) ([]backend.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]backend.Bank, len(s.banks))
	copy(out, s.banks)
	return out, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	return core.Categories(), nil
}
