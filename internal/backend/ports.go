// Package backend defines the ports the editor core depends on and the
// selection of their concrete implementations. The remote GraphQL service is
// the system of record; the front-end only reads and creates through it.
package backend

import (
	"context"

	"moneybook/internal/core"
)

// Account is one account under a bank, referenced by drafts via AccountID.
type Account struct {
	ID      string
	Name    string
	Balance int64
}

// Bank groups accounts for the picker and overview pages.
type Bank struct {
	ID       string
	Name     string
	Balance  int64
	Accounts []Account
}

// Ports for the remote finance backend.
type (
	RetailerLister interface {
		ListRetailers(ctx context.Context) ([]core.Retailer, error)
	}

	RetailerCreator interface {
		CreateRetailer(ctx context.Context, name string, category core.Category) (core.Retailer, error)
	}

	// TransactionCreator persists one draft row remotely and returns the
	// created transaction id.
	TransactionCreator interface {
		CreateTransaction(ctx context.Context, draft core.TransactionDraft) (string, error)
	}

	BankReader interface {
		ListBanks(ctx context.Context) ([]Bank, error)
	}

	// CategoryReader lists the retailer category enumeration as the backend
	// schema defines it.
	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}
)

// Backend bundles all ports a full deployment needs.
type Backend interface {
	RetailerLister
	RetailerCreator
	TransactionCreator
	BankReader
	CategoryReader
}

// Type selects a backend implementation.
type Type string

const (
	TypeGraphQL Type = "graphql"
	TypeMemory  Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case TypeGraphQL, TypeMemory:
		return true
	default:
		return false
	}
}
