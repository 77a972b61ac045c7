// Package graphqlbackend implements the backend ports over the remote
// GraphQL service using the operations the service schema exposes.
package graphqlbackend

import (
	"context"
	"fmt"

	"moneybook/internal/backend"
	"moneybook/internal/core"
	"moneybook/internal/graphql"
)

const (
	retailerListQuery = `query RetailerList {
  retailerList {
    id
    name
    category
  }
}`

	createRetailerMutation = `mutation CreateRetailer($name: String!, $category: TransactionCategory!) {
  createRetailer(data: { name: $name, category: $category }) {
    id
    name
    category
  }
}`

	createTransactionMutation = `mutation CreateTransaction($accountId: ID!, $date: Date!, $amount: Float!, $retailerId: ID, $note: String, $isInternal: Boolean!) {
  createTransaction(
    data: {
      accountId: $accountId
      date: $date
      amount: $amount
      retailerId: $retailerId
      note: $note
      isInternal: $isInternal
    }
  ) {
    id
  }
}`

	bankListQuery = `query BankNodeWithBalance {
  bankRelay {
    edges {
      node {
        id
        name
        balance
        accountSet {
          edges {
            node {
              id
              name
              balance
            }
          }
        }
      }
    }
  }
}`

	categoryEnumQuery = `query RetailerCategory {
  __type(name: "TransactionCategory") {
    enumValues {
      name
    }
  }
}`
)

// Client implements backend.Backend over a GraphQL endpoint.
type Client struct {
	gql *graphql.Client
}

var _ backend.Backend = (*Client)(nil)

func New(gql *graphql.Client) *Client {
	return &Client{gql: gql}
}

func (c *Client) ListRetailers(ctx context.Context) ([]core.Retailer, error) {
	var out struct {
		RetailerList []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"retailerList"`
	}
	if err := c.gql.Do(ctx, retailerListQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("list retailers: %w", err)
	}

	retailers := make([]core.Retailer, 0, len(out.RetailerList))
	for _, r := range out.RetailerList {
		retailers = append(retailers, core.Retailer{
			ID:       r.ID,
			Name:     r.Name,
			Category: core.Category(r.Category),
		})
	}
	return retailers, nil
}

func (c *Client) CreateRetailer(ctx context.Context, name string, category core.Category) (core.Retailer, error) {
	vars := map[string]any{
		"name":     name,
		"category": string(category),
	}
	var out struct {
		CreateRetailer struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"createRetailer"`
	}
	if err := c.gql.Do(ctx, createRetailerMutation, vars, &out); err != nil {
		return core.Retailer{}, fmt.Errorf("create retailer: %w", err)
	}

	return core.Retailer{
		ID:       out.CreateRetailer.ID,
		Name:     out.CreateRetailer.Name,
		Category: core.Category(out.CreateRetailer.Category),
	}, nil
}

func (c *Client) CreateTransaction(ctx context.Context, draft core.TransactionDraft) (string, error) {
	vars := map[string]any{
		"accountId":  draft.AccountID,
		"date":       draft.Date,
		"note":       draft.Note,
		"isInternal": draft.IsInternal,
	}
	// Optional fields are sent as null when unset; the schema treats both the
	// same way and null keeps the payload shape uniform across rows.
	if draft.Amount != nil {
		vars["amount"] = float64(*draft.Amount) / 100.0
	} else {
		vars["amount"] = nil
	}
	if draft.RetailerID != "" {
		vars["retailerId"] = draft.RetailerID
	} else {
		vars["retailerId"] = nil
	}

	var out struct {
		CreateTransaction struct {
			ID string `json:"id"`
		} `json:"createTransaction"`
	}
	if err := c.gql.Do(ctx, createTransactionMutation, vars, &out); err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}
	return out.CreateTransaction.ID, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]backend.Bank, error) {
	var out struct {
		BankRelay struct {
			Edges []struct {
				Node struct {
					ID         string `json:"id"`
					Name       string `json:"name"`
					Balance    int64  `json:"balance"`
					AccountSet struct {
						Edges []struct {
							Node struct {
								ID      string `json:"id"`
								Name    string `json:"name"`
								Balance int64  `json:"balance"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"accountSet"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"bankRelay"`
	}
	if err := c.gql.Do(ctx, bankListQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}

	banks := make([]backend.Bank, 0, len(out.BankRelay.Edges))
	for _, edge := range out.BankRelay.Edges {
		bank := backend.Bank{
			ID:      edge.Node.ID,
			Name:    edge.Node.Name,
			Balance: edge.Node.Balance,
		}
		for _, accEdge := range edge.Node.AccountSet.Edges {
			bank.Accounts = append(bank.Accounts, backend.Account{
				ID:      accEdge.Node.ID,
				Name:    accEdge.Node.Name,
				Balance: accEdge.Node.Balance,
			})
		}
		banks = append(banks, bank)
	}
	return banks, nil
}

// ListCategories asks the schema for the TransactionCategory enumeration.
// Unknown values are skipped so a schema ahead of this binary degrades to the
// values both sides know.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out struct {
		Type struct {
			EnumValues []struct {
				Name string `json:"name"`
			} `json:"enumValues"`
		} `json:"__type"`
	}
	if err := c.gql.Do(ctx, categoryEnumQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	cats := make([]core.Category, 0, len(out.Type.EnumValues))
	for _, v := range out.Type.EnumValues {
		c := core.Category(v.Name)
		if c.Valid() {
			cats = append(cats, c)
		}
	}
	if len(cats) == 0 {
		return core.Categories(), nil
	}
	return cats, nil
}
