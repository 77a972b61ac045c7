package core

import (
	"errors"
	"strings"
	"time"
)

// Category classifies a retailer. The set is fixed by the backend schema.
type Category string

const (
	CategoryEtc            Category = "ETC"
	CategoryGrocery        Category = "GROCERY"
	CategoryEatOut         Category = "EAT_OUT"
	CategoryClothing       Category = "CLOTHING"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryHousing        Category = "HOUSING"
	CategoryMedical        Category = "MEDICAL"
	CategoryLeisure        Category = "LEISURE"
	CategoryMembership     Category = "MEMBERSHIP"
	CategoryService        Category = "SERVICE"
	CategoryDailyNecessity Category = "DAILY_NECESSITY"
	CategoryParenting      Category = "PARENTING"
	CategoryPresent        Category = "PRESENT"
)

var (
	ErrEmptyName       = errors.New("empty retailer name")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// categories holds the fixed enumeration in display order.
var categories = []Category{
	CategoryEtc,
	CategoryGrocery,
	CategoryEatOut,
	CategoryClothing,
	CategoryTransportation,
	CategoryHousing,
	CategoryMedical,
	CategoryLeisure,
	CategoryMembership,
	CategoryService,
	CategoryDailyNecessity,
	CategoryParenting,
	CategoryPresent,
}

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Valid reports whether c is one of the fixed enumeration values.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps a raw string onto the category enumeration.
// An empty string defaults to ETC; an unknown value is an error.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryEtc, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

// Retailer is a counterparty entity owned and persisted by the backend.
type Retailer struct {
	ID       string
	Name     string
	Category Category
}

func (r Retailer) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if !r.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// TransactionDraft is one in-progress row of the batch transaction editor.
// Amount is in cents and nil while unset; RetailerID is empty while unset.
type TransactionDraft struct {
	ID         int
	Date       string // ISO YYYY-MM-DD, empty while unset
	Amount     *int64
	RetailerID string
	Note       string
	IsInternal bool
	AccountID  string
}

// BlankDraft returns a fresh draft row for the given account:
// today's date, no amount, no retailer, empty note, external.
func BlankDraft(id int, accountID string) TransactionDraft {
	return TransactionDraft{
		ID:        id,
		Date:      Today(),
		AccountID: accountID,
	}
}

const isoDateLayout = "2006-01-02"

// Today returns the current calendar date in ISO YYYY-MM-DD form.
func Today() string {
	return time.Now().Format(isoDateLayout)
}

// ValidISODate reports whether s parses as a YYYY-MM-DD calendar date.
// The empty string is not a valid date; drafts may still carry it while unset.
func ValidISODate(s string) bool {
	_, err := time.Parse(isoDateLayout, s)
	return err == nil
}
