package core

import (
	"errors"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"", CategoryEtc, false},
		{"  ", CategoryEtc, false},
		{"GROCERY", CategoryGrocery, false},
		{"DAILY_NECESSITY", CategoryDailyNecessity, false},
		{"grocery", "", true},
		{"UNKNOWN", "", true},
	}
	for _, tc := range cases {
		got, err := ParseCategory(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidCategory) {
				t.Errorf("ParseCategory(%q) error = %v, want ErrInvalidCategory", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseCategory(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestCategoriesFixedEnumeration(t *testing.T) {
	cats := Categories()
	if len(cats) != 13 {
		t.Fatalf("expected 13 categories, got %d", len(cats))
	}
	if cats[0] != CategoryEtc {
		t.Errorf("first category should be ETC, got %v", cats[0])
	}
	for _, c := range cats {
		if !c.Valid() {
			t.Errorf("category %v should be valid", c)
		}
	}
}

func TestRetailerValidate(t *testing.T) {
	cases := []struct {
		name     string
		retailer Retailer
		wantErr  error
	}{
		{"valid", Retailer{ID: "1", Name: "Mart", Category: CategoryGrocery}, nil},
		{"empty name", Retailer{ID: "1", Name: "", Category: CategoryEtc}, ErrEmptyName},
		{"whitespace name", Retailer{ID: "1", Name: "   ", Category: CategoryEtc}, ErrEmptyName},
		{"bad category", Retailer{ID: "1", Name: "Mart", Category: "NOPE"}, ErrInvalidCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.retailer.Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBlankDraft(t *testing.T) {
	d := BlankDraft(3, "acct-1")

	if d.ID != 3 {
		t.Errorf("ID = %d, want 3", d.ID)
	}
	if d.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want acct-1", d.AccountID)
	}
	if d.Date != Today() {
		t.Errorf("Date = %q, want today", d.Date)
	}
	if d.Amount != nil {
		t.Error("Amount should be absent on a blank draft")
	}
	if d.RetailerID != "" {
		t.Error("RetailerID should be absent on a blank draft")
	}
	if d.Note != "" {
		t.Error("Note should be empty on a blank draft")
	}
	if d.IsInternal {
		t.Error("IsInternal should default to false")
	}
}

func TestValidISODate(t *testing.T) {
	if !ValidISODate("2024-01-31") {
		t.Error("2024-01-31 should be valid")
	}
	if ValidISODate("") {
		t.Error("empty string should not be a valid date")
	}
	if ValidISODate("2024-13-01") {
		t.Error("month 13 should not be valid")
	}
	if ValidISODate("01/02/2024") {
		t.Error("non-ISO format should not be valid")
	}
}
