// Package google exports journaled submissions to a Google spreadsheet using
// a Service Account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"moneybook/internal/history"
	ports "moneybook/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Year-prefixed export sheet name, e.g. "2026 Transactions".
	exportSheet string
}

var _ ports.SubmissionAppender = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus Service Account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_EXPORT_SHEET_NAME (default "Transactions"); the current
// year is prefixed automatically unless the name already carries one.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	base := strings.TrimSpace(os.Getenv("GOOGLE_EXPORT_SHEET_NAME"))
	if base == "" {
		base = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		exportSheet:   yearPrefixedName(base, time.Now().Year()),
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendSubmission writes one sheet row per created transaction of the
// submission, below the current contents of the export sheet.
func (c *Client) AppendSubmission(ctx context.Context, sub history.Submission) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := submissionValues(sub)
	if len(values) == 0 {
		return "", nil
	}

	// Find the next empty row from the sheet's current dimensions.
	rng := fmt.Sprintf("%s!A:A", c.exportSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.exportSheet, err)
	}
	nextRow := len(resp.Values) + 1
	lastRow := nextRow + len(values) - 1

	dataRange := fmt.Sprintf("%s!A%d:G%d", c.exportSheet, nextRow, lastRow)
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return dataRange, nil
}

// submissionValues converts the created rows of a submission into sheet rows:
// date, amount, retailer, note, internal flag, transaction id, submission id.
// Failed rows are not exported.
func submissionValues(sub history.Submission) [][]any {
	var out [][]any
	for _, row := range sub.Rows {
		if row.Status != history.RowStatusCreated {
			continue
		}
		var amount any
		if row.AmountCents != nil {
			amount = float64(*row.AmountCents) / 100.0
		} else {
			amount = ""
		}
		internal := ""
		if row.IsInternal {
			internal = "internal"
		}
		out = append(out, []any{
			row.Date,
			amount,
			row.RetailerName,
			row.Note,
			internal,
			row.TransactionID,
			sub.ID,
		})
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a
// 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
