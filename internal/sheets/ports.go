// Package sheets defines the outbound port for exporting journaled
// submissions to a spreadsheet.
package sheets

import (
	"context"

	"moneybook/internal/history"
)

// SubmissionAppender writes the created rows of a journaled submission to the
// export sheet and returns a reference to the appended range.
type SubmissionAppender interface {
	AppendSubmission(ctx context.Context, sub history.Submission) (rowRef string, err error)
}
