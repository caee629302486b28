// Package sheets exports expenses to spreadsheet ledgers.
package sheets

import (
	"context"
	"time"
)

// ExpenseRow is one ledger line.
type ExpenseRow struct {
	ID          string
	UserID      string
	Date        time.Time
	Description string
	Amount      float64
	Category    string
	Items       int
	Source      string
}

// Values returns the row cells in column order A..H.
func (r ExpenseRow) Values() []any {
	return []any{
		r.Date.UTC().Format("2006-01-02"),
		r.Description,
		r.Amount,
		r.Category,
		r.Items,
		r.Source,
		r.UserID,
		r.ID,
	}
}

// Header names the columns written by Values.
var Header = []any{"Date", "Description", "Amount", "Category", "Items", "Source", "User", "ID"}

// ExpenseExporter appends rows to a ledger and returns a reference to the
// written range.
type ExpenseExporter interface {
	Export(ctx context.Context, row ExpenseRow) (ref string, err error)
}
