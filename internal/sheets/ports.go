// Package sheets declares the ledger the sync worker mirrors records into.
package sheets

import (
	"context"
	"fmt"
	"time"

	"salarydash/internal/core"
)

// LedgerRow is one earning or expense as written to the ledger.
type LedgerRow struct {
	Kind     core.RecordKind
	RecordID int64
	UserID   int64
	Date     core.Date
	Category string
	Amount   core.Money
	SyncedAt time.Time
}

// Key identifies the row of a record, e.g. "expense:42".
func (r LedgerRow) Key() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.RecordID)
}

func EarningRow(e core.EarningRecord) LedgerRow {
	return LedgerRow{Kind: core.EarningKind, RecordID: e.ID, UserID: e.UserID, Date: e.Date, Amount: e.Amount}
}

func ExpenseRow(e core.ExpenseRecord) LedgerRow {
	return LedgerRow{Kind: core.ExpenseKind, RecordID: e.ID, UserID: e.UserID, Date: e.Date, Category: e.CategoryName, Amount: e.Amount}
}

// LedgerWriter writes a row, replacing the existing row of the same record.
type LedgerWriter interface {
	UpsertRow(ctx context.Context, row LedgerRow) error
}
