package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"salarydash/internal/core"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEarning builds a typed record from a row selected with earningColumns.
// A stored date that does not parse is reported as an invalid record rather
// than as a scan failure.
func scanEarning(row rowScanner) (core.EarningRecord, error) {
	var (
		e     core.EarningRecord
		cents int64
		date  any
	)
	if err := row.Scan(&e.ID, &e.UserID, &cents, &date); err != nil {
		return core.EarningRecord{}, wrapScan("earning", err)
	}
	if err := e.Date.Scan(date); err != nil {
		return core.EarningRecord{}, &core.InvalidRecordError{Kind: core.EarningKind, ID: e.ID, Field: "earning_date", Err: err}
	}
	if cents < 0 {
		return core.EarningRecord{}, &core.InvalidRecordError{Kind: core.EarningKind, ID: e.ID, Field: "amount", Err: core.ErrNegativeAmount}
	}
	e.Amount = core.Money{Cents: cents}
	return e, nil
}

// scanExpense builds a typed record from a row selected with expenseSelect.
func scanExpense(row rowScanner) (core.ExpenseRecord, error) {
	var (
		e     core.ExpenseRecord
		cents int64
		date  any
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.CategoryName, &cents, &date); err != nil {
		return core.ExpenseRecord{}, wrapScan("expense", err)
	}
	if err := e.Date.Scan(date); err != nil {
		return core.ExpenseRecord{}, &core.InvalidRecordError{Kind: core.ExpenseKind, ID: e.ID, Field: "expense_date", Err: err}
	}
	if cents < 0 {
		return core.ExpenseRecord{}, &core.InvalidRecordError{Kind: core.ExpenseKind, ID: e.ID, Field: "amount", Err: core.ErrNegativeAmount}
	}
	e.Amount = core.Money{Cents: cents}
	return e, nil
}

func wrapScan(kind string, err error) error {
	return fmt.Errorf("scan %s: %w", kind, err)
}

// dbTime scans timestamps stored either natively or as sqlite text.
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("unrecognised timestamp %q", v)
	case []byte:
		return t.Scan(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func monthRange(year, month int) (core.Date, core.Date) {
	from := core.NewDate(year, month, 1)
	return from, core.Date{Time: from.AddDate(0, 1, 0)}
}

func yearRange(year int) (core.Date, core.Date) {
	return core.NewDate(year, 1, 1), core.NewDate(year+1, 1, 1)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
