package core

import (
	"errors"
	"fmt"
	"sort"
)

// RecordKind names the series a record belongs to.
type RecordKind string

const (
	EarningKind RecordKind = "earning"
	ExpenseKind RecordKind = "expense"
)

var (
	// ErrInvalidRecord is matched by every *InvalidRecordError.
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidOptions = errors.New("invalid aggregate options")
)

// InvalidRecordError reports the record that stopped an aggregation, or a
// stored row that could not be turned into a record. ID is set for the
// latter; Index is the position in the aggregated input.
type InvalidRecordError struct {
	Kind  RecordKind
	Index int
	ID    int64
	Field string
	Err   error
}

func (e *InvalidRecordError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("invalid %s record %d: %s: %v", e.Kind, e.ID, e.Field, e.Err)
	}
	return fmt.Sprintf("invalid %s record at index %d: %s: %v", e.Kind, e.Index, e.Field, e.Err)
}

func (e *InvalidRecordError) Unwrap() error { return e.Err }

func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// MonthKey identifies a (year, month) bucket.
type MonthKey struct {
	Year  int
	Month int // 1-12
}

func KeyOf(d Date) MonthKey {
	return MonthKey{Year: d.Year(), Month: d.Month()}
}

// Less orders keys chronologically.
func (k MonthKey) Less(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// String renders the key as YYYY-MM, the label used on chart axes.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, k.Month)
}

// MonthlyBucket holds the totals of one month and the running totals up to
// and including it.
type MonthlyBucket struct {
	Year               int   `json:"year"`
	Month              int   `json:"month"`
	TotalEarning       Money `json:"total_earning"`
	TotalExpenses      Money `json:"total_expenses"`
	CumulativeEarning  Money `json:"cumulative_earning"`
	CumulativeExpenses Money `json:"cumulative_expenses"`
}

func (b MonthlyBucket) Key() MonthKey {
	return MonthKey{Year: b.Year, Month: b.Month}
}

// AggregateOptions controls zero-filling. TargetYear 0 means no target year.
type AggregateOptions struct {
	TargetYear int
	ZeroFill   bool
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"category"`
	Amount Money  `json:"amount"`
}

// Aggregate groups both series by the month of each record's own date,
// outer-joins them, optionally zero-fills the twelve months of
// opts.TargetYear, and fills the cumulative fields in ascending month order.
//
// Records from years other than TargetYear simply produce extra buckets.
// The first invalid record aborts the call with an *InvalidRecordError and
// no buckets are returned.
func Aggregate(earnings []EarningRecord, expenses []ExpenseRecord, opts AggregateOptions) ([]MonthlyBucket, error) {
	if opts.ZeroFill && opts.TargetYear == 0 {
		return nil, fmt.Errorf("%w: zero fill requires a target year", ErrInvalidOptions)
	}
	if opts.TargetYear != 0 && (opts.TargetYear < 1000 || opts.TargetYear > 9999) {
		return nil, fmt.Errorf("%w: target year %d", ErrInvalidOptions, opts.TargetYear)
	}

	buckets := make(map[MonthKey]*MonthlyBucket)
	bucket := func(k MonthKey) *MonthlyBucket {
		b, ok := buckets[k]
		if !ok {
			b = &MonthlyBucket{Year: k.Year, Month: k.Month}
			buckets[k] = b
		}
		return b
	}

	for i, e := range earnings {
		if field, err := e.check(); err != nil {
			return nil, &InvalidRecordError{Kind: EarningKind, Index: i, Field: field, Err: err}
		}
		b := bucket(KeyOf(e.Date))
		sum, ok := b.TotalEarning.Add(e.Amount)
		if !ok {
			return nil, &InvalidRecordError{Kind: EarningKind, Index: i, Field: "amount", Err: ErrInvalidAmount}
		}
		b.TotalEarning = sum
	}
	for i, e := range expenses {
		if field, err := e.check(); err != nil {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: field, Err: err}
		}
		b := bucket(KeyOf(e.Date))
		sum, ok := b.TotalExpenses.Add(e.Amount)
		if !ok {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: "amount", Err: ErrInvalidAmount}
		}
		b.TotalExpenses = sum
	}

	if opts.ZeroFill {
		for m := 1; m <= 12; m++ {
			bucket(MonthKey{Year: opts.TargetYear, Month: m})
		}
	}

	out := make([]MonthlyBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })

	var cumEarning, cumExpenses Money
	for i := range out {
		var ok bool
		if cumEarning, ok = cumEarning.Add(out[i].TotalEarning); !ok {
			return nil, fmt.Errorf("%w: cumulative earning overflow at %s", ErrInvalidAmount, out[i].Key())
		}
		if cumExpenses, ok = cumExpenses.Add(out[i].TotalExpenses); !ok {
			return nil, fmt.Errorf("%w: cumulative expenses overflow at %s", ErrInvalidAmount, out[i].Key())
		}
		out[i].CumulativeEarning = cumEarning
		out[i].CumulativeExpenses = cumExpenses
	}
	return out, nil
}

// Breakdown sums the expenses of one month by category name. Expenses of
// other months are ignored but still validated.
func Breakdown(expenses []ExpenseRecord, year, month int) (map[string]Money, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}
	want := MonthKey{Year: year, Month: month}
	out := make(map[string]Money)
	for i, e := range expenses {
		if field, err := e.check(); err != nil {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: field, Err: err}
		}
		if KeyOf(e.Date) != want {
			continue
		}
		sum, ok := out[e.CategoryName].Add(e.Amount)
		if !ok {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: "amount", Err: ErrInvalidAmount}
		}
		out[e.CategoryName] = sum
	}
	return out, nil
}

// TotalsByCategory sums every expense by category name regardless of month.
func TotalsByCategory(expenses []ExpenseRecord) (map[string]Money, error) {
	out := make(map[string]Money)
	for i, e := range expenses {
		if field, err := e.check(); err != nil {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: field, Err: err}
		}
		sum, ok := out[e.CategoryName].Add(e.Amount)
		if !ok {
			return nil, &InvalidRecordError{Kind: ExpenseKind, Index: i, Field: "amount", Err: ErrInvalidAmount}
		}
		out[e.CategoryName] = sum
	}
	return out, nil
}

// SortedCategories orders a breakdown by amount descending, then by name.
func SortedCategories(totals map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
