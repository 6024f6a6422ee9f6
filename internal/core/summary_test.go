package core

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func earning(cents int64, y, m, d int) EarningRecord {
	return EarningRecord{UserID: 1, Amount: Money{Cents: cents}, Date: NewDate(y, m, d)}
}

func expense(cents int64, category string, y, m, d int) ExpenseRecord {
	return ExpenseRecord{UserID: 1, CategoryID: 1, CategoryName: category, Amount: Money{Cents: cents}, Date: NewDate(y, m, d)}
}

func sampleEarnings() []EarningRecord {
	return []EarningRecord{
		earning(100000, 2025, 1, 15),
		earning(50000, 2025, 1, 20),
		earning(200000, 2025, 3, 1),
	}
}

func sampleExpenses() []ExpenseRecord {
	return []ExpenseRecord{
		expense(30000, "Food", 2025, 1, 10),
		expense(70000, "Rent", 2025, 2, 5),
	}
}

func TestAggregate_WorkedExample(t *testing.T) {
	got, err := Aggregate(sampleEarnings(), sampleExpenses(), AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	want := []MonthlyBucket{
		{Year: 2025, Month: 1, TotalEarning: Money{150000}, TotalExpenses: Money{30000}, CumulativeEarning: Money{150000}, CumulativeExpenses: Money{30000}},
		{Year: 2025, Month: 2, TotalEarning: Money{0}, TotalExpenses: Money{70000}, CumulativeEarning: Money{150000}, CumulativeExpenses: Money{100000}},
		{Year: 2025, Month: 3, TotalEarning: Money{200000}, TotalExpenses: Money{0}, CumulativeEarning: Money{350000}, CumulativeExpenses: Money{100000}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected buckets\n got: %+v\nwant: %+v", got, want)
	}
}

func TestAggregate_Empty(t *testing.T) {
	got, err := Aggregate(nil, nil, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", got)
	}

	got, err = Aggregate(nil, nil, AggregateOptions{TargetYear: 2024, ZeroFill: true})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(got))
	}
	for i, b := range got {
		if b.Year != 2024 || b.Month != i+1 || b.TotalEarning.Cents != 0 || b.CumulativeExpenses.Cents != 0 {
			t.Fatalf("bucket %d not a zero bucket: %+v", i, b)
		}
	}
}

func TestAggregate_ZeroFillLaw(t *testing.T) {
	got, err := Aggregate(sampleEarnings(), sampleExpenses(), AggregateOptions{TargetYear: 2025, ZeroFill: true})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(got))
	}
	for i, b := range got {
		if b.Year != 2025 || b.Month != i+1 {
			t.Fatalf("bucket %d has key %s", i, b.Key())
		}
		if b.Month > 3 && (b.TotalEarning.Cents != 0 || b.TotalExpenses.Cents != 0) {
			t.Fatalf("month %d expected zero totals: %+v", b.Month, b)
		}
	}
	last := got[11]
	if last.CumulativeEarning.Cents != 350000 || last.CumulativeExpenses.Cents != 100000 {
		t.Fatalf("unexpected year-end cumulative totals %+v", last)
	}
}

func TestAggregate_MixedYearsAddBuckets(t *testing.T) {
	earnings := append(sampleEarnings(), earning(999, 2024, 12, 31))
	got, err := Aggregate(earnings, nil, AggregateOptions{TargetYear: 2025, ZeroFill: true})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(got) != 13 {
		t.Fatalf("expected 13 buckets, got %d", len(got))
	}
	if got[0].Key() != (MonthKey{Year: 2024, Month: 12}) {
		t.Fatalf("expected the 2024 bucket first, got %s", got[0].Key())
	}
	if got[1].CumulativeEarning.Cents != 999+150000 {
		t.Fatalf("prefix sum did not carry across years: %+v", got[1])
	}
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"Food", "Rent", "Fuel", "Other"}

	var earnings []EarningRecord
	var expenses []ExpenseRecord
	for i := 0; i < 200; i++ {
		y := 2023 + rng.Intn(3)
		m := 1 + rng.Intn(12)
		d := 1 + rng.Intn(28)
		if rng.Intn(2) == 0 {
			earnings = append(earnings, earning(int64(rng.Intn(500000)), y, m, d))
		} else {
			expenses = append(expenses, expense(int64(rng.Intn(100000)), categories[rng.Intn(len(categories))], y, m, d))
		}
	}

	first, err := Aggregate(earnings, expenses, AggregateOptions{})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	t.Run("key set is the union of inputs", func(t *testing.T) {
		keys := make(map[MonthKey]bool)
		for _, e := range earnings {
			keys[KeyOf(e.Date)] = true
		}
		for _, e := range expenses {
			keys[KeyOf(e.Date)] = true
		}
		if len(first) != len(keys) {
			t.Fatalf("expected %d buckets, got %d", len(keys), len(first))
		}
		seen := make(map[MonthKey]bool)
		for _, b := range first {
			if !keys[b.Key()] || seen[b.Key()] {
				t.Fatalf("unexpected or duplicate bucket %s", b.Key())
			}
			seen[b.Key()] = true
		}
	})

	t.Run("ascending order and prefix sums", func(t *testing.T) {
		var cumE, cumX int64
		for i, b := range first {
			if i > 0 && !first[i-1].Key().Less(b.Key()) {
				t.Fatalf("buckets not ascending at %d", i)
			}
			cumE += b.TotalEarning.Cents
			cumX += b.TotalExpenses.Cents
			if b.CumulativeEarning.Cents != cumE || b.CumulativeExpenses.Cents != cumX {
				t.Fatalf("bucket %d cumulative mismatch: %+v", i, b)
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		again, err := Aggregate(earnings, expenses, AggregateOptions{})
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatal("second call returned a different result")
		}
	})

	t.Run("order independent", func(t *testing.T) {
		shuffledE := append([]EarningRecord(nil), earnings...)
		shuffledX := append([]ExpenseRecord(nil), expenses...)
		rng.Shuffle(len(shuffledE), func(i, j int) { shuffledE[i], shuffledE[j] = shuffledE[j], shuffledE[i] })
		rng.Shuffle(len(shuffledX), func(i, j int) { shuffledX[i], shuffledX[j] = shuffledX[j], shuffledX[i] })
		got, err := Aggregate(shuffledE, shuffledX, AggregateOptions{})
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		if !reflect.DeepEqual(first, got) {
			t.Fatal("shuffled input changed the result")
		}
	})
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	earnings := sampleEarnings()
	expenses := sampleExpenses()
	before := append([]EarningRecord(nil), earnings...)
	if _, err := Aggregate(earnings, expenses, AggregateOptions{TargetYear: 2025, ZeroFill: true}); err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if !reflect.DeepEqual(before, earnings) {
		t.Fatal("input slice was modified")
	}
}

func TestAggregate_InvalidRecords(t *testing.T) {
	tests := []struct {
		name     string
		earnings []EarningRecord
		expenses []ExpenseRecord
		kind     RecordKind
		index    int
		field    string
	}{
		{
			name:     "negative earning",
			earnings: []EarningRecord{earning(100, 2025, 1, 1), earning(-5, 2025, 1, 2)},
			kind:     EarningKind,
			index:    1,
			field:    "amount",
		},
		{
			name:     "missing expense date",
			expenses: []ExpenseRecord{{UserID: 1, CategoryName: "Food", Amount: Money{Cents: 10}}},
			kind:     ExpenseKind,
			index:    0,
			field:    "expense_date",
		},
		{
			name:     "empty category",
			expenses: []ExpenseRecord{expense(10, "", 2025, 1, 1)},
			kind:     ExpenseKind,
			index:    0,
			field:    "category_name",
		},
		{
			name:     "overflowing month total",
			earnings: []EarningRecord{earning(1<<62, 2025, 1, 1), earning(1<<62, 2025, 1, 2)},
			kind:     EarningKind,
			index:    1,
			field:    "amount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.earnings, tt.expenses, AggregateOptions{})
			if got != nil {
				t.Fatalf("expected no partial result, got %+v", got)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			var rec *InvalidRecordError
			if !errors.As(err, &rec) {
				t.Fatalf("expected *InvalidRecordError, got %T", err)
			}
			if rec.Kind != tt.kind || rec.Index != tt.index || rec.Field != tt.field {
				t.Fatalf("unexpected error detail %+v", rec)
			}
		})
	}
}

func TestAggregate_InvalidOptions(t *testing.T) {
	if _, err := Aggregate(nil, nil, AggregateOptions{ZeroFill: true}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
	if _, err := Aggregate(nil, nil, AggregateOptions{TargetYear: 25}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions, got %v", err)
	}
}

func TestBreakdown(t *testing.T) {
	expenses := []ExpenseRecord{
		expense(30000, "Food", 2025, 4, 1),
		expense(20000, "Food", 2025, 4, 12),
		expense(10000, "Rent", 2025, 4, 30),
		expense(99900, "Rent", 2025, 5, 1),
	}
	got, err := Breakdown(expenses, 2025, 4)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	want := map[string]Money{"Food": {Cents: 50000}, "Rent": {Cents: 10000}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	empty, err := Breakdown(expenses, 2025, 6)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty breakdown, got %v (err=%v)", empty, err)
	}

	if _, err := Breakdown(expenses, 2025, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}

	bad := append(expenses, expense(-1, "Food", 2024, 1, 1))
	if _, err := Breakdown(bad, 2025, 4); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestSortedCategories(t *testing.T) {
	got := SortedCategories(map[string]Money{
		"Rent": {Cents: 100},
		"Food": {Cents: 500},
		"Fuel": {Cents: 100},
	})
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	if !reflect.DeepEqual(names, []string{"Food", "Fuel", "Rent"}) {
		t.Fatalf("unexpected order %v", names)
	}
}
