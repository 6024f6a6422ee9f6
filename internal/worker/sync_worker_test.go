package worker

import (
	"context"
	"errors"
	"testing"

	"salarydash/internal/amqp"
	"salarydash/internal/core"
	"salarydash/internal/sheets"
	"salarydash/internal/storage/memory"
)

type fakeLedger struct {
	rows map[string]sheets.LedgerRow
	err  error
}

func (f *fakeLedger) UpsertRow(_ context.Context, row sheets.LedgerRow) error {
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = make(map[string]sheets.LedgerRow)
	}
	f.rows[row.Key()] = row
	return nil
}

type fakeSource struct {
	events []amqp.RecordEvent
	errs   []error
}

func (f *fakeSource) ConsumeRecordEvents(ctx context.Context, _ int, handler func(context.Context, amqp.RecordEvent) error) error {
	for _, e := range f.events {
		f.errs = append(f.errs, handler(ctx, e))
	}
	return context.Canceled
}

func TestSyncWorker(t *testing.T) {
	ctx := context.Background()
	store := memory.New([]string{"Food", "Rent"})
	u, _ := store.CreateUser(ctx, core.User{Name: "Asha"})
	earning, _, err := store.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("UpsertMonthlyEarning: %v", err)
	}
	expenses, err := store.AddExpenses(ctx, []core.ExpenseRecord{{UserID: u.ID, CategoryID: 2, Amount: core.Money{Cents: 900}, Date: core.NewDate(2025, 1, 3)}})
	if err != nil {
		t.Fatalf("AddExpenses: %v", err)
	}

	ledger := &fakeLedger{}
	w := NewSyncWorker(store, ledger)
	src := &fakeSource{events: []amqp.RecordEvent{
		amqp.NewRecordEvent(core.EarningKind, amqp.ActionCreated, earning.ID, u.ID),
		amqp.NewRecordEvent(core.ExpenseKind, amqp.ActionCreated, expenses[0].ID, u.ID),
		amqp.NewRecordEvent(core.ExpenseKind, amqp.ActionCreated, 9999, u.ID),
	}}

	if err := w.Run(ctx, src, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, err := range src.errs {
		if err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	if len(ledger.rows) != 2 {
		t.Fatalf("expected 2 ledger rows, got %d", len(ledger.rows))
	}
	row := ledger.rows[sheets.ExpenseRow(expenses[0]).Key()]
	if row.Category != "Rent" || row.Amount.Cents != 900 || row.UserID != u.ID {
		t.Fatalf("unexpected expense row %+v", row)
	}
}

func TestSyncWorker_Errors(t *testing.T) {
	ctx := context.Background()
	store := memory.New([]string{"Food"})
	u, _ := store.CreateUser(ctx, core.User{Name: "Asha"})
	earning, _, _ := store.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 1}, Date: core.NewDate(2025, 1, 1)})
	ev := amqp.NewRecordEvent(core.EarningKind, amqp.ActionUpdated, earning.ID, u.ID)

	t.Run("ledger failure is returned for requeue", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		w := NewSyncWorker(store, &fakeLedger{err: boom})
		if err := w.HandleRecordEvent(ctx, ev); !errors.Is(err, boom) {
			t.Fatalf("expected ledger error, got %v", err)
		}
	})

	t.Run("store failure is returned", func(t *testing.T) {
		boom := errors.New("db down")
		store.FailWith(boom)
		defer store.FailWith(nil)
		w := NewSyncWorker(store, &fakeLedger{})
		if err := w.HandleRecordEvent(ctx, ev); !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("no ledger", func(t *testing.T) {
		if err := NewSyncWorker(store, nil).HandleRecordEvent(ctx, ev); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})
}
