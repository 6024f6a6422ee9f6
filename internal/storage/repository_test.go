package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"salarydash/internal/core"
	"salarydash/internal/ports"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	if err := EnsureSchema(ctx, SQLite, path); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	repo, err := Open(ctx, SQLite, path, Options{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustUser(t *testing.T, repo *SQLRepository, name string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), core.User{Name: name})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "idem.db")
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, SQLite, path); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}
	repo, err := Open(ctx, SQLite, path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	defaults, _ := DefaultCategories()
	if len(cats) != len(defaults) {
		t.Fatalf("expected %d categories, got %d", len(defaults), len(cats))
	}
	if cats[0].Name != "Food & Groceries" {
		t.Fatalf("unexpected first category %q", cats[0].Name)
	}
}

func TestUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{Name: " Asha ", Email: "Asha@Example.com", Phone: "+39 555 0100", Occupation: "Engineer"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 || u.Name != "Asha" || u.Email != "asha@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}

	got, err := repo.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Occupation != "Engineer" || got.Phone != "+39 555 0100" || got.CreatedAt.IsZero() {
		t.Fatalf("unexpected stored user %+v", got)
	}

	if _, err := repo.CreateUser(ctx, core.User{Name: "Other", Email: "asha@example.com"}); !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// users without email do not collide
	mustUser(t, repo, "NoMail1")
	mustUser(t, repo, "NoMail2")

	if _, err := repo.GetUser(ctx, 9999); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	c, err := repo.CreateCategory(ctx, "Pets")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	got, err := repo.GetCategory(ctx, c.ID)
	if err != nil || got.Name != "Pets" {
		t.Fatalf("GetCategory: %+v %v", got, err)
	}
	if _, err := repo.CreateCategory(ctx, "Rent"); !errors.Is(err, ports.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestEarnings_MonthlyUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "Asha")

	first, created, err := repo.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 100000}, Date: core.NewDate(2025, 1, 15)})
	if err != nil || !created {
		t.Fatalf("first upsert: created=%v err=%v", created, err)
	}
	second, created, err := repo.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 120000}, Date: core.NewDate(2025, 1, 28)})
	if err != nil || created {
		t.Fatalf("second upsert: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the January row to be replaced, got ids %d and %d", first.ID, second.ID)
	}
	if _, _, err := repo.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 90000}, Date: core.NewDate(2025, 3, 1)}); err != nil {
		t.Fatalf("march upsert: %v", err)
	}
	if _, _, err := repo.UpsertMonthlyEarning(ctx, core.EarningRecord{UserID: u.ID, Amount: core.Money{Cents: 80000}, Date: core.NewDate(2024, 12, 31)}); err != nil {
		t.Fatalf("december upsert: %v", err)
	}

	list, err := repo.ListEarnings(ctx, u.ID, 2025)
	if err != nil {
		t.Fatalf("ListEarnings: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 earnings in 2025, got %d", len(list))
	}
	if list[0].Date.String() != "2025-03-01" || list[1].Amount.Cents != 120000 || list[1].Date.String() != "2025-01-28" {
		t.Fatalf("unexpected earnings %+v", list)
	}

	latest, err := repo.LatestEarning(ctx, u.ID)
	if err != nil || latest.Date.String() != "2025-03-01" {
		t.Fatalf("LatestEarning: %+v %v", latest, err)
	}

	got, err := repo.GetEarning(ctx, first.ID)
	if err != nil || got.Amount.Cents != 120000 {
		t.Fatalf("GetEarning: %+v %v", got, err)
	}

	n, err := repo.DeleteEarnings(ctx, u.ID)
	if err != nil || n != 3 {
		t.Fatalf("DeleteEarnings: n=%d err=%v", n, err)
	}
	if _, err := repo.LatestEarning(ctx, u.ID); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	asha := mustUser(t, repo, "Asha")
	ravi := mustUser(t, repo, "Ravi")

	stored, err := repo.AddExpenses(ctx, []core.ExpenseRecord{
		{UserID: asha.ID, CategoryID: 1, Amount: core.Money{Cents: 30000}, Date: core.NewDate(2025, 1, 10)},
		{UserID: asha.ID, CategoryID: 2, Amount: core.Money{Cents: 70000}, Date: core.NewDate(2025, 2, 5)},
		{UserID: ravi.ID, CategoryID: 2, Amount: core.Money{Cents: 55500}, Date: core.NewDate(2025, 2, 6)},
	})
	if err != nil {
		t.Fatalf("AddExpenses: %v", err)
	}
	if stored[0].CategoryName != "Food & Groceries" || stored[1].CategoryName != "Rent" || stored[0].ID == 0 {
		t.Fatalf("unexpected stored expenses %+v", stored)
	}

	feb, err := repo.ListExpenses(ctx, asha.ID, 2025, 2)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(feb) != 1 || feb[0].Amount.Cents != 70000 {
		t.Fatalf("expected only Asha's February expense, got %+v", feb)
	}

	year, err := repo.ListExpenses(ctx, asha.ID, 2025, 0)
	if err != nil || len(year) != 2 {
		t.Fatalf("expected 2 expenses for the year, got %d (err=%v)", len(year), err)
	}

	got, err := repo.GetExpense(ctx, stored[2].ID)
	if err != nil || got.UserID != ravi.ID || got.CategoryName != "Rent" {
		t.Fatalf("GetExpense: %+v %v", got, err)
	}
}

func TestExpenses_AllOrNothing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "Asha")

	_, err := repo.AddExpenses(ctx, []core.ExpenseRecord{
		{UserID: u.ID, CategoryID: 1, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 5, 1)},
		{UserID: u.ID, CategoryID: 4242, Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 5, 2)},
	})
	if !errors.Is(err, ports.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	list, err := repo.ListExpenses(ctx, u.ID, 2025, 5)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected rollback, found %d expenses", len(list))
	}

	_, err = repo.AddExpenses(ctx, []core.ExpenseRecord{
		{UserID: u.ID, CategoryID: 1, Amount: core.Money{Cents: -1}, Date: core.NewDate(2025, 5, 1)},
	})
	if !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestCorruptStoredDate_IsInvalidRecord(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustUser(t, repo, "Asha")

	if _, err := repo.DB().ExecContext(ctx,
		`INSERT INTO earning (user_id, amount_cents, earning_date) VALUES (?, ?, ?)`,
		u.ID, 100000, "2025-01-35"); err != nil {
		t.Fatalf("insert earning: %v", err)
	}
	if _, err := repo.DB().ExecContext(ctx,
		`INSERT INTO expense (user_id, cate_id, amount_cents, expense_date) VALUES (?, ?, ?, ?)`,
		u.ID, 1, 500, "2025-02-30"); err != nil {
		t.Fatalf("insert expense: %v", err)
	}

	tests := []struct {
		name  string
		call  func() error
		kind  core.RecordKind
		field string
	}{
		{"list earnings", func() error { _, err := repo.ListEarnings(ctx, u.ID, 2025); return err }, core.EarningKind, "earning_date"},
		{"latest earning", func() error { _, err := repo.LatestEarning(ctx, u.ID); return err }, core.EarningKind, "earning_date"},
		{"list expenses", func() error { _, err := repo.ListExpenses(ctx, u.ID, 2025, 2); return err }, core.ExpenseKind, "expense_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, core.ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			var rec *core.InvalidRecordError
			if !errors.As(err, &rec) {
				t.Fatalf("expected *InvalidRecordError, got %T", err)
			}
			if rec.Kind != tt.kind || rec.Field != tt.field || rec.ID == 0 {
				t.Fatalf("unexpected record error %+v", rec)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y = ?`
	if got := SQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	if got := Postgres.rebind(q); got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Fatalf("unexpected postgres query: %s", got)
	}
}

func TestParseDialect(t *testing.T) {
	if d, err := ParseDialect(" Postgres "); err != nil || d != Postgres {
		t.Fatalf("ParseDialect: %v %v", d, err)
	}
	if _, err := ParseDialect("memory"); err == nil {
		t.Fatal("expected error for memory")
	}
}
