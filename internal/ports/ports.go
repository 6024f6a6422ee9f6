// Package ports declares the storage contracts the services depend on.
// The SQL repository and the in-memory store both satisfy Store.
package ports

import (
	"context"
	"errors"

	"salarydash/internal/core"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrUnknownCategory = errors.New("unknown category")
)

type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		CreateCategory(ctx context.Context, name string) (core.Category, error)
	}

	EarningStore interface {
		// UpsertMonthlyEarning replaces the user's earning for the month of
		// e.Date when one exists, otherwise inserts it. created reports which.
		UpsertMonthlyEarning(ctx context.Context, e core.EarningRecord) (stored core.EarningRecord, created bool, err error)
		GetEarning(ctx context.Context, id int64) (core.EarningRecord, error)
		// ListEarnings returns the user's earnings of year, newest first.
		ListEarnings(ctx context.Context, userID int64, year int) ([]core.EarningRecord, error)
		LatestEarning(ctx context.Context, userID int64) (core.EarningRecord, error)
		DeleteEarnings(ctx context.Context, userID int64) (int64, error)
	}

	ExpenseStore interface {
		// AddExpenses stores all items or none. Category names are resolved
		// from CategoryID and returned in the stored records.
		AddExpenses(ctx context.Context, items []core.ExpenseRecord) ([]core.ExpenseRecord, error)
		GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)
		// ListExpenses returns the user's expenses of year, or of a single
		// month when month is 1-12, oldest first.
		ListExpenses(ctx context.Context, userID int64, year, month int) ([]core.ExpenseRecord, error)
	}

	Store interface {
		UserStore
		CategoryStore
		EarningStore
		ExpenseStore
		Ping(ctx context.Context) error
		Close() error
	}
)
