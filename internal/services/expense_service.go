package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"salarydash/internal/amqp"
	"salarydash/internal/core"
	"salarydash/internal/metrics"
	"salarydash/internal/ports"
)

// MaxExpensesPerRequest bounds a single bulk insert or CSV import.
const MaxExpensesPerRequest = 5000

var (
	ErrNoExpenses       = errors.New("no expenses to add")
	ErrTooManyExpenses  = fmt.Errorf("more than %d expenses in one request", MaxExpensesPerRequest)
	ErrMismatchedUserID = errors.New("expense belongs to another user")
)

type ExpenseStore interface {
	ports.UserStore
	ports.ExpenseStore
}

type categoryLister interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// ExpenseService stores expenses in batches. A batch is written in one
// transaction and every stored row is announced to the ledger worker.
type ExpenseService struct {
	store      ExpenseStore
	categories categoryLister
	events     EventPublisher
}

// NewExpenseService creates the service. events may be nil.
func NewExpenseService(store ExpenseStore, categories categoryLister, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, categories: categories, events: events}
}

// AddBatch stores items for userID, all or none. Items without a user id
// are assigned to userID.
func (s *ExpenseService) AddBatch(ctx context.Context, userID int64, items []core.ExpenseRecord) ([]core.ExpenseRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user %d: %w", userID, core.ErrInvalidUser)
	}
	if len(items) == 0 {
		return nil, ErrNoExpenses
	}
	if len(items) > MaxExpensesPerRequest {
		return nil, ErrTooManyExpenses
	}

	batch := make([]core.ExpenseRecord, len(items))
	for i, it := range items {
		if it.UserID == 0 {
			it.UserID = userID
		}
		if it.UserID != userID {
			return nil, fmt.Errorf("expense %d: %w", i, ErrMismatchedUserID)
		}
		if err := it.ValidateInput(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		batch[i] = it
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}

	stored, err := s.store.AddExpenses(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("add expenses: %w", err)
	}
	metrics.AddRecordsStored(string(core.ExpenseKind), len(stored))

	for _, e := range stored {
		publish(ctx, s.events, core.ExpenseKind, amqp.ActionCreated, e.ID, e.UserID)
	}
	return stored, nil
}

// ImportCSV parses r and stores the rows for userID with AddBatch.
func (s *ExpenseService) ImportCSV(ctx context.Context, userID int64, r io.Reader) ([]core.ExpenseRecord, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("user %d: %w", userID, core.ErrInvalidUser)
	}
	var byName map[string]int64
	resolve := func(name string) (int64, error) {
		if byName == nil {
			list, err := s.categories.ListCategories(ctx)
			if err != nil {
				return 0, err
			}
			byName = categoryIndex(list)
		}
		id, ok := byName[normalizeCategory(name)]
		if !ok {
			return 0, fmt.Errorf("category %q: %w", name, ports.ErrUnknownCategory)
		}
		return id, nil
	}

	items, err := parseExpenseCSV(r, userID, resolve)
	if err != nil {
		return nil, err
	}
	return s.AddBatch(ctx, userID, items)
}

// ByMonth returns the user's expenses of one month, oldest first.
func (s *ExpenseService) ByMonth(ctx context.Context, userID int64, year, month int) ([]core.ExpenseRecord, error) {
	if err := validatePeriod(userID, year); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month %d: %w", month, core.ErrInvalidMonth)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	list, err := s.store.ListExpenses(ctx, userID, year, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}
