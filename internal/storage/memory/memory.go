// Package memory is an in-process ports.Store used by tests and by the
// memory data backend. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"salarydash/internal/core"
	"salarydash/internal/ports"
)

type Store struct {
	mu         sync.RWMutex
	nextID     int64
	users      map[int64]core.User
	categories []core.Category
	earnings   map[int64]core.EarningRecord
	expenses   map[int64]core.ExpenseRecord

	// failWith makes every call return the error; used to exercise error paths.
	failWith error
}

var _ ports.Store = (*Store)(nil)

// New returns an empty store seeded with the given category names.
func New(categories []string) *Store {
	s := &Store{
		users:    make(map[int64]core.User),
		earnings: make(map[int64]core.EarningRecord),
		expenses: make(map[int64]core.ExpenseRecord),
	}
	seen := map[string]struct{}{}
	for _, name := range categories {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(name)]; ok {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		s.categories = append(s.categories, core.Category{ID: int64(len(s.categories) + 1), Name: name})
	}
	return s
}

// FailWith makes subsequent calls fail with err until called with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failWith
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return core.User{}, s.failWith
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(u.Email)
	if u.Email != "" {
		for _, existing := range s.users {
			if existing.Email == u.Email {
				return core.User{}, fmt.Errorf("user %s: %w", u.Email, ports.ErrDuplicate)
			}
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.User{}, s.failWith
	}
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %d: %w", id, ports.ErrNotFound)
	}
	return u, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.Category{}, s.failWith
	}
	if c, ok := s.category(id); ok {
		return c, nil
	}
	return core.Category{}, fmt.Errorf("category %d: %w", id, ports.ErrNotFound)
}

func (s *Store) category(id int64) (core.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func (s *Store) CreateCategory(_ context.Context, name string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return core.Category{}, s.failWith
	}
	name = strings.TrimSpace(name)
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return core.Category{}, fmt.Errorf("category %q: %w", name, ports.ErrDuplicate)
		}
	}
	c := core.Category{ID: int64(len(s.categories) + 1), Name: name}
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) UpsertMonthlyEarning(_ context.Context, e core.EarningRecord) (core.EarningRecord, bool, error) {
	if err := e.Validate(); err != nil {
		return core.EarningRecord{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return core.EarningRecord{}, false, s.failWith
	}
	if _, ok := s.users[e.UserID]; !ok {
		return core.EarningRecord{}, false, fmt.Errorf("user %d: %w", e.UserID, ports.ErrNotFound)
	}

	key := core.KeyOf(e.Date)
	var existing int64
	for id, cur := range s.earnings {
		if cur.UserID == e.UserID && core.KeyOf(cur.Date) == key && (existing == 0 || id < existing) {
			existing = id
		}
	}
	if existing != 0 {
		e.ID = existing
		s.earnings[existing] = e
		return e, false, nil
	}
	e.ID = s.id()
	s.earnings[e.ID] = e
	return e, true, nil
}

func (s *Store) GetEarning(_ context.Context, id int64) (core.EarningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.EarningRecord{}, s.failWith
	}
	e, ok := s.earnings[id]
	if !ok {
		return core.EarningRecord{}, fmt.Errorf("earning %d: %w", id, ports.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListEarnings(_ context.Context, userID int64, year int) ([]core.EarningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := []core.EarningRecord{}
	for _, e := range s.earnings {
		if e.UserID == userID && e.Date.Year() == year {
			out = append(out, e)
		}
	}
	sortEarningsDesc(out)
	return out, nil
}

func (s *Store) LatestEarning(_ context.Context, userID int64) (core.EarningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.EarningRecord{}, s.failWith
	}
	var all []core.EarningRecord
	for _, e := range s.earnings {
		if e.UserID == userID {
			all = append(all, e)
		}
	}
	if len(all) == 0 {
		return core.EarningRecord{}, fmt.Errorf("latest earning of user %d: %w", userID, ports.ErrNotFound)
	}
	sortEarningsDesc(all)
	return all[0], nil
}

func (s *Store) DeleteEarnings(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return 0, s.failWith
	}
	var n int64
	for id, e := range s.earnings {
		if e.UserID == userID {
			delete(s.earnings, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) AddExpenses(_ context.Context, items []core.ExpenseRecord) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}

	out := make([]core.ExpenseRecord, 0, len(items))
	for i, it := range items {
		if err := it.ValidateInput(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		if _, ok := s.users[it.UserID]; !ok {
			return nil, fmt.Errorf("expense %d: user %d: %w", i, it.UserID, ports.ErrNotFound)
		}
		c, ok := s.category(it.CategoryID)
		if !ok {
			return nil, fmt.Errorf("expense %d: category %d: %w", i, it.CategoryID, ports.ErrUnknownCategory)
		}
		it.CategoryName = c.Name
		out = append(out, it)
	}
	// Only assign ids once every item passed, so a failure stores nothing.
	for i := range out {
		out[i].ID = s.id()
		s.expenses[out[i].ID] = out[i]
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.ExpenseRecord{}, s.failWith
	}
	e, ok := s.expenses[id]
	if !ok {
		return core.ExpenseRecord{}, fmt.Errorf("expense %d: %w", id, ports.ErrNotFound)
	}
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, userID int64, year, month int) ([]core.ExpenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := []core.ExpenseRecord{}
	for _, e := range s.expenses {
		if e.UserID != userID || e.Date.Year() != year {
			continue
		}
		if month >= 1 && month <= 12 && e.Date.Month() != month {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func sortEarningsDesc(list []core.EarningRecord) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date.Time) {
			return list[i].Date.After(list[j].Date.Time)
		}
		return list[i].ID > list[j].ID
	})
}
