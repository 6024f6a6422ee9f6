package services

import (
	"context"
	"fmt"

	"salarydash/internal/amqp"
	"salarydash/internal/core"
	"salarydash/internal/metrics"
	"salarydash/internal/ports"
)

type EarningStore interface {
	ports.UserStore
	ports.EarningStore
}

// EarningService stores monthly salary entries. A user has at most one
// earning per month: adding another one for the same month replaces it.
type EarningService struct {
	store  EarningStore
	events EventPublisher
}

// NewEarningService creates the service. events may be nil.
func NewEarningService(store EarningStore, events EventPublisher) *EarningService {
	return &EarningService{store: store, events: events}
}

// Save upserts e for its month and reports whether a new row was created.
func (s *EarningService) Save(ctx context.Context, e core.EarningRecord) (core.EarningRecord, bool, error) {
	if err := e.Validate(); err != nil {
		return core.EarningRecord{}, false, err
	}
	if _, err := s.store.GetUser(ctx, e.UserID); err != nil {
		return core.EarningRecord{}, false, fmt.Errorf("get user %d: %w", e.UserID, err)
	}

	stored, created, err := s.store.UpsertMonthlyEarning(ctx, e)
	if err != nil {
		return core.EarningRecord{}, false, fmt.Errorf("save earning: %w", err)
	}
	metrics.AddRecordsStored(string(core.EarningKind), 1)

	action := amqp.ActionUpdated
	if created {
		action = amqp.ActionCreated
	}
	publish(ctx, s.events, core.EarningKind, action, stored.ID, stored.UserID)
	return stored, created, nil
}

// List returns the user's earnings of year, newest first.
func (s *EarningService) List(ctx context.Context, userID int64, year int) ([]core.EarningRecord, error) {
	if err := validatePeriod(userID, year); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user %d: %w", userID, err)
	}
	list, err := s.store.ListEarnings(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	return list, nil
}

// Latest returns the most recent earning of the user or ports.ErrNotFound.
func (s *EarningService) Latest(ctx context.Context, userID int64) (core.EarningRecord, error) {
	if userID <= 0 {
		return core.EarningRecord{}, fmt.Errorf("user %d: %w", userID, core.ErrInvalidUser)
	}
	e, err := s.store.LatestEarning(ctx, userID)
	if err != nil {
		return core.EarningRecord{}, fmt.Errorf("latest earning of user %d: %w", userID, err)
	}
	return e, nil
}

// DeleteAll removes every earning of the user.
func (s *EarningService) DeleteAll(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("user %d: %w", userID, core.ErrInvalidUser)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("get user %d: %w", userID, err)
	}
	n, err := s.store.DeleteEarnings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete earnings: %w", err)
	}
	return n, nil
}
