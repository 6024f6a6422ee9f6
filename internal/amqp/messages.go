package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salarydash/internal/core"
)

// Actions carried by a RecordEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// RecordEvent announces that an earning or expense was written. It only
// carries identifiers; consumers reload the record from the store.
type RecordEvent struct {
	EventID   string          `json:"event_id"`
	Kind      core.RecordKind `json:"kind"`
	Action    string          `json:"action"`
	RecordID  int64           `json:"record_id"`
	UserID    int64           `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordEvent stamps a new event with a random id and the current time.
func NewRecordEvent(kind core.RecordKind, action string, recordID, userID int64) RecordEvent {
	return RecordEvent{
		EventID:   uuid.NewString(),
		Kind:      kind,
		Action:    action,
		RecordID:  recordID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (e RecordEvent) Validate() error {
	if _, err := uuid.Parse(e.EventID); err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	if e.Kind != core.EarningKind && e.Kind != core.ExpenseKind {
		return fmt.Errorf("unknown record kind %q", e.Kind)
	}
	if e.RecordID <= 0 || e.UserID <= 0 {
		return errors.New("record and user ids must be positive")
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates an event.
func RecordEventFromJSON(data []byte) (RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return RecordEvent{}, err
	}
	return e, nil
}
