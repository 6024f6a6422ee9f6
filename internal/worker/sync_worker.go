package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"salarydash/internal/amqp"
	"salarydash/internal/core"
	"salarydash/internal/metrics"
	"salarydash/internal/ports"
	"salarydash/internal/sheets"
)

// RecordReader loads the records named by events.
type RecordReader interface {
	GetEarning(ctx context.Context, id int64) (core.EarningRecord, error)
	GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error)
}

// EventSource delivers record events until ctx is done.
type EventSource interface {
	ConsumeRecordEvents(ctx context.Context, prefetch int, handler func(context.Context, amqp.RecordEvent) error) error
}

// SyncWorker mirrors stored earnings and expenses into the ledger. Events
// only carry ids, so the current version of the record is always written.
type SyncWorker struct {
	store  RecordReader
	ledger sheets.LedgerWriter
}

// NewSyncWorker creates the worker. With a nil ledger events are consumed
// and dropped.
func NewSyncWorker(store RecordReader, ledger sheets.LedgerWriter) *SyncWorker {
	return &SyncWorker{store: store, ledger: ledger}
}

// Run consumes events from src until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, src EventSource, prefetch int) error {
	err := src.ConsumeRecordEvents(ctx, prefetch, w.HandleRecordEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleRecordEvent reloads the record of e and writes it to the ledger.
// Records deleted since the event was published are skipped.
func (w *SyncWorker) HandleRecordEvent(ctx context.Context, e amqp.RecordEvent) error {
	slog.DebugContext(ctx, "Processing record event",
		"event_id", e.EventID,
		"record_kind", e.Kind,
		"record_id", e.RecordID,
		"action", e.Action)

	if w.ledger == nil {
		slog.DebugContext(ctx, "No ledger configured, skipping event", "event_id", e.EventID)
		return nil
	}

	row, err := w.load(ctx, e)
	if errors.Is(err, ports.ErrNotFound) {
		slog.WarnContext(ctx, "Record no longer exists, skipping ledger sync",
			"record_kind", e.Kind,
			"record_id", e.RecordID)
		return nil
	}
	if err != nil {
		metrics.IncLedgerSync(err)
		return err
	}

	err = w.ledger.UpsertRow(ctx, row)
	metrics.IncLedgerSync(err)
	if err != nil {
		return fmt.Errorf("write ledger row %s: %w", row.Key(), err)
	}

	slog.InfoContext(ctx, "Synced record to ledger",
		"record_kind", e.Kind,
		"record_id", e.RecordID,
		"user_id", e.UserID)
	return nil
}

func (w *SyncWorker) load(ctx context.Context, e amqp.RecordEvent) (sheets.LedgerRow, error) {
	switch e.Kind {
	case core.EarningKind:
		rec, err := w.store.GetEarning(ctx, e.RecordID)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("get earning %d: %w", e.RecordID, err)
		}
		return sheets.EarningRow(rec), nil
	case core.ExpenseKind:
		rec, err := w.store.GetExpense(ctx, e.RecordID)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("get expense %d: %w", e.RecordID, err)
		}
		return sheets.ExpenseRow(rec), nil
	default:
		return sheets.LedgerRow{}, fmt.Errorf("unknown record kind %q", e.Kind)
	}
}
