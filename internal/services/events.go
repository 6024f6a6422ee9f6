package services

import (
	"context"
	"log/slog"
	"time"

	"salarydash/internal/amqp"
	"salarydash/internal/core"
	"salarydash/internal/metrics"
)

const publishTimeout = 2 * time.Second

// EventPublisher announces stored records to the ledger worker.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, e amqp.RecordEvent) error
}

// publish is best-effort: the record is already committed, so a failure is
// logged and counted but never returned to the caller.
func publish(ctx context.Context, p EventPublisher, kind core.RecordKind, action string, recordID, userID int64) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := p.PublishRecordEvent(ctx, amqp.NewRecordEvent(kind, action, recordID, userID))
	metrics.IncEventPublished(string(kind), err)
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish record event",
			"component", "services",
			"record_kind", kind,
			"record_id", recordID,
			"user_id", userID,
			"error", err)
	}
}
