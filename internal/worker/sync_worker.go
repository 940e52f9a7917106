// Package worker mirrors transaction mutations into the ledger sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// TransactionGetter fetches one transaction by identifier.
type TransactionGetter interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
}

// SyncWorker consumes transaction events and appends one ledger row per
// mutation. Created and updated events fetch the current record; deleted
// events produce a tombstone row.
type SyncWorker struct {
	store  TransactionGetter
	ledger sheets.LedgerWriter
	logger *applog.Logger
}

func NewSyncWorker(store TransactionGetter, ledger sheets.LedgerWriter, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.NewNop()
	}
	return &SyncWorker{
		store:  store,
		ledger: ledger,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent processes a single transaction event. A record that vanished
// between the event and processing is skipped, not retried.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	switch event.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		return w.mirrorRecord(ctx, event)
	case amqp.ActionDeleted:
		return w.mirrorTombstone(ctx, event)
	default:
		w.logger.WarnContext(ctx, "Skipping event with unknown action",
			"action", event.Action, "id", event.ID)
		return nil
	}
}

func (w *SyncWorker) mirrorRecord(ctx context.Context, event *amqp.TransactionEvent) error {
	tx, err := w.store.Get(ctx, event.ID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction gone before mirroring, skipping",
			"action", event.Action, "id", event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.ledger.Append(ctx, sheets.Row{
		Action:      event.Action,
		ID:          tx.ID,
		Type:        string(tx.Kind),
		Date:        tx.Date.UTC().Format("2006-01-02"),
		Description: tx.Description,
		Category:    string(tx.Category),
		Amount:      core.Amount(tx.AmountCents),
		RecordedAt:  recordedAt(event),
	})
	if err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction mirrored",
		"action", event.Action, "id", tx.ID, "range", ref)
	return nil
}

func (w *SyncWorker) mirrorTombstone(ctx context.Context, event *amqp.TransactionEvent) error {
	ref, err := w.ledger.Append(ctx, sheets.Row{
		Action:     event.Action,
		ID:         event.ID,
		RecordedAt: recordedAt(event),
	})
	if err != nil {
		return fmt.Errorf("append tombstone row: %w", err)
	}

	w.logger.InfoContext(ctx, "Deletion mirrored", "id", event.ID, "range", ref)
	return nil
}

func recordedAt(event *amqp.TransactionEvent) time.Time {
	if event.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return event.Timestamp
}
