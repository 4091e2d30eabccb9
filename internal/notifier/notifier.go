package notifier

import (
	"context"
	"errors"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/logger"
)

// Notifier defines the interface for posting event notifications
type Notifier interface {
	// Notify posts notifications for the given records
	Notify(ctx context.Context, records []*event.Record) error
}

// Multi sends every batch to each notifier, continuing past failures
type Multi []Notifier

// Notify returns the joined errors of the notifiers that failed
func (m Multi) Notify(ctx context.Context, records []*event.Record) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, records); err != nil {
			logger.IncrCounter("notify.failed")
			logger.Error("Notification failed", logger.Fields{"records": len(records)}, err)
			errs = append(errs, err)
			continue
		}
		logger.AddCounter("notify.sent", int64(len(records)))
	}
	return errors.Join(errs...)
}
