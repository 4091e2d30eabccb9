package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/campus-events/internal/event"
	"github.com/pfrederiksen/campus-events/internal/telegram"
)

// DigestThreshold is the batch size above which Telegram gets one digest
// instead of a message per record
const DigestThreshold = 3

// sender is the part of telegram.Client the notifier needs
type sender interface {
	SendMessage(ctx context.Context, text string) error
}

// TelegramNotifier sends records to a Telegram chat
type TelegramNotifier struct {
	client sender
}

// NewTelegramNotifier wraps a Telegram client
func NewTelegramNotifier(client *telegram.Client) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// Notify sends a message per record, or a digest for larger batches
func (n *TelegramNotifier) Notify(ctx context.Context, records []*event.Record) error {
	if len(records) == 0 {
		return nil
	}

	var messages []string
	if len(records) > DigestThreshold {
		messages = telegram.SplitMessage(telegram.FormatDigest(records), telegram.MaxMessageLength)
	} else {
		for _, r := range records {
			messages = append(messages, telegram.FormatRecord(r))
		}
	}

	for i, msg := range messages {
		if err := n.client.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("sending telegram message %d/%d: %w", i+1, len(messages), err)
		}
	}
	return nil
}
