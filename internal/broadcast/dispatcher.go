// Package broadcast fans a message out to a filtered audience.
package broadcast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/velta-dev/afisha-bot/internal/repository"
	"github.com/velta-dev/afisha-bot/pkg/metrics"
)

// Sender delivers one message to one recipient. The bot layer adapts
// telebot behind this so the dispatcher stays testable.
type Sender interface {
	Send(ctx context.Context, telegramID int64, message string) error
}

// SenderFunc adapts a plain function into a Sender.
type SenderFunc func(ctx context.Context, telegramID int64, message string) error

func (f SenderFunc) Send(ctx context.Context, telegramID int64, message string) error {
	return f(ctx, telegramID, message)
}

// Report summarizes a finished broadcast. Sent + Failed equals the number
// of recipients attempted before cancellation, and every recipient is
// attempted exactly once.
type Report struct {
	Sent   int
	Failed int
}

// Dispatcher sends broadcasts to active users, pausing after every batch
// so the Telegram rate limits are respected.
type Dispatcher struct {
	users     repository.UserRepository
	sender    Sender
	batchSize int
	pause     time.Duration
	log       *slog.Logger
}

// NewDispatcher constructs a Dispatcher. batchSize <= 0 disables pacing.
func NewDispatcher(users repository.UserRepository, sender Sender, batchSize int, pause time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		users:     users,
		sender:    sender,
		batchSize: batchSize,
		pause:     pause,
		log:       log,
	}
}

// Broadcast delivers message to every active user matching the city filter
// (empty city = everyone). Individual send failures are counted, logged,
// and never abort the run; context cancellation stops between sends.
func (d *Dispatcher) Broadcast(ctx context.Context, city string, message string) (Report, error) {
	recipients, err := d.users.ListActive(ctx, city)
	if err != nil {
		return Report{}, fmt.Errorf("list recipients: %w", err)
	}

	var report Report
	for i, recipient := range recipients {
		if err := ctx.Err(); err != nil {
			d.log.Warn("broadcast cancelled",
				slog.Int("sent", report.Sent),
				slog.Int("failed", report.Failed),
				slog.Int("remaining", len(recipients)-i),
			)
			metrics.RecordBroadcast(report.Sent, report.Failed)
			return report, err
		}

		if err := d.sender.Send(ctx, recipient.TelegramID, message); err != nil {
			report.Failed++
			d.log.Warn("broadcast send failed",
				slog.Int64("telegram_id", recipient.TelegramID),
				slog.Any("error", err),
			)
		} else {
			report.Sent++
		}

		if d.batchSize > 0 && (i+1)%d.batchSize == 0 && i+1 < len(recipients) {
			select {
			case <-ctx.Done():
				metrics.RecordBroadcast(report.Sent, report.Failed)
				return report, ctx.Err()
			case <-time.After(d.pause):
			}
		}
	}

	d.log.Info("broadcast finished",
		slog.String("city", cityLabel(city)),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	metrics.RecordBroadcast(report.Sent, report.Failed)
	return report, nil
}

func cityLabel(city string) string {
	if city == "" {
		return "all"
	}
	return city
}

// Describe renders the report for the operator who launched the broadcast.
func (r Report) Describe() string {
	return fmt.Sprintf("Broadcast complete: %d delivered, %d failed", r.Sent, r.Failed)
}
