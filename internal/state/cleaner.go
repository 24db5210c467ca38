package state

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner clears wizard sessions that have been idle longer than the TTL.
// Redis entries already expire on their own; the cleaner covers the memory
// backend and removes sessions whose TTL was extended by partial activity.
type Cleaner struct {
	storage  Storage
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(storage Storage, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		storage:  storage,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if c.log != nil {
				c.log.Info("state cleaner stopped")
			}
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	states, err := c.storage.GetAllStates(ctx)
	if err != nil {
		if c.log != nil {
			c.log.Error("state cleaner failed to list states", slog.Any("error", err))
		}
		return
	}

	for _, stored := range states {
		if stored == nil || stored.CurrentState == StateIdle {
			continue
		}

		if time.Since(stored.UpdatedAt) <= c.ttl {
			continue
		}

		if err := c.storage.ClearState(ctx, stored.UserID); err != nil {
			if c.log != nil {
				c.log.Error("state cleaner failed to clear state", slog.Int64("user_id", stored.UserID), slog.Any("error", err))
			}
			continue
		}

		if c.log != nil {
			c.log.Info("idle wizard session cleared", slog.Int64("user_id", stored.UserID), slog.String("state", string(stored.CurrentState)))
		}
	}
}
