package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/velta-dev/afisha-bot/internal/repository"
)

// CleanupHandler purges events that ended long enough ago, keeping the
// catalog tables from growing without bound.
type CleanupHandler struct {
	events repository.EventRepository
	now    func() time.Time
	log    *slog.Logger
}

var _ asynq.Handler = (*CleanupHandler)(nil)

// NewCleanupHandler builds the handler for TaskTypeCleanupData.
func NewCleanupHandler(events repository.EventRepository, log *slog.Logger) *CleanupHandler {
	return &CleanupHandler{
		events: events,
		now:    time.Now,
		log:    log,
	}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload CleanupDataPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode cleanup payload: %w", err)
	}
	if payload.RetainFor <= 0 {
		return fmt.Errorf("cleanup payload: non-positive retention %s", payload.RetainFor)
	}

	cutoff := h.now().Add(-payload.RetainFor)

	purged, err := h.events.PurgeEndedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge ended events: %w", err)
	}

	if h.log != nil {
		h.log.Info("data cleanup finished",
			slog.Time("cutoff", cutoff),
			slog.Int64("events_purged", purged),
		)
	}
	return nil
}
