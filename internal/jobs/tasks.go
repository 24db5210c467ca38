package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCleanupData = "data:cleanup"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// CleanupDataPayload bounds the retention sweep: events that ended more
// than RetainFor ago are purged together with their registrations.
type CleanupDataPayload struct {
	RetainFor time.Duration `json:"retain_for"`
}

func NewCleanupDataTask(retainFor time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(CleanupDataPayload{RetainFor: retainFor})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCleanupData, payload, asynq.Queue(QueueLow)), nil
}
