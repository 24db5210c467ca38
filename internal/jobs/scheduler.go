package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	retainFor      time.Duration
	log            *slog.Logger
}

// NewScheduler builds the periodic scheduler. retainFor is how long past
// events stay in the database before the nightly sweep purges them.
func NewScheduler(redisOpt asynq.RedisConnOpt, retainFor time.Duration, log *slog.Logger) Scheduler {
	if retainFor <= 0 {
		retainFor = 90 * 24 * time.Hour
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		retainFor:      retainFor,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewCleanupDataTask(s.retainFor)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register("0 4 * * *", task); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered data cleanup task",
			slog.Duration("retain_for", s.retainFor))
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
