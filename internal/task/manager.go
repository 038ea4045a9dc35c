package task

import (
	"context"

	"go.uber.org/zap"
)

// Runner executes one attempt and reports its result on the task
type Runner interface {
	Run(ctx context.Context, t *Task)
}

// Manager consumes the submission queue and starts one goroutine per task.
// Started attempts are not tracked.
type Manager struct {
	queue  *Queue
	runner Runner
	logger *zap.Logger
}

// NewManager creates a new Manager
func NewManager(queue *Queue, runner Runner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		queue:  queue,
		runner: runner,
		logger: logger,
	}
}

// Run hands queued tasks to the runner until the queue is closed. If ctx is
// cancelled first the queue is closed and any tasks still queued are
// discarded. Running attempts are never cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("task manager started")

	// Attempts outlive the manager
	attemptCtx := context.WithoutCancel(ctx)

	for {
		select {
		case t, ok := <-m.queue.tasks:
			if !ok {
				m.logger.Info("task queue closed, task manager stopped")
				return nil
			}
			m.spawn(attemptCtx, t)

		case <-ctx.Done():
			m.queue.Close()
			dropped := 0
			for t := range m.queue.tasks {
				t.discard()
				dropped++
			}
			m.logger.Info("task manager cancelled", zap.Int("dropped", dropped))
			return ctx.Err()
		}
	}
}

func (m *Manager) spawn(ctx context.Context, t *Task) {
	m.logger.Debug("starting attempt",
		zap.String("task_id", t.State.ID().String()),
		zap.Bool("resume", t.Request.Kind == RequestResume))

	go m.runner.Run(ctx, t)
}
