package event

import (
	"sync"

	"go.uber.org/zap"
)

// LoggingHandler logs all events
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new LoggingHandler
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingHandler{logger: logger}
}

// Handle logs the event
func (h *LoggingHandler) Handle(event DomainEvent) error {
	switch e := event.(type) {
	case TaskSubmitted:
		h.logger.Info("task submitted",
			zap.String("task_id", e.TaskID.String()),
			zap.String("url", e.URL),
		)
	case TaskResumed:
		h.logger.Info("task resumed",
			zap.String("task_id", e.TaskID.String()),
			zap.String("filepath", e.Filepath),
			zap.Int64("from_byte", e.Downloaded),
		)
	case TaskStopped:
		h.logger.Info("task stopped",
			zap.String("task_id", e.TaskID.String()),
			zap.String("stage", e.Result.Stage.String()),
			zap.String("message", e.Result.Message),
			zap.Int64("downloaded", e.Downloaded),
		)
	case TaskFinished:
		fields := []zap.Field{
			zap.String("task_id", e.Entry.TaskID.String()),
			zap.String("state", e.Entry.State.String()),
			zap.String("stage", e.Entry.Stage.String()),
			zap.String("filepath", e.Entry.Filepath),
			zap.Int64("downloaded", e.Entry.Downloaded),
			zap.Int64("content_length", e.Entry.ContentLength),
		}
		if e.Message != "" {
			fields = append(fields, zap.String("message", e.Message))
		}
		if e.Entry.Success() {
			h.logger.Info("task finished", fields...)
		} else {
			h.logger.Warn("task finished", fields...)
		}
	default:
		h.logger.Debug("domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *LoggingHandler) HandledEvents() []string {
	return []string{NameAll}
}

// StatsHandler counts task outcomes
type StatsHandler struct {
	mu         sync.Mutex
	submitted  int64
	resumed    int64
	stopped    int64
	succeeded  int64
	failed     int64
	bytesTotal int64
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler() *StatsHandler {
	return &StatsHandler{}
}

// Handle updates counters based on the event
func (h *StatsHandler) Handle(event DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case TaskSubmitted:
		h.submitted++
	case TaskResumed:
		h.resumed++
	case TaskStopped:
		h.stopped++
	case TaskFinished:
		if e.Entry.Success() {
			h.succeeded++
			h.bytesTotal += e.Entry.Downloaded
		} else {
			h.failed++
		}
	}
	return nil
}

// HandledEvents returns the events this handler handles
func (h *StatsHandler) HandledEvents() []string {
	return []string{
		NameTaskSubmitted,
		NameTaskResumed,
		NameTaskStopped,
		NameTaskFinished,
	}
}

// Stats returns current counters
func (h *StatsHandler) Stats() map[string]int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	return map[string]int64{
		"submitted":        h.submitted,
		"resumed":          h.resumed,
		"stopped":          h.stopped,
		"succeeded":        h.succeeded,
		"failed":           h.failed,
		"bytes_downloaded": h.bytesTotal,
	}
}
