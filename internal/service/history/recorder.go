package history

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/domain/event"
	"github.com/vertextoedge/request-tui/internal/port"
)

// DefaultListLimit is used by List when limit is not positive
const DefaultListLimit = 20

// Recorder writes every retired task to the history repository.
// The history is an audit log; it is never loaded back into the lists.
type Recorder struct {
	repo   port.HistoryRepository
	logger *zap.Logger
}

// Ensure Recorder implements event.EventHandler
var _ event.EventHandler = (*Recorder)(nil)

// NewRecorder creates a new Recorder
func NewRecorder(repo port.HistoryRepository, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{repo: repo, logger: logger}
}

// Handle records TaskFinished events
func (r *Recorder) Handle(e event.DomainEvent) error {
	finished, ok := e.(event.TaskFinished)
	if !ok {
		return nil
	}

	entry := finished.Entry
	if err := r.repo.RecordFinished(&entry); err != nil {
		return fmt.Errorf("failed to record task %s: %w", entry.TaskID, err)
	}

	r.logger.Debug("history recorded",
		zap.String("task_id", entry.TaskID.String()),
		zap.String("state", entry.State.String()))
	return nil
}

// HandledEvents returns the events this handler handles
func (r *Recorder) HandledEvents() []string {
	return []string{event.NameTaskFinished}
}

// List returns up to limit recorded entries, newest first
func (r *Recorder) List(limit int) ([]*domain.FinishedEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return r.repo.ListRecent(limit)
}

// Counts returns the number of recorded successes and failures
func (r *Recorder) Counts() (succeeded, failed int, err error) {
	counts, err := r.repo.CountByState()
	if err != nil {
		return 0, 0, err
	}
	return counts[domain.FinishSuccess], counts[domain.FinishFailure], nil
}
