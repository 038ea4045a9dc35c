package task

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// QueueClosedError is returned when a submission finds the queue closed.
// State hands the shared progress back to the caller.
type QueueClosedError struct {
	State *State
}

// Error returns the error message
func (e *QueueClosedError) Error() string {
	return domain.ErrQueueClosed.Error()
}

// Unwrap returns domain.ErrQueueClosed
func (e *QueueClosedError) Unwrap() error {
	return domain.ErrQueueClosed
}

// Sender is the front end's handle on the submission queue
type Sender struct {
	queue  *Queue
	logger *zap.Logger
}

// NewSender creates a new Sender
func NewSender(queue *Queue, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{queue: queue, logger: logger}
}

// Submit queues one attempt and returns a listener bound to it.
// It blocks while the queue is full.
func (s *Sender) Submit(req Request) (*Listener, error) {
	state := req.state
	if req.Kind == RequestNormal {
		state = NewState()
	}
	if state == nil {
		return nil, fmt.Errorf("resume request without state: %w", domain.ErrInvalidInput)
	}

	t, err := s.send(req, state)
	if err != nil {
		return nil, err
	}
	return NewListener(state, t.results, t.commands), nil
}

// SendNormal queues a download of url
func (s *Sender) SendNormal(url string) (*Listener, error) {
	return s.Submit(Normal(url))
}

// send pushes a task with fresh channels for state
func (s *Sender) send(req Request, state *State) (*Task, error) {
	t := newTask(req, state)
	if err := s.queue.push(t); err != nil {
		if errors.Is(err, domain.ErrQueueClosed) {
			return nil, &QueueClosedError{State: state}
		}
		return nil, err
	}

	s.logger.Debug("task queued",
		zap.String("task_id", state.ID().String()),
		zap.Bool("resume", req.Kind == RequestResume),
		zap.Int("queued", s.queue.Len()))
	return t, nil
}

// Close closes the submission queue. The manager returns once the queued
// tasks have been handed off.
func (s *Sender) Close() {
	s.queue.Close()
}
