package task

import (
	"time"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// Listener observes and controls one task across attempts. It is used from
// a single goroutine and never blocks.
type Listener struct {
	state    *State
	results  <-chan domain.Result
	commands chan<- domain.Command // nil once consumed

	result    *domain.Result
	processed bool
	stopped   bool
}

// NewListener creates a listener bound to one attempt's channels
func NewListener(state *State, results <-chan domain.Result, commands chan<- domain.Command) *Listener {
	return &Listener{
		state:    state,
		results:  results,
		commands: commands,
	}
}

// State returns the shared progress handle
func (l *Listener) State() *State {
	return l.state
}

// Result returns the cached result, if any
func (l *Listener) Result() (domain.Result, bool) {
	if l.result == nil {
		return domain.Result{}, false
	}
	return *l.result, true
}

// Processed returns true once the current result has been handled
func (l *Listener) Processed() bool {
	return l.processed
}

// Stopped returns true once the current attempt has ended without finishing
func (l *Listener) Stopped() bool {
	return l.stopped
}

// MarkProcessed records that the current result has been handled
func (l *Listener) MarkProcessed() {
	l.processed = true
}

// MarkStopped records that the current attempt is over
func (l *Listener) MarkStopped() {
	l.stopped = true
}

// TryReceive polls for the attempt's result without blocking. The first
// result seen is cached and returned on every later call. A result channel
// closed without a value yields StageUnknownError.
func (l *Listener) TryReceive() (domain.Result, bool) {
	if l.result != nil || l.processed || l.stopped {
		return l.Result()
	}

	select {
	case r, ok := <-l.results:
		if !ok {
			r = domain.NewResult(domain.StageUnknownError, domain.ErrResultChannelClosed.Error())
		}
		l.result = &r
	default:
	}

	return l.Result()
}

// SendCommand delivers cmd to the running attempt. Only the first command
// per attempt is delivered and nothing is sent once the listener is stopped.
func (l *Listener) SendCommand(cmd domain.Command) {
	ch := l.commands
	l.commands = nil
	if ch == nil {
		return
	}
	if !l.stopped {
		ch <- cmd
	}
	close(ch)
}

// Resume starts a new attempt on the same state. It does nothing unless the
// listener is stopped. If the queue is closed the returned
// *QueueClosedError carries the state.
func (l *Listener) Resume(s *Sender) error {
	if !l.stopped {
		return nil
	}

	t, err := s.send(Resume(l.state), l.state)
	if err != nil {
		return err
	}

	if l.commands != nil {
		close(l.commands)
	}
	l.results = t.results
	l.commands = t.commands
	l.stopped = false
	l.processed = false
	l.result = nil
	return nil
}

// Close releases the command endpoint. A still running attempt reports
// StageUnknownError at its next chunk.
func (l *Listener) Close() {
	if l.commands != nil {
		close(l.commands)
		l.commands = nil
	}
}

// ToFinishedEntry converts the listener into the record kept after it
// leaves the active list. The listener is marked processed.
func (l *Listener) ToFinishedEntry() domain.FinishedEntry {
	l.processed = true

	snap := l.state.Snapshot()
	entry := domain.FinishedEntry{
		TaskID:        snap.ID,
		State:         domain.FinishFailure,
		Stage:         domain.StageUnknownError,
		Filepath:      snap.Filepath,
		URL:           snap.URL,
		ContentLength: snap.ContentLength,
		Downloaded:    snap.Downloaded,
		FinishedAt:    time.Now(),
	}

	if l.result != nil {
		entry.Stage = l.result.Stage
		if l.result.Success() {
			entry.State = domain.FinishSuccess
			if !snap.HasContentLength() {
				entry.ContentLength = snap.Downloaded
			}
		}
	}

	return entry
}
