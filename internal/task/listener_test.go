package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/request-tui/internal/domain"
)

func newTestListener() (*Listener, chan domain.Result, chan domain.Command) {
	results := make(chan domain.Result, 1)
	commands := make(chan domain.Command, 1)
	return NewListener(NewState(), results, commands), results, commands
}

func TestListener_TryReceive(t *testing.T) {
	l, results, _ := newTestListener()

	_, ok := l.TryReceive()
	assert.False(t, ok, "no result yet")

	results <- domain.NewResult(domain.StageInterrupted, "")
	close(results)

	first, ok := l.TryReceive()
	require.True(t, ok)
	assert.Equal(t, domain.StageInterrupted, first.Stage)

	// The closed channel is not consulted again
	second, ok := l.TryReceive()
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestListener_TryReceiveClosedChannel(t *testing.T) {
	l, results, _ := newTestListener()
	close(results)

	r, ok := l.TryReceive()
	require.True(t, ok)
	assert.Equal(t, domain.StageUnknownError, r.Stage)
	assert.Equal(t, domain.ErrResultChannelClosed.Error(), r.Message)
}

func TestListener_TryReceiveSkipsWhenStopped(t *testing.T) {
	l, results, _ := newTestListener()
	l.MarkStopped()
	results <- domain.NewResult(domain.StageFinished, "")

	_, ok := l.TryReceive()
	assert.False(t, ok)
	assert.Len(t, results, 1, "a stopped listener does not read the channel")
}

func TestListener_SendCommand(t *testing.T) {
	tests := []struct {
		name    string
		stopped bool
		sends   []domain.Command
		want    []domain.Command
	}{
		{
			name:  "first command delivered",
			sends: []domain.Command{domain.CommandStop},
			want:  []domain.Command{domain.CommandStop},
		},
		{
			name:  "second command dropped",
			sends: []domain.Command{domain.CommandAbort, domain.CommandStop},
			want:  []domain.Command{domain.CommandAbort},
		},
		{
			name:    "stopped listener sends nothing",
			stopped: true,
			sends:   []domain.Command{domain.CommandStop},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _, commands := newTestListener()
			if tt.stopped {
				l.MarkStopped()
			}
			for _, c := range tt.sends {
				l.SendCommand(c)
			}

			var got []domain.Command
			for c := range commands {
				got = append(got, c)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListener_Resume(t *testing.T) {
	queue := NewQueue(4)
	sender := NewSender(queue, nil)

	l, err := sender.SendNormal("http://example.com/a.bin")
	require.NoError(t, err)
	first := <-queue.tasks
	state := l.State()

	// Not stopped: nothing is submitted
	require.NoError(t, l.Resume(sender))
	assert.Zero(t, queue.Len())

	first.Report(domain.NewResult(domain.StageInterrupted, ""))
	_, ok := l.TryReceive()
	require.True(t, ok)
	l.MarkProcessed()
	l.MarkStopped()

	require.NoError(t, l.Resume(sender))
	assert.False(t, l.Stopped())
	assert.False(t, l.Processed())
	_, ok = l.Result()
	assert.False(t, ok, "cached result cleared")

	second := <-queue.tasks
	assert.Equal(t, RequestResume, second.Request.Kind)
	assert.Same(t, state, second.State, "resume reuses the shared state")

	// New command channel is wired to the new attempt
	l.SendCommand(domain.CommandAbort)
	assert.Equal(t, domain.CommandAbort, <-second.Commands())

	// And so is the new result channel
	second.Report(domain.NewResult(domain.StageFinished, ""))
	r, ok := l.TryReceive()
	require.True(t, ok)
	assert.Equal(t, domain.StageFinished, r.Stage)
}

func TestListener_ResumeQueueClosed(t *testing.T) {
	queue := NewQueue(1)
	sender := NewSender(queue, nil)
	l, err := sender.SendNormal("http://example.com/a.bin")
	require.NoError(t, err)
	l.MarkStopped()

	sender.Close()
	err = l.Resume(sender)

	var qce *QueueClosedError
	require.True(t, errors.As(err, &qce))
	assert.Same(t, l.State(), qce.State)
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
	assert.True(t, l.Stopped(), "failed resume leaves the listener stopped")
}

func TestListener_ToFinishedEntry(t *testing.T) {
	tests := []struct {
		name          string
		result        *domain.Result
		contentLength int64
		downloaded    int64
		wantState     domain.FinishState
		wantLength    int64
	}{
		{
			name:          "finished with known length",
			result:        &domain.Result{Stage: domain.StageFinished},
			contentLength: 1000,
			downloaded:    1000,
			wantState:     domain.FinishSuccess,
			wantLength:    1000,
		},
		{
			name:          "finished with unknown length backfills",
			result:        &domain.Result{Stage: domain.StageFinished},
			contentLength: domain.UnknownLength,
			downloaded:    321,
			wantState:     domain.FinishSuccess,
			wantLength:    321,
		},
		{
			name:          "abort keeps unknown length",
			result:        &domain.Result{Stage: domain.StageAbort},
			contentLength: domain.UnknownLength,
			downloaded:    50,
			wantState:     domain.FinishFailure,
			wantLength:    domain.UnknownLength,
		},
		{
			name:          "no result",
			contentLength: 1000,
			downloaded:    10,
			wantState:     domain.FinishFailure,
			wantLength:    1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, results, _ := newTestListener()
			l.State().Update(func(s *Snapshot) {
				s.Filepath = "/tmp/x.bin"
				s.URL = "http://example.com/x.bin"
				s.ContentLength = tt.contentLength
				s.Downloaded = tt.downloaded
			})
			if tt.result != nil {
				results <- *tt.result
				l.TryReceive()
			}

			entry := l.ToFinishedEntry()

			assert.True(t, l.Processed())
			assert.Equal(t, tt.wantState, entry.State)
			assert.Equal(t, tt.wantLength, entry.ContentLength)
			assert.Equal(t, tt.downloaded, entry.Downloaded)
			assert.Equal(t, "/tmp/x.bin", entry.Filepath)
			assert.Equal(t, l.State().ID(), entry.TaskID)
		})
	}
}

func TestListener_Close(t *testing.T) {
	l, _, commands := newTestListener()
	l.Close()

	_, ok := <-commands
	assert.False(t, ok, "command channel closed without a value")

	// Idempotent and SendCommand becomes a no-op
	l.Close()
	l.SendCommand(domain.CommandStop)
}
