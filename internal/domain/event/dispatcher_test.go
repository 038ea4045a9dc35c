package event

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vertextoedge/request-tui/internal/domain"
)

type recordingHandler struct {
	names  []string
	seen   []string
	failOn string
}

func (h *recordingHandler) Handle(event DomainEvent) error {
	h.seen = append(h.seen, event.EventName())
	if event.EventName() == h.failOn {
		return errors.New("handler failed")
	}
	return nil
}

func (h *recordingHandler) HandledEvents() []string {
	return h.names
}

func TestInMemoryDispatcher_Dispatch(t *testing.T) {
	id := uuid.New()
	events := []DomainEvent{
		NewTaskSubmitted(id, "http://example.com/a.bin"),
		NewTaskStopped(id, domain.NewResult(domain.StageInterrupted, ""), 10),
		NewTaskFinished(domain.FinishedEntry{TaskID: id, State: domain.FinishSuccess}, ""),
	}

	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{
			name:  "single event",
			names: []string{NameTaskFinished},
			want:  []string{NameTaskFinished},
		},
		{
			name:  "wildcard",
			names: []string{NameAll},
			want:  []string{NameTaskSubmitted, NameTaskStopped, NameTaskFinished},
		},
		{
			name:  "not subscribed",
			names: []string{NameTaskResumed},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewInMemoryDispatcher(nil)
			h := &recordingHandler{names: tt.names}
			d.Subscribe(h)

			for _, e := range events {
				d.Dispatch(e)
			}

			if len(h.seen) != len(tt.want) {
				t.Fatalf("handled %v, want %v", h.seen, tt.want)
			}
			for i := range tt.want {
				if h.seen[i] != tt.want[i] {
					t.Errorf("event %d = %v, want %v", i, h.seen[i], tt.want[i])
				}
			}
		})
	}
}

func TestInMemoryDispatcher_OnError(t *testing.T) {
	var failed []string
	d := NewInMemoryDispatcher(func(event DomainEvent, err error) {
		failed = append(failed, event.EventName())
	})
	d.Subscribe(&recordingHandler{names: []string{NameAll}, failOn: NameTaskStopped})

	d.Dispatch(NewTaskSubmitted(uuid.New(), "u"))
	d.Dispatch(NewTaskStopped(uuid.New(), domain.NewResult(domain.StageInterrupted, ""), 0))

	if len(failed) != 1 || failed[0] != NameTaskStopped {
		t.Errorf("failed events = %v, want [%s]", failed, NameTaskStopped)
	}
}

func TestStatsHandler(t *testing.T) {
	h := NewStatsHandler()
	id := uuid.New()

	_ = h.Handle(NewTaskSubmitted(id, "u"))
	_ = h.Handle(NewTaskStopped(id, domain.NewResult(domain.StageInterrupted, ""), 5))
	_ = h.Handle(NewTaskResumed(id, "/tmp/a", 5))
	_ = h.Handle(NewTaskFinished(domain.FinishedEntry{TaskID: id, State: domain.FinishSuccess, Downloaded: 100}, ""))
	_ = h.Handle(NewTaskFinished(domain.FinishedEntry{TaskID: uuid.New(), State: domain.FinishFailure, Downloaded: 7}, "x"))

	stats := h.Stats()
	want := map[string]int64{
		"submitted":        1,
		"resumed":          1,
		"stopped":          1,
		"succeeded":        1,
		"failed":           1,
		"bytes_downloaded": 100,
	}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("stats[%q] = %d, want %d", k, stats[k], v)
		}
	}
}
