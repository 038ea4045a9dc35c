package task

import (
	"github.com/vertextoedge/request-tui/internal/domain"
)

// RequestKind selects how an attempt starts
type RequestKind int

// Request kinds
const (
	RequestNormal RequestKind = iota
	RequestResume
)

// Request describes one submission
type Request struct {
	Kind  RequestKind
	URL   string // RequestNormal only
	state *State // RequestResume only
}

// Normal creates a request that downloads url into a new file
func Normal(url string) Request {
	return Request{Kind: RequestNormal, URL: url}
}

// Resume creates a request that continues the download tracked by state
func Resume(state *State) Request {
	return Request{Kind: RequestResume, state: state}
}

// Task is handed from a Sender to the Manager and consumed by one attempt
type Task struct {
	Request Request
	State   *State

	results  chan domain.Result
	commands chan domain.Command
}

func newTask(req Request, state *State) *Task {
	return &Task{
		Request:  req,
		State:    state,
		results:  make(chan domain.Result, 1),
		commands: make(chan domain.Command, 1),
	}
}

// Report delivers the attempt's result and closes the result channel.
// It must be called exactly once.
func (t *Task) Report(result domain.Result) {
	t.results <- result
	close(t.results)
}

// Commands returns the attempt's command channel. A closed channel with no
// value means the listener went away.
func (t *Task) Commands() <-chan domain.Command {
	return t.commands
}

// discard drops a task that will never run. Its listener observes a closed
// result channel.
func (t *Task) discard() {
	close(t.results)
}
