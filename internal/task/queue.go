package task

import (
	"sync"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// DefaultQueueCapacity is the number of submissions buffered before Submit blocks
const DefaultQueueCapacity = 32

// Queue is the bounded submission queue between senders and the manager
type Queue struct {
	tasks chan *Task
	done  chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewQueue creates a queue holding up to capacity pending tasks
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		tasks: make(chan *Task, capacity),
		done:  make(chan struct{}),
	}
}

// push enqueues t, blocking while the queue is full.
// Returns domain.ErrQueueClosed once Close was called.
func (q *Queue) push(t *Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return domain.ErrQueueClosed
	}

	select {
	case q.tasks <- t:
		return nil
	case <-q.done:
		return domain.ErrQueueClosed
	}
}

// Close stops accepting tasks. Tasks already queued are still delivered.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		// Wake pushers blocked on a full queue before taking the write lock
		close(q.done)

		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	})
}

// Len returns the number of tasks waiting to be picked up
func (q *Queue) Len() int {
	return len(q.tasks)
}
