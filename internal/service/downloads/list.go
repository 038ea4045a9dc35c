package downloads

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/domain/event"
	"github.com/vertextoedge/request-tui/internal/task"
)

// Row is one line of the active list as the front end renders it
type Row struct {
	task.Snapshot
	Stopped bool
	Status  string
}

// Config contains DownloadList settings
type Config struct {
	// SpeedInterval is the minimum time between speed samples
	SpeedInterval time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DownloadList is the front end's collection of active tasks. It owns one
// Listener per task and retires tasks into a FinishList. It is not safe for
// concurrent use; the front end drives it from a single goroutine.
type DownloadList struct {
	sender   *task.Sender
	finished *FinishList
	events   event.EventDispatcher
	logger   *zap.Logger
	config   Config

	active   []*task.Listener
	selected int // -1 when nothing is selected
}

// New creates a new DownloadList. events and logger may be nil.
func New(sender *task.Sender, finished *FinishList, events event.EventDispatcher, cfg Config, logger *zap.Logger) *DownloadList {
	if finished == nil {
		finished = NewFinishList()
	}
	if events == nil {
		events = event.NullDispatcher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpeedInterval <= 0 {
		cfg.SpeedInterval = task.DefaultSpeedInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &DownloadList{
		sender:   sender,
		finished: finished,
		events:   events,
		logger:   logger,
		config:   cfg,
		selected: -1,
	}
}

// Len returns the number of active tasks
func (d *DownloadList) Len() int {
	return len(d.active)
}

// Finished returns the list retired tasks move into
func (d *DownloadList) Finished() *FinishList {
	return d.finished
}

// Selected returns the selected index
func (d *DownloadList) Selected() (int, bool) {
	if d.selected < 0 || d.selected >= len(d.active) {
		return 0, false
	}
	return d.selected, true
}

// Select sets the selected index
func (d *DownloadList) Select(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}
	d.selected = index
	return nil
}

// Append queues a download of url. It blocks while the queue is full.
func (d *DownloadList) Append(url string) error {
	listener, err := d.sender.SendNormal(url)
	if err != nil {
		return fmt.Errorf("failed to submit %q: %w", url, err)
	}

	d.active = append(d.active, listener)
	if d.selected < 0 {
		d.selected = 0
	}

	d.events.Dispatch(event.NewTaskSubmitted(listener.State().ID(), url))
	return nil
}

// Poll collects results from every unprocessed task. Tasks whose stage is
// not resumable are retired; the rest stay listed as stopped. It returns
// the entries retired by this call.
func (d *DownloadList) Poll() []domain.FinishedEntry {
	if d.selected < 0 && len(d.active) > 0 {
		d.selected = 0
	}

	var retired []domain.FinishedEntry

	// The slice shrinks while iterating.
	idx := 0
	for idx < len(d.active) {
		l := d.active[idx]
		if l.Processed() {
			idx++
			continue
		}

		result, ok := l.TryReceive()
		if !ok {
			idx++
			continue
		}

		l.MarkProcessed()
		if result.Stage != domain.StageFinished {
			l.MarkStopped()
		}

		if !result.Stage.Resumable() {
			retired = append(retired, d.retire(idx))
			continue
		}

		d.events.Dispatch(event.NewTaskStopped(l.State().ID(), result, l.State().Snapshot().Downloaded))
		idx++
	}

	return retired
}

// Stop asks the task at index to stop. A stopped task is left alone.
func (d *DownloadList) Stop(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}

	l := d.active[index]
	if l.Stopped() {
		return nil
	}
	l.SendCommand(domain.CommandStop)
	return nil
}

// Abort asks the task at index to abort. A stopped task is retired
// immediately.
func (d *DownloadList) Abort(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}

	l := d.active[index]
	if l.Stopped() {
		d.retire(index)
		return nil
	}
	l.SendCommand(domain.CommandAbort)
	return nil
}

// Resume starts a new attempt for the stopped task at index. A running task
// is left alone. When the queue is closed the task is retired and the
// queue error is returned.
func (d *DownloadList) Resume(index int) error {
	if err := d.checkIndex(index); err != nil {
		return err
	}

	l := d.active[index]
	if !l.Stopped() {
		return nil
	}

	if err := l.Resume(d.sender); err != nil {
		var closed *task.QueueClosedError
		if errors.As(err, &closed) {
			d.logger.Warn("resume rejected, retiring task",
				zap.String("task_id", l.State().ID().String()),
				zap.Error(err))
			d.retire(index)
		}
		return fmt.Errorf("failed to resume task %d: %w", index, err)
	}

	snap := l.State().Snapshot()
	d.events.Dispatch(event.NewTaskResumed(snap.ID, snap.Filepath, snap.Downloaded))
	return nil
}

// Rows samples speed and snapshots every active task
func (d *DownloadList) Rows() []Row {
	now := d.config.Now()
	rows := make([]Row, 0, len(d.active))
	for _, l := range d.active {
		row := Row{
			Snapshot: l.State().SampleSpeed(now, d.config.SpeedInterval),
			Stopped:  l.Stopped(),
			Status:   "Downloading",
		}
		if result, ok := l.Result(); ok {
			row.Status = result.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// Running reports whether any task is still transferring
func (d *DownloadList) Running() bool {
	for _, l := range d.active {
		if !l.Processed() {
			return true
		}
	}
	return false
}

// Close releases every active task's command endpoint. Running attempts
// end at their next chunk.
func (d *DownloadList) Close() {
	for _, l := range d.active {
		l.Close()
	}
}

func (d *DownloadList) checkIndex(index int) error {
	if index < 0 || index >= len(d.active) {
		return fmt.Errorf("index %d of %d: %w", index, len(d.active), domain.ErrIndexOutOfRange)
	}
	return nil
}

// retire moves the task at index into the finish list
func (d *DownloadList) retire(index int) domain.FinishedEntry {
	l := d.active[index]
	entry := l.ToFinishedEntry()
	l.Close()

	var message string
	if result, ok := l.Result(); ok {
		message = result.Message
	}

	d.finished.Push(entry)
	d.active = append(d.active[:index], d.active[index+1:]...)

	if d.selected >= 0 {
		if d.selected >= index && d.selected > 0 {
			d.selected--
		} else if len(d.active) == 0 {
			d.selected = -1
		}
	}

	d.events.Dispatch(event.NewTaskFinished(entry, message))
	return entry
}
