package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/util/units"
)

// DefaultSpeedInterval is how often the displayed speed is recomputed
const DefaultSpeedInterval = 500 * time.Millisecond

// Snapshot is a point-in-time copy of a task's progress
type Snapshot struct {
	ID            uuid.UUID
	Filepath      string
	URL           string
	AcceptRanges  bool
	ContentLength int64 // domain.UnknownLength until the server reports it
	Downloaded    int64

	// Speed sampling, owned by the front end
	LastUpdated    time.Time
	LastDownloaded int64
	LastSpeed      int64 // bytes per second, -1 before the first sample
}

// HasContentLength returns true if the total size is known
func (s Snapshot) HasContentLength() bool {
	return s.ContentLength >= 0
}

// Percent returns download completion in the range 0..100.
// Unknown totals report 0, empty resources report 100.
func (s Snapshot) Percent() int {
	if !s.HasContentLength() {
		return 0
	}
	if s.ContentLength == 0 {
		return 100
	}
	p := s.Downloaded * 100 / s.ContentLength
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return int(p)
}

// SpeedString returns "<size>/s" or "--" before the first sample
func (s Snapshot) SpeedString() string {
	if s.LastSpeed < 0 {
		return "--"
	}
	return units.HumanSize(s.LastSpeed) + "/s"
}

// DownloadedString returns "<downloaded>/<total>" or "<downloaded> / --"
func (s Snapshot) DownloadedString() string {
	if s.HasContentLength() {
		return units.HumanSize(s.Downloaded) + "/" + units.HumanSize(s.ContentLength)
	}
	return units.HumanSize(s.Downloaded) + " / --"
}

// State is the progress shared between one resolver and one listener.
// The same State is reused across resume attempts.
type State struct {
	mu   sync.Mutex
	data Snapshot
}

// NewState creates an empty state with a fresh ID
func NewState() *State {
	return &State{
		data: Snapshot{
			ID:             uuid.New(),
			ContentLength:  domain.UnknownLength,
			LastUpdated:    time.Now(),
			LastDownloaded: 0,
			LastSpeed:      -1,
		},
	}
}

// ID returns the task ID
func (s *State) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.ID
}

// Snapshot returns a copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Update runs fn with exclusive access to the state
func (s *State) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
}

// AddDownloaded records n more bytes written to disk
func (s *State) AddDownloaded(n int64) {
	s.mu.Lock()
	s.data.Downloaded += n
	s.mu.Unlock()
}

// SampleSpeed recomputes the speed if at least interval has passed since the
// last sample, then returns a copy of the state
func (s *State) SampleSpeed(now time.Time, interval time.Duration) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.data.LastUpdated)
	if elapsed >= interval && elapsed > 0 {
		delta := s.data.Downloaded - s.data.LastDownloaded
		if delta < 0 {
			delta = 0
		}
		s.data.LastSpeed = int64(float64(delta) / elapsed.Seconds())
		s.data.LastUpdated = now
		s.data.LastDownloaded = s.data.Downloaded
	}
	return s.data
}

// resetSampling restarts speed sampling at the current downloaded count
func (d *Snapshot) resetSampling(now time.Time) {
	d.LastUpdated = now
	d.LastDownloaded = d.Downloaded
	d.LastSpeed = -1
}
