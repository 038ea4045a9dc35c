package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/service/downloads"
	"github.com/vertextoedge/request-tui/internal/task"
)

// fakeDownloads records calls and plays back canned rows
type fakeDownloads struct {
	calls    []string
	rows     []downloads.Row
	retire   []domain.FinishedEntry
	running  bool
	selected int
	finished *downloads.FinishList
}

func newFakeDownloads() *fakeDownloads {
	return &fakeDownloads{selected: -1, finished: downloads.NewFinishList()}
}

func (f *fakeDownloads) Append(url string) error {
	f.calls = append(f.calls, "append "+url)
	if url == "full" {
		return domain.ErrQueueClosed
	}
	f.rows = append(f.rows, downloads.Row{
		Snapshot: task.Snapshot{URL: url, ContentLength: domain.UnknownLength, LastSpeed: -1},
		Status:   "Downloading",
	})
	if f.selected < 0 {
		f.selected = 0
	}
	return nil
}

func (f *fakeDownloads) Poll() []domain.FinishedEntry {
	out := f.retire
	f.retire = nil
	for _, e := range out {
		f.finished.Push(e)
	}
	return out
}

func (f *fakeDownloads) index(op string, i int) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %d", op, i))
	if i < 0 || i >= len(f.rows) {
		return domain.ErrIndexOutOfRange
	}
	return nil
}

func (f *fakeDownloads) Stop(i int) error   { return f.index("stop", i) }
func (f *fakeDownloads) Abort(i int) error  { return f.index("abort", i) }
func (f *fakeDownloads) Resume(i int) error { return f.index("resume", i) }

func (f *fakeDownloads) Select(i int) error {
	if err := f.index("select", i); err != nil {
		return err
	}
	f.selected = i
	return nil
}

func (f *fakeDownloads) Selected() (int, bool)           { return f.selected, f.selected >= 0 }
func (f *fakeDownloads) Rows() []downloads.Row           { return f.rows }
func (f *fakeDownloads) Running() bool                   { return f.running }
func (f *fakeDownloads) Len() int                        { return len(f.rows) }
func (f *fakeDownloads) Finished() *downloads.FinishList { return f.finished }

type fakeHistory struct {
	entries []*domain.FinishedEntry
	err     error
}

func (h *fakeHistory) List(limit int) ([]*domain.FinishedEntry, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit > 0 && limit < len(h.entries) {
		return h.entries[:limit], nil
	}
	return h.entries, nil
}

func (h *fakeHistory) Counts() (int, int, error) {
	return 1, 0, h.err
}

type fakeStats map[string]int64

func (s fakeStats) Stats() map[string]int64 { return s }

func runConsole(t *testing.T, list Downloads, history History, stats Stats, input string) string {
	t.Helper()
	var out bytes.Buffer
	c := New(list, history, stats, Config{
		PollInterval: 5 * time.Millisecond,
		FreeSpace:    func() (uint64, error) { return 2048, nil },
	}, strings.NewReader(input), &out, nil)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not return")
	}
	return out.String()
}

func TestConsole_Commands(t *testing.T) {
	list := newFakeDownloads()
	input := strings.Join([]string{
		"add http://example.com/a.bin",
		"example.com/b.bin",
		"select 2",
		"stop",
		"abort 1",
		"resume 9",
		"bogus",
		"list",
		"quit",
		"add http://never.example.com/",
	}, "\n")

	out := runConsole(t, list, nil, nil, input)

	assert.Equal(t, []string{
		"append http://example.com/a.bin",
		"append example.com/b.bin",
		"select 1",
		"stop 1",
		"abort 0",
		"resume 8",
	}, list.calls)

	assert.Contains(t, out, "queued #1 http://example.com/a.bin")
	assert.Contains(t, out, "queued #2 example.com/b.bin")
	assert.Contains(t, out, "stopping #2")
	assert.Contains(t, out, "aborting #1")
	assert.Contains(t, out, "error: no download #9")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "downloads: 2 active, 0 finished, free 2.00 KB")
	assert.Contains(t, out, ">2.")
}

func TestConsole_AppendError(t *testing.T) {
	list := newFakeDownloads()
	out := runConsole(t, list, nil, nil, "add full\nstop\nquit\n")

	assert.Contains(t, out, "error: "+domain.ErrQueueClosed.Error())
	assert.Contains(t, out, "error: no download selected")
}

func TestConsole_EndOfInputWaitsForDownloads(t *testing.T) {
	list := newFakeDownloads()
	list.running = false
	list.retire = []domain.FinishedEntry{{
		TaskID:        uuid.New(),
		State:         domain.FinishSuccess,
		Stage:         domain.StageFinished,
		Filepath:      "/downloads/a.bin",
		ContentLength: 1024,
		Downloaded:    1024,
		FinishedAt:    time.Now(),
	}}

	out := runConsole(t, list, nil, nil, "finished\n")

	assert.Contains(t, out, "[ok] a.bin: Finished")
	assert.Equal(t, 1, list.finished.Len())
}

func TestConsole_FinishedAndHistory(t *testing.T) {
	list := newFakeDownloads()
	list.finished.Push(domain.FinishedEntry{
		State:         domain.FinishFailure,
		Stage:         domain.StageAbort,
		URL:           "http://example.com/c.bin",
		ContentLength: domain.UnknownLength,
		FinishedAt:    time.Now(),
	})

	history := &fakeHistory{entries: []*domain.FinishedEntry{{
		State:         domain.FinishSuccess,
		Stage:         domain.StageFinished,
		Filepath:      "/downloads/old.iso",
		ContentLength: 3 * 1024 * 1024,
		FinishedAt:    time.Now(),
	}}}

	out := runConsole(t, list, history, fakeStats{"submitted": 3, "bytes_downloaded": 1024}, "finished\nhistory 5\nstats\nquit\n")

	assert.Contains(t, out, "finished: 0 succeeded, 1 failed")
	assert.Contains(t, out, "http://example.com/c.bin")
	assert.Contains(t, out, "Abort")
	assert.Contains(t, out, "history: 1 succeeded, 0 failed")
	assert.Contains(t, out, "old.iso")
	assert.Contains(t, out, "3.00 MB")
	assert.Contains(t, out, "submitted: 3")
	assert.Contains(t, out, "bytes_downloaded: 1.00 KB")
}

func TestConsole_HistoryUnavailable(t *testing.T) {
	out := runConsole(t, newFakeDownloads(), nil, nil, "history\nstats\nquit\n")
	assert.Contains(t, out, "history is disabled")
	assert.Contains(t, out, "stats are not available")

	out = runConsole(t, newFakeDownloads(), &fakeHistory{err: errors.New("database is locked")}, nil, "history\nquit\n")
	assert.Contains(t, out, "error: database is locked")
}

func TestConsole_ContextCancel(t *testing.T) {
	list := newFakeDownloads()
	list.running = true

	ctx, cancel := context.WithCancel(context.Background())
	c := New(list, nil, nil, Config{PollInterval: time.Millisecond}, strings.NewReader(""), &bytes.Buffer{}, nil)

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not return after cancel")
	}
}

func TestConsole_ReadLinesStopsWhenDone(t *testing.T) {
	c := New(newFakeDownloads(), nil, nil, Config{}, strings.NewReader("one\ntwo\nthree\n"), &bytes.Buffer{}, nil)

	done := make(chan struct{})
	lines := make(chan string)
	go c.readLines(done, lines)

	require.Equal(t, "one", <-lines)
	close(done)

	// The reader closes lines once it sees done
	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("reader did not stop after done was closed")
		}
	}
}
