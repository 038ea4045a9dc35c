package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/service/downloads"
	"github.com/vertextoedge/request-tui/internal/util/ratelimiter"
	"github.com/vertextoedge/request-tui/internal/util/units"
)

// Downloads is the active list the console drives
type Downloads interface {
	Append(url string) error
	Poll() []domain.FinishedEntry
	Stop(index int) error
	Abort(index int) error
	Resume(index int) error
	Select(index int) error
	Selected() (int, bool)
	Rows() []downloads.Row
	Running() bool
	Len() int
	Finished() *downloads.FinishList
}

// History lists recorded downloads
type History interface {
	List(limit int) ([]*domain.FinishedEntry, error)
	Counts() (succeeded, failed int, err error)
}

// Stats reports session counters
type Stats interface {
	Stats() map[string]int64
}

// Config contains console settings
type Config struct {
	// PollInterval is the cadence of result polling and command handling
	PollInterval time.Duration

	// StatusInterval paces the automatic status table. Zero disables it.
	StatusInterval time.Duration

	// FreeSpace reports free bytes in the download directory. Optional.
	FreeSpace func() (uint64, error)
}

// Console is a line-oriented front end. Input is read on its own goroutine;
// everything else happens on the goroutine calling Run.
type Console struct {
	list    Downloads
	history History
	stats   Stats
	config  Config
	status  *ratelimiter.Limiter
	in      io.Reader
	out     io.Writer
	logger  *zap.Logger
}

// New creates a new Console. history and stats may be nil.
func New(list Downloads, history History, stats Stats, cfg Config, in io.Reader, out io.Writer, logger *zap.Logger) *Console {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Console{
		list:    list,
		history: history,
		stats:   stats,
		config:  cfg,
		status:  ratelimiter.New(cfg.StatusInterval),
		in:      in,
		out:     out,
		logger:  logger,
	}
}

// Run processes commands until quit, ctx cancellation, or end of input with
// no download still running.
func (c *Console) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	lines := make(chan string)
	go c.readLines(done, lines)

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	c.printf("request-tui: type a URL to download, \"help\" for commands\n")
	// The first table waits a full interval
	c.status.Defer()

	drain := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				drain = true
				c.logger.Debug("end of input, waiting for running downloads")
				continue
			}
			if c.handleLine(line) {
				return nil
			}

		case <-ticker.C:
			c.tick()
			if drain && !c.list.Running() {
				return nil
			}
		}
	}
}

// readLines forwards input lines until EOF or done is closed. A Read
// already blocked in c.in is not interrupted.
func (c *Console) readLines(done <-chan struct{}, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("failed to read input", zap.Error(err))
	}
}

// tick collects results and prints the paced status table
func (c *Console) tick() {
	for _, entry := range c.list.Poll() {
		c.printf("%s %s: %s\n", finishMark(entry), displayName(entry.Filepath, entry.URL), entry.Stage)
	}

	if c.list.Running() {
		if ok, _ := c.status.Allow(); ok {
			c.printStatus()
		}
	}
}

// handleLine executes one input line and reports whether to quit
func (c *Console) handleLine(line string) bool {
	cmd, err := ParseCommand(line)
	if err != nil {
		c.printf("error: %v\n", err)
		return false
	}

	switch cmd.Op {
	case OpNone:
	case OpQuit:
		return true
	case OpHelp:
		c.printf("%s\n", helpText)
	case OpAdd:
		if err := c.list.Append(cmd.URL); err != nil {
			c.printf("error: %v\n", err)
			return false
		}
		c.printf("queued #%d %s\n", c.list.Len(), cmd.URL)
	case OpStop:
		c.onIndex(cmd, "stopping", c.list.Stop)
	case OpAbort:
		c.onIndex(cmd, "aborting", c.list.Abort)
	case OpResume:
		c.onIndex(cmd, "resuming", c.list.Resume)
	case OpSelect:
		c.onIndex(cmd, "selected", c.list.Select)
	case OpList:
		c.printStatus()
		c.status.Defer()
	case OpFinished:
		c.printFinished()
	case OpHistory:
		c.printHistory(cmd.Limit)
	case OpStats:
		c.printStats()
	}
	return false
}

func (c *Console) onIndex(cmd Command, verb string, op func(int) error) {
	idx := cmd.Index
	if idx == SelectedIndex {
		selected, ok := c.list.Selected()
		if !ok {
			c.printf("error: no download selected\n")
			return
		}
		idx = selected
	}

	if err := op(idx); err != nil {
		if errors.Is(err, domain.ErrIndexOutOfRange) {
			c.printf("error: no download #%d\n", idx+1)
			return
		}
		c.printf("error: %v\n", err)
		return
	}
	c.printf("%s #%d\n", verb, idx+1)
}

func (c *Console) printStatus() {
	header := fmt.Sprintf("downloads: %d active, %d finished", c.list.Len(), c.list.Finished().Len())
	if c.config.FreeSpace != nil {
		if free, err := c.config.FreeSpace(); err == nil {
			header += ", free " + units.HumanSize(int64(free))
		}
	}
	c.printf("%s\n", header)

	rows := c.list.Rows()
	if len(rows) == 0 {
		return
	}

	selected, hasSelected := c.list.Selected()
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for i, row := range rows {
		mark := " "
		if hasSelected && i == selected {
			mark = ">"
		}
		speed := row.SpeedString()
		if row.Stopped {
			speed = "--"
		}
		fmt.Fprintf(w, "%s%d.\t%s\t%s\t%d%%\t%s\t%s\n",
			mark, i+1, displayName(row.Filepath, row.URL), row.DownloadedString(),
			row.Percent(), speed, row.Status)
	}
	w.Flush()
}

func (c *Console) printFinished() {
	entries := c.list.Finished().Entries()
	if len(entries) == 0 {
		c.printf("no finished downloads\n")
		return
	}

	succeeded, failed := c.list.Finished().Counts()
	c.printf("finished: %d succeeded, %d failed\n", succeeded, failed)
	c.printEntries(entries)
}

func (c *Console) printHistory(limit int) {
	if c.history == nil {
		c.printf("history is disabled (set database.path)\n")
		return
	}

	recorded, err := c.history.List(limit)
	if err != nil {
		c.printf("error: %v\n", err)
		return
	}
	if len(recorded) == 0 {
		c.printf("history is empty\n")
		return
	}

	if succeeded, failed, err := c.history.Counts(); err == nil {
		c.printf("history: %d succeeded, %d failed\n", succeeded, failed)
	}

	entries := make([]domain.FinishedEntry, 0, len(recorded))
	for _, e := range recorded {
		entries = append(entries, *e)
	}
	c.printEntries(entries)
}

func (c *Console) printEntries(entries []domain.FinishedEntry) {
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for i, e := range entries {
		size := "--"
		if e.HasContentLength() {
			size = units.HumanSize(e.ContentLength)
		}
		fmt.Fprintf(w, " %d.\t%s\t%s\t%s\t%s\t%s\n",
			i+1, finishMark(e), displayName(e.Filepath, e.URL), size,
			e.Stage, e.FinishedAt.Local().Format(time.DateTime))
	}
	w.Flush()
}

func (c *Console) printStats() {
	if c.stats == nil {
		c.printf("stats are not available\n")
		return
	}

	stats := c.stats.Stats()
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "bytes_downloaded" {
			c.printf("  %s: %s\n", k, units.HumanSize(stats[k]))
			continue
		}
		c.printf("  %s: %d\n", k, stats[k])
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func finishMark(e domain.FinishedEntry) string {
	if e.Success() {
		return "[ok]"
	}
	return "[failed]"
}

func displayName(path, url string) string {
	if path != "" {
		return filepath.Base(path)
	}
	if url != "" {
		return url
	}
	return "(pending)"
}
