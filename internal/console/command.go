package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// Op identifies a console command
type Op int

// Console commands
const (
	OpNone Op = iota
	OpAdd
	OpStop
	OpAbort
	OpResume
	OpSelect
	OpList
	OpFinished
	OpHistory
	OpStats
	OpHelp
	OpQuit
)

// SelectedIndex stands for the selected task when a command omits <n>
const SelectedIndex = -1

// Command is one parsed input line. Index is 0-based.
type Command struct {
	Op    Op
	URL   string
	Index int
	Limit int
}

var opNames = map[string]Op{
	"add":      OpAdd,
	"a":        OpAdd,
	"stop":     OpStop,
	"s":        OpStop,
	"abort":    OpAbort,
	"x":        OpAbort,
	"resume":   OpResume,
	"r":        OpResume,
	"select":   OpSelect,
	"list":     OpList,
	"ls":       OpList,
	"finished": OpFinished,
	"f":        OpFinished,
	"history":  OpHistory,
	"stats":    OpStats,
	"help":     OpHelp,
	"?":        OpHelp,
	"quit":     OpQuit,
	"q":        OpQuit,
	"exit":     OpQuit,
}

const helpText = `commands:
  add <url>     queue a download (a bare URL works too)
  stop [n]      stop download n, or the selected one
  abort [n]     abort download n; a stopped download moves to finished
  resume [n]    resume a stopped download
  select <n>    select download n
  list          show active downloads
  finished      show finished downloads
  history [n]   show the last n recorded downloads
  stats         show session counters
  help          show this help
  quit          exit`

// ParseCommand parses one input line. A blank line yields OpNone.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Op: OpNone}, nil
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]

	op, ok := opNames[name]
	if !ok {
		if looksLikeURL(fields[0]) && len(args) == 0 {
			return Command{Op: OpAdd, URL: fields[0]}, nil
		}
		return Command{}, fmt.Errorf("unknown command %q: %w", fields[0], domain.ErrInvalidInput)
	}

	cmd := Command{Op: op, Index: SelectedIndex}
	switch op {
	case OpAdd:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: add <url>: %w", domain.ErrInvalidInput)
		}
		cmd.URL = args[0]

	case OpStop, OpAbort, OpResume:
		if len(args) > 1 {
			return Command{}, fmt.Errorf("usage: %s [n]: %w", name, domain.ErrInvalidInput)
		}
		if len(args) == 1 {
			idx, err := parseIndex(args[0])
			if err != nil {
				return Command{}, err
			}
			cmd.Index = idx
		}

	case OpSelect:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: select <n>: %w", domain.ErrInvalidInput)
		}
		idx, err := parseIndex(args[0])
		if err != nil {
			return Command{}, err
		}
		cmd.Index = idx

	case OpHistory:
		if len(args) > 1 {
			return Command{}, fmt.Errorf("usage: history [n]: %w", domain.ErrInvalidInput)
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return Command{}, fmt.Errorf("invalid count %q: %w", args[0], domain.ErrInvalidInput)
			}
			cmd.Limit = n
		}

	default:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%s takes no arguments: %w", name, domain.ErrInvalidInput)
		}
	}

	return cmd, nil
}

// parseIndex converts a 1-based user index to a 0-based one
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid index %q: %w", s, domain.ErrInvalidInput)
	}
	return n - 1, nil
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "://") || strings.Contains(s, ".") || strings.Contains(s, "/")
}
