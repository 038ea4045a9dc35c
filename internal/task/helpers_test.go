package task

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vertextoedge/request-tui/internal/adapter/filesystem"
	"github.com/vertextoedge/request-tui/internal/adapter/httpclient"
	"github.com/vertextoedge/request-tui/internal/domain"
)

const waitTimeout = 5 * time.Second

// payload returns n deterministic bytes
func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

// rangeServer serves data and honors "Range: bytes=N-" when acceptRanges
// is set. With a gate, full-body responses pause after pauseAt bytes until
// the gate is closed.
type rangeServer struct {
	data         []byte
	acceptRanges bool
	gate         chan struct{}
	pauseAt      int
	abortAt      int // drop the connection after this many bytes when > 0

	mu       sync.Mutex
	requests int
	ranges   []string
}

func (s *rangeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rangeHeader := r.Header.Get("Range")
	s.mu.Lock()
	s.requests++
	s.ranges = append(s.ranges, rangeHeader)
	s.mu.Unlock()

	start := 0
	status := http.StatusOK
	if s.acceptRanges {
		w.Header().Set("Accept-Ranges", "bytes")
		if rangeHeader != "" {
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(rangeHeader, "bytes="), "-"))
			if err != nil || n > len(s.data) {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return
			}
			if n == len(s.data) {
				w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", len(s.data)))
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return
			}
			start = n
			status = http.StatusPartialContent
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(s.data)-1, len(s.data)))
		}
	}

	body := s.data[start:]
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	if s.abortAt > 0 && start == 0 {
		w.Write(body[:s.abortAt])
		w.(http.Flusher).Flush()
		panic(http.ErrAbortHandler)
	}

	if s.gate != nil && start == 0 {
		w.Write(body[:s.pauseAt])
		w.(http.Flusher).Flush()
		select {
		case <-s.gate:
		case <-r.Context().Done():
			return
		}
		body = body[s.pauseAt:]
	}

	w.Write(body)
}

func (s *rangeServer) seenRanges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

func (s *rangeServer) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func newRangeServer(t *testing.T, s *rangeServer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return srv
}

func newTestResolver(t *testing.T) (*Resolver, *filesystem.Manager) {
	t.Helper()
	fs, err := filesystem.NewManager(t.TempDir())
	require.NoError(t, err)
	return NewResolver(fs, httpclient.New(nil), zaptest.NewLogger(t), 0), fs
}

// runAttempt runs one attempt synchronously and returns its result
func runAttempt(t *testing.T, r *Resolver, task *Task) domain.Result {
	t.Helper()
	done := make(chan struct{})
	go func() {
		r.Run(t.Context(), task)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("attempt did not finish")
	}

	result, ok := <-task.results
	require.True(t, ok, "result channel closed without a value")
	_, ok = <-task.results
	require.False(t, ok, "result channel left open")
	return result
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// failingWriter fails every write
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, io.ErrShortWrite }
func (failingWriter) Close() error                { return nil }

// fakeFS wraps a real manager and injects failures
type fakeFS struct {
	*filesystem.Manager
	createErr  error
	failWrites bool
}

func (f *fakeFS) Create(path string) (io.WriteCloser, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.failWrites {
		return failingWriter{}, nil
	}
	return f.Manager.Create(path)
}

// sizeProbeClient records the destination file size when each request is made
type sizeProbeClient struct {
	*httpclient.Client
	path  string
	sizes []int64
}

func (c *sizeProbeClient) probe() {
	info, err := os.Stat(c.path)
	if err != nil {
		c.sizes = append(c.sizes, -1)
		return
	}
	c.sizes = append(c.sizes, info.Size())
}

func (c *sizeProbeClient) Get(ctx context.Context, rawURL string, rangeStart int64) (*http.Response, error) {
	c.probe()
	return c.Client.Get(ctx, rawURL, rangeStart)
}
