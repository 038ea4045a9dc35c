package task

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/request-tui/internal/domain"
	"github.com/vertextoedge/request-tui/internal/port"
)

const (
	// DefaultBufferSize is the size of the buffered file writer
	DefaultBufferSize = 64 * 1024

	// DefaultFilename is used when neither the request nor the response URL
	// names a file
	DefaultFilename = "tmp.bin"

	readChunkSize = 32 * 1024
)

// Resolver performs the HTTP and file work of one attempt
type Resolver struct {
	fs         port.FileSystem
	client     port.HTTPClient
	logger     *zap.Logger
	bufferSize int
}

// Ensure Resolver implements Runner
var _ Runner = (*Resolver)(nil)

// NewResolver creates a new Resolver
func NewResolver(fs port.FileSystem, client port.HTTPClient, logger *zap.Logger, bufferSize int) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Resolver{
		fs:         fs,
		client:     client,
		logger:     logger,
		bufferSize: bufferSize,
	}
}

// Run executes the attempt described by t and reports exactly one result
func (r *Resolver) Run(ctx context.Context, t *Task) {
	start := time.Now()

	var result domain.Result
	switch t.Request.Kind {
	case RequestResume:
		result = r.resume(ctx, t)
	default:
		result = r.download(ctx, t)
	}

	snap := t.State.Snapshot()
	r.logger.Debug("attempt ended",
		zap.String("task_id", snap.ID.String()),
		zap.String("stage", result.Stage.String()),
		zap.String("message", result.Message),
		zap.Int64("downloaded", snap.Downloaded),
		zap.Duration("duration", time.Since(start)))

	t.Report(result)
}

// download runs a fresh attempt for a normal request
func (r *Resolver) download(ctx context.Context, t *Task) domain.Result {
	u, err := normalizeURL(t.Request.URL)
	if err != nil {
		return domain.ResultFromError(err)
	}

	dir := r.fs.DownloadDir()

	resp, err := r.connect(ctx, u.String(), port.NoRange, domain.StageFailToConnection)
	if err != nil {
		return domain.ResultFromError(err)
	}
	defer resp.Body.Close()

	path := r.fs.UniquePath(dir, filenameFor(u, resp))
	finalURL := responseURL(resp, u)

	t.State.Update(func(s *Snapshot) {
		s.Filepath = path
		s.URL = finalURL
		s.ContentLength = contentLength(resp)
		s.AcceptRanges = acceptsRanges(resp)
	})

	r.logger.Info("download started",
		zap.String("task_id", t.State.ID().String()),
		zap.String("url", finalURL),
		zap.String("filepath", path),
		zap.Int64("content_length", contentLength(resp)),
		zap.Bool("accept_ranges", acceptsRanges(resp)))

	file, err := r.fs.Create(path)
	if err != nil {
		return domain.NewStageError(domain.StageFailToCreateFile, err).Result()
	}

	return r.stream(t, resp.Body, file)
}

// resume runs a new attempt on a state left by an earlier one
func (r *Resolver) resume(ctx context.Context, t *Task) domain.Result {
	var (
		rawURL       string
		path         string
		acceptRanges bool
		offset       int64
		contentLen   int64
	)
	t.State.Update(func(s *Snapshot) {
		if !s.AcceptRanges {
			s.Downloaded = 0
		}
		s.resetSampling(time.Now())
		rawURL = s.URL
		path = s.Filepath
		acceptRanges = s.AcceptRanges
		offset = s.Downloaded
		contentLen = s.ContentLength
	})

	file, err := r.prepareResumeFile(path, acceptRanges, offset)
	if err != nil {
		return domain.ResultFromError(err)
	}

	r.logger.Info("resuming download",
		zap.String("task_id", t.State.ID().String()),
		zap.String("filepath", path),
		zap.Bool("accept_ranges", acceptRanges),
		zap.Int64("from_byte", offset))

	if !acceptRanges {
		resp, err := r.connect(ctx, rawURL, port.NoRange, domain.StageFailToResumeConnection)
		if err != nil {
			file.Close()
			return domain.ResultFromError(err)
		}
		defer resp.Body.Close()

		t.State.Update(func(s *Snapshot) {
			s.ContentLength = contentLength(resp)
			s.AcceptRanges = acceptsRanges(resp)
		})
		return r.stream(t, resp.Body, file)
	}

	resp, err := r.client.Get(ctx, rawURL, offset)
	if err != nil {
		file.Close()
		return domain.NewStageError(domain.StageFailToResumeConnection, err).Result()
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && contentLen >= 0 && offset >= contentLen:
		// Everything was already on disk
		if err := file.Close(); err != nil {
			return domain.NewStageError(domain.StageFailToWrite, err).Result()
		}
		return domain.NewResult(domain.StageFinished, "")
	case resp.StatusCode == http.StatusOK && offset > 0:
		file.Close()
		return domain.NewStageError(domain.StageFailToResumeConnection,
			errors.New("server ignored range request")).Result()
	case resp.StatusCode >= http.StatusBadRequest:
		file.Close()
		return domain.NewStageError(domain.StageFailToResumeConnection,
			fmt.Errorf("unexpected status: %s", resp.Status)).Result()
	}

	if n := contentLength(resp); n >= 0 {
		t.State.Update(func(s *Snapshot) {
			s.ContentLength = n + offset
		})
	}

	return r.stream(t, resp.Body, file)
}

// prepareResumeFile restarts the file from zero without range support and
// otherwise cuts it back to offset
func (r *Resolver) prepareResumeFile(path string, acceptRanges bool, offset int64) (io.WriteCloser, error) {
	if !acceptRanges {
		file, err := r.fs.Create(path)
		if err != nil {
			return nil, domain.NewStageError(domain.StageFailToResumeFile, err)
		}
		return file, nil
	}

	file, err := r.fs.OpenForResume(path, offset)
	if err != nil {
		if errors.Is(err, domain.ErrFileChanged) {
			return nil, domain.NewStageError(domain.StageFileCorrupted, err)
		}
		return nil, domain.NewStageError(domain.StageFailToResumeFile, err)
	}
	return file, nil
}

// connect issues the GET and classifies failures under stage
func (r *Resolver) connect(ctx context.Context, rawURL string, rangeStart int64, stage domain.Stage) (*http.Response, error) {
	resp, err := r.client.Get(ctx, rawURL, rangeStart)
	if err != nil {
		return nil, domain.NewStageError(stage, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, domain.NewStageError(stage, fmt.Errorf("unexpected status: %s", resp.Status))
	}
	return resp, nil
}

// stream copies body into file, polling for commands between chunks. A
// chunk read together with a command is not written, so a later resume
// fetches it again from the recorded offset.
func (r *Resolver) stream(t *Task, body io.Reader, file io.WriteCloser) domain.Result {
	defer file.Close()

	w := bufio.NewWriterSize(file, r.bufferSize)
	buf := make([]byte, readChunkSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if result, stop := r.pollCommand(t, w); stop {
				return result
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return domain.NewStageError(domain.StageFailToWrite, err).Result()
			}
			t.State.AddDownloaded(int64(n))
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return domain.NewStageError(domain.StageFailToDownload, readErr).Result()
		}
	}

	if err := w.Flush(); err != nil {
		return domain.NewStageError(domain.StageFailToWrite, err).Result()
	}
	if err := file.Close(); err != nil {
		return domain.NewStageError(domain.StageFailToWrite, err).Result()
	}
	return domain.NewResult(domain.StageFinished, "")
}

// pollCommand checks the command channel without blocking
func (r *Resolver) pollCommand(t *Task, w *bufio.Writer) (domain.Result, bool) {
	select {
	case cmd, ok := <-t.Commands():
		if !ok {
			return domain.NewResult(domain.StageUnknownError, domain.ErrCommandChannelClosed.Error()), true
		}

		if err := w.Flush(); err != nil {
			return domain.NewStageError(domain.StageFailToWrite, err).Result(), true
		}

		r.logger.Debug("command received",
			zap.String("task_id", t.State.ID().String()),
			zap.String("command", cmd.String()))

		if cmd == domain.CommandAbort {
			return domain.NewResult(domain.StageAbort, ""), true
		}
		return domain.NewResult(domain.StageInterrupted, ""), true
	default:
		return domain.Result{}, false
	}
}

// normalizeURL parses raw as an absolute URL, adding "http://" when no
// scheme was given
func normalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" && !hostAsScheme(u, raw) {
		if isHTTP(u) && u.Host == "" {
			return nil, domain.NewStageError(domain.StageUnknownURL,
				fmt.Errorf("failed to parse URL: empty host in %q", raw))
		}
		return u, nil
	}

	if err != nil && !isMissingScheme(err) {
		return nil, domain.NewStageError(domain.StageUnknownURL, fmt.Errorf("failed to parse URL: %w", err))
	}

	u, err = url.Parse("http://" + raw)
	if err != nil {
		return nil, domain.NewStageError(domain.StageUnknownURL, fmt.Errorf("failed to parse URL: %w", err))
	}
	if u.Host == "" {
		return nil, domain.NewStageError(domain.StageUnknownURL,
			fmt.Errorf("failed to parse URL: empty host in %q", raw))
	}
	return u, nil
}

// hostAsScheme matches "host:port/path" inputs that net/url reads as
// scheme "host" with an opaque remainder
func hostAsScheme(u *url.URL, raw string) bool {
	return !isHTTP(u) && (u.Opaque != "" || !strings.Contains(raw, "://"))
}

func isHTTP(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, "http") || strings.EqualFold(u.Scheme, "https")
}

// isMissingScheme matches "host:port/path" inputs that net/url rejects
// because the first segment looks like a scheme-less path with a colon
func isMissingScheme(err error) bool {
	return strings.Contains(err.Error(), "first path segment in URL cannot contain colon")
}

// filenameFor picks the last path segment of the request URL, then of the
// final response URL, then DefaultFilename
func filenameFor(requested *url.URL, resp *http.Response) string {
	if name := lastSegment(requested); name != "" {
		return name
	}
	if resp != nil && resp.Request != nil {
		if name := lastSegment(resp.Request.URL); name != "" {
			return name
		}
	}
	return DefaultFilename
}

func lastSegment(u *url.URL) string {
	if u == nil {
		return ""
	}
	p := u.EscapedPath()
	seg := p[strings.LastIndex(p, "/")+1:]
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	seg = strings.NewReplacer("/", "_", "\\", "_").Replace(seg)
	if seg == "." || seg == ".." {
		return ""
	}
	return seg
}

func responseURL(resp *http.Response, fallback *url.URL) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return fallback.String()
}

// contentLength returns the response length or domain.UnknownLength
func contentLength(resp *http.Response) int64 {
	if resp.ContentLength < 0 {
		return domain.UnknownLength
	}
	return resp.ContentLength
}

func acceptsRanges(resp *http.Response) bool {
	return strings.EqualFold(strings.TrimSpace(resp.Header.Get("Accept-Ranges")), "bytes")
}
