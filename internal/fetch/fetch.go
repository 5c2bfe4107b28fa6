// Package fetch streams media to disk. Bytes are written to a hidden temp
// file next to the destination and renamed into place only after the whole
// body arrived, so a partially downloaded volume never looks downloaded.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"volscribe/internal/fileutil"
	"volscribe/internal/logging"
	"volscribe/internal/mirror"
)

// FetchError reports a failed download of URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", mirror.Redact(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Racer chooses among equivalent candidate URLs.
type Racer interface {
	Race(ctx context.Context, urls []string) (mirror.Result, error)
}

// Fetcher downloads media files.
type Fetcher struct {
	client   *http.Client
	racer    Racer
	logger   *slog.Logger
	progress io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRacer sets the racer consulted when several candidates are available.
func WithRacer(r Racer) Option {
	return func(f *Fetcher) {
		f.racer = r
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithProgressBar renders an interactive progress bar on w. Without it, or
// when w is not a terminal, progress is reported through sampled log lines.
func WithProgressBar(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// New constructs a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	if f.racer == nil {
		f.racer = mirror.NewRacer(mirror.WithHTTPClient(f.client), mirror.WithLogger(f.logger))
	}
	return f
}

// FetchVolume downloads one of several equivalent candidates to dest. With
// more than one candidate the fastest mirror is chosen first.
func (f *Fetcher) FetchVolume(ctx context.Context, candidates []string, dest string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("fetch %s: %w", filepath.Base(dest), mirror.ErrAllCandidatesFailed)
	case 1:
		return f.Fetch(ctx, candidates[0], dest)
	}
	winner, err := f.racer.Race(ctx, candidates)
	if err != nil {
		return "", err
	}
	return f.Fetch(ctx, winner.URL, dest)
}

// Fetch streams url to dest and returns dest.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (string, error) {
	logger := logging.WithContext(ctx, f.logger)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	total := resp.ContentLength
	if total <= 0 {
		logger.Info("downloading (unknown size)", logging.String("destination", dest))
	} else {
		logger.Info("downloading",
			logging.String("destination", dest),
			logging.String("size", humanize.IBytes(uint64(total))),
		)
	}

	out, err := fileutil.CreateAtomic(dest, 0o644)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	reporter := f.newReporter(logger, total, filepath.Base(dest))
	written, err := io.Copy(io.MultiWriter(out, reporter), resp.Body)
	reporter.Finish()
	if err != nil {
		out.Abort()
		return "", &FetchError{URL: url, Err: fmt.Errorf("stream body: %w", err)}
	}
	if total > 0 && written != total {
		out.Abort()
		return "", &FetchError{URL: url, Err: fmt.Errorf("short body: got %d of %d bytes", written, total)}
	}
	if err := out.Commit(); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	logger.Info("download complete",
		logging.String("destination", dest),
		logging.String("size", humanize.IBytes(uint64(written))),
	)
	return dest, nil
}

// reporter is an io.Writer that surfaces download progress.
type reporter interface {
	io.Writer
	Finish()
}

func (f *Fetcher) newReporter(logger *slog.Logger, total int64, name string) reporter {
	if file, ok := f.progress.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		return &barReporter{bar: progressbar.DefaultBytes(total, "downloading "+name)}
	}
	return &logReporter{
		logger:  logger,
		total:   total,
		sampler: logging.NewProgressSampler(10),
	}
}

type barReporter struct {
	bar *progressbar.ProgressBar
}

func (b *barReporter) Write(p []byte) (int, error) {
	return b.bar.Write(p)
}

func (b *barReporter) Finish() {
	_ = b.bar.Finish()
}

type logReporter struct {
	logger  *slog.Logger
	total   int64
	done    int64
	sampler *logging.ProgressSampler
}

func (l *logReporter) Write(p []byte) (int, error) {
	l.done += int64(len(p))
	if l.sampler.ShouldLogBytes(l.done, l.total, "download") {
		attrs := []logging.Attr{logging.String("received", humanize.IBytes(uint64(l.done)))}
		if l.total > 0 {
			attrs = append(attrs, logging.Float64("percent", float64(l.done)*100/float64(l.total)))
		}
		l.logger.Debug("download progress", logging.Args(attrs...)...)
	}
	return len(p), nil
}

func (l *logReporter) Finish() {}
