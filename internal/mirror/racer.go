// Package mirror picks the fastest of several equivalent media URLs.
//
// Every candidate is probed concurrently by reading a short sample of the
// response body. The first probe to finish its sample wins; the remaining
// probes are cancelled and their cancellation is never reported as an error.
// A failing candidate only drops out of the race; the race fails when every
// candidate has failed.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"volscribe/internal/logging"
)

// DefaultSampleBytes is the probe window read from each candidate.
const DefaultSampleBytes = 256 * 1024

// ErrAllCandidatesFailed is returned when no candidate produced a sample.
var ErrAllCandidatesFailed = errors.New("all mirror candidates failed")

// Result describes the winning candidate.
type Result struct {
	URL            string
	Bytes          int64
	Elapsed        time.Duration
	BytesPerSecond float64
}

// Racer probes candidate URLs.
type Racer struct {
	client      *http.Client
	sampleBytes int64
	timeout     time.Duration
	logger      *slog.Logger
}

// Option configures a Racer.
type Option func(*Racer)

// WithHTTPClient overrides the HTTP client used for probes.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Racer) {
		if client != nil {
			r.client = client
		}
	}
}

// WithSampleBytes overrides the probe window.
func WithSampleBytes(n int64) Option {
	return func(r *Racer) {
		if n > 0 {
			r.sampleBytes = n
		}
	}
}

// WithTimeout bounds the whole race. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(r *Racer) {
		r.timeout = d
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Racer) {
		r.logger = logger
	}
}

// NewRacer constructs a Racer.
func NewRacer(opts ...Option) *Racer {
	r := &Racer{
		client:      http.DefaultClient,
		sampleBytes: DefaultSampleBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "mirror")
	return r
}

type outcome struct {
	result Result
	err    error
}

// Race returns the first candidate to deliver a full sample.
func (r *Racer) Race(ctx context.Context, urls []string) (Result, error) {
	candidates := dedupe(urls)
	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("%w: no candidates", ErrAllCandidatesFailed)
	}

	var (
		raceCtx context.Context
		cancel  context.CancelFunc
	)
	if r.timeout > 0 {
		raceCtx, cancel = context.WithTimeout(ctx, r.timeout)
	} else {
		raceCtx, cancel = context.WithCancel(ctx)
	}

	outcomes := make(chan outcome, len(candidates))
	var group errgroup.Group
	for _, candidate := range candidates {
		candidate := candidate
		group.Go(func() error {
			res, err := r.probe(raceCtx, candidate)
			outcomes <- outcome{result: res, err: err}
			return nil
		})
	}
	go func() {
		_ = group.Wait()
		close(outcomes)
		cancel()
	}()

	failures := make([]error, 0, len(candidates))
	for out := range outcomes {
		if out.err != nil {
			failures = append(failures, out.err)
			r.logger.Debug("mirror candidate dropped", logging.Error(out.err))
			continue
		}
		cancel()
		r.logger.Debug("mirror race won",
			logging.String("url", Redact(out.result.URL)),
			logging.Int("candidates", len(candidates)),
			logging.Duration("elapsed", out.result.Elapsed),
			logging.String("throughput", humanize.Bytes(uint64(out.result.BytesPerSecond))+"/s"),
		)
		return out.result, nil
	}
	return Result{}, fmt.Errorf("%w: %w", ErrAllCandidatesFailed, errors.Join(failures...))
}

func (r *Racer) probe(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", Redact(url), err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", r.sampleBytes-1))

	started := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("probe %s: %w", Redact(url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("probe %s: unexpected status %s", Redact(url), resp.Status)
	}

	n, err := io.CopyN(io.Discard, resp.Body, r.sampleBytes)
	if err != nil && !errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("probe %s: read sample: %w", Redact(url), err)
	}
	if n == 0 {
		return Result{}, fmt.Errorf("probe %s: empty body", Redact(url))
	}
	elapsed := time.Since(started)
	return Result{
		URL:            url,
		Bytes:          n,
		Elapsed:        elapsed,
		BytesPerSecond: float64(n) / max(elapsed.Seconds(), 1e-6),
	}, nil
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
