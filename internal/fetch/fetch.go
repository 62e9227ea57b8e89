// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch performs polite HTTP retrieval with retry and backoff.
// Transport errors and 5xx responses are retried up to the configured
// attempt count with exponential backoff; 4xx responses fail immediately.
// A minimum gap between consecutive requests is enforced here so that no
// caller can forget it.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// Defaults applied when the corresponding config field is zero.
const (
	defaultMaxAttempts = 3
	defaultBackoffBase = 1 * time.Second
	defaultBackoffCap  = 30 * time.Second
	defaultTimeout     = 60 * time.Second
)

// Result is a successfully fetched response body.
type Result struct {
	Body        []byte
	ContentType string

	// Attempts is the number of tries it took, first attempt included.
	Attempts int
}

// RequestError reports a fetch that produced no usable response. Every
// error returned by Get is final: transient failures have already been
// retried away by the time the caller sees one.
type RequestError struct {
	URL      string
	Attempts int

	// Status is the last HTTP status observed, 0 for transport errors.
	Status int

	Err error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d after %d attempt(s)", e.URL, e.Status, e.Attempts)
	}
	return fmt.Sprintf("fetching %s: %v after %d attempt(s)", e.URL, e.Err, e.Attempts)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Fetcher issues throttled GET requests on behalf of the whole pipeline.
// It is not safe for concurrent use; the pipeline is strictly sequential.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
	log    *zap.Logger

	// lastRequest is when the previous request went out, used to
	// enforce cfg.RequestGap across all calls.
	lastRequest time.Time
}

// New builds a Fetcher. Zero config fields fall back to package defaults.
func New(cfg types.FetchConfig, log *zap.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = defaultBackoffCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		log:    log,
	}
}

// Get fetches rawURL, retrying transient failures. On success the full
// body is returned; on failure the error is a *RequestError carrying the
// last observed reason and the attempt count.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Result, error) {
	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		if err := f.throttle(ctx); err != nil {
			return nil, err
		}

		res, status, err := f.once(ctx, rawURL)
		if err == nil {
			f.log.Info("fetched",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Int("bytes", len(res.Body)))
			res.Attempts = attempt
			return res, nil
		}

		// Client errors and malformed responses cannot be retried away.
		if status >= 400 && status < 500 {
			f.log.Warn("fetch rejected",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Int("status", status))
			return nil, &RequestError{URL: rawURL, Attempts: attempt, Status: status, Err: err}
		}

		lastErr = err
		lastStatus = status
		f.log.Warn("fetch attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.Error(err))

		if attempt == f.cfg.MaxAttempts {
			break
		}
		if err := f.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	return nil, &RequestError{URL: rawURL, Attempts: f.cfg.MaxAttempts, Status: lastStatus, Err: lastErr}
}

// once performs a single GET. The returned status is 0 when the request
// never produced a response.
func (f *Fetcher) once(ctx context.Context, rawURL string) (*Result, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// An unbuildable request is a caller bug, reported as 400 so
		// Get fails fast instead of retrying.
		return nil, http.StatusBadRequest, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused before the retry.
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading body: %w", err)
	}

	return &Result{Body: body, ContentType: resp.Header.Get("Content-Type")}, resp.StatusCode, nil
}

// throttle blocks until at least cfg.RequestGap has passed since the
// previous request, then stamps the current request time.
func (f *Fetcher) throttle(ctx context.Context) error {
	if !f.lastRequest.IsZero() {
		if wait := f.cfg.RequestGap - time.Since(f.lastRequest); wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	f.lastRequest = time.Now()
	return nil
}

// backoff waits before retry number attempt+1. The wait starts at
// BackoffBase, doubles per attempt, and never exceeds BackoffCap.
func (f *Fetcher) backoff(ctx context.Context, attempt int) error {
	wait := f.cfg.BackoffBase << (attempt - 1)
	if wait > f.cfg.BackoffCap {
		wait = f.cfg.BackoffCap
	}
	return sleep(ctx, wait)
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
