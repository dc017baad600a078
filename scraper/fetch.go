package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"rental-scanner/config"
	"rental-scanner/utils"
)

// Fetcher abstracts how a scraper obtains its raw payload. Swapping the
// strategy (plain HTTP vs headless browser) is a per-source configuration
// concern; the dispatcher never sees it.
type Fetcher interface {
	Fetch(ctx context.Context, target QueryTarget) (RawPayload, error)
}

// HTTPFetcher performs paced, retried GET requests over one persistent
// connection pool. Pacing state is fetcher-local and not shared across
// sources.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	delay     time.Duration
	retry     *utils.RetryConfig
	logger    *utils.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// NewHTTPFetcher creates an HTTPFetcher from per-source configuration.
func NewHTTPFetcher(cfg config.SourceConfig, logger *utils.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout()},
		userAgent: cfg.Agent(),
		delay:     cfg.Delay(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.Retries(),
			BaseDelay:   time.Second,
			RetryIf:     isTransient,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Fetch GETs the target URL, honouring the minimum inter-request delay and
// retrying transient failures (429, 5xx, transport errors) with exponential
// backoff. Terminal statuses and exhausted retries yield ErrFetch.
func (f *HTTPFetcher) Fetch(ctx context.Context, target QueryTarget) (RawPayload, error) {
	var payload RawPayload

	err := f.retry.Do(ctx, "GET "+target.URL, func() error {
		f.pace()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")
		for k, v := range target.Header {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &httpStatusError{status: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		payload = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err)
	}

	return payload, nil
}

// pace enforces the minimum delay since the previous request.
func (f *HTTPFetcher) pace() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.delay > 0 {
		if elapsed := time.Since(f.lastRequest); elapsed < f.delay {
			time.Sleep(f.delay - elapsed)
		}
	}
	f.lastRequest = time.Now()
}

type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

// isTransient reports whether an error is worth retrying: HTTP 429, any 5xx,
// or a transport-level failure. Other statuses are terminal.
func isTransient(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == http.StatusTooManyRequests || statusErr.status >= 500
	}
	// Transport errors (DNS, reset connections) are transient.
	return true
}
