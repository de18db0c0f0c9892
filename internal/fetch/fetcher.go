package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockquote/internal/metrics"
	"stockquote/internal/quote"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=fetch_test -destination=mock_http_client_test.go -source=fetcher.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls how quote pages are fetched.
type Config struct {
	// ProxyEnabled routes requests through the proxy chain. When disabled a
	// single direct request is made with the descriptive UserAgent.
	ProxyEnabled bool
	// PrimaryProxy is tried first; the target URL is query-escaped and
	// appended to it.
	PrimaryProxy string
	// FallbackProxies are tried in listed order after the primary fails.
	FallbackProxies []string
	// AttemptTimeout bounds each individual attempt. Every proxy gets a
	// fresh deadline; cancellation does not carry across attempts.
	AttemptTimeout time.Duration
	// UserAgent identifies the client on direct requests.
	UserAgent string
}

// Fetcher retrieves raw quote page HTML, directly or via the proxy chain.
type Fetcher struct {
	cfg    Config
	client HTTPClient
	log    *zap.Logger
}

// Option is a configuration option for the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for all attempts.
func WithHTTPClient(c HTTPClient) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger used for fallback progression warnings.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

func New(cfg Config, options ...Option) *Fetcher {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	f := &Fetcher{cfg: cfg, client: http.DefaultClient, log: zap.NewNop()}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// minBodyLength rejects truncated or empty pages regardless of content.
const minBodyLength = 500

// maxBodyBytes caps how much of a response is read into memory.
const maxBodyBytes = 5 << 20

// blockMarkers are lowercase substrings of known block pages: CORS failures
// surfaced as proxy error bodies, CAPTCHA challenges and rate-limit pages.
var blockMarkers = []string{
	"blocked by cors",
	"cors policy",
	"captcha",
	"unusual traffic",
	"rate limit",
	"access denied",
}

// Fetch returns the raw HTML for target. With proxying enabled it tries the
// primary proxy then each fallback in order; the first success wins. When
// every attempt fails the errors are aggregated under ErrAllProxiesExhausted.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	if !f.cfg.ProxyEnabled {
		return f.attempt(ctx, target, "direct")
	}

	proxies := make([]string, 0, 1+len(f.cfg.FallbackProxies))
	if f.cfg.PrimaryProxy != "" {
		proxies = append(proxies, f.cfg.PrimaryProxy)
	}
	proxies = append(proxies, f.cfg.FallbackProxies...)
	if len(proxies) == 0 {
		return f.attempt(ctx, target, "direct")
	}

	var attemptErrs []string
	for i, p := range proxies {
		if i > 0 {
			metrics.ProxyFallbacks.Inc()
		}
		body, err := f.attempt(ctx, p+url.QueryEscape(target), "proxy")
		if err == nil {
			return body, nil
		}
		f.log.Warn("proxy attempt failed",
			zap.String("proxy", p),
			zap.Int("attempt", i+1),
			zap.Error(err))
		attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", p, err))
		if ctx.Err() != nil {
			// Parent context gone; further attempts cannot succeed.
			break
		}
	}
	return "", fmt.Errorf("%w: %s", quote.ErrAllProxiesExhausted, strings.Join(attemptErrs, "; "))
}

// attempt performs one request under its own timeout. The timeout context is
// released on every exit path.
func (f *Fetcher) attempt(ctx context.Context, rawURL, route string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.AttemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if route == "direct" && f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	metrics.FetchAttempts.WithLabelValues(route).Inc()
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.FetchErrors.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("timed out after %s: %w", f.cfg.AttemptTimeout, err)
		}
		metrics.FetchErrors.WithLabelValues("network").Inc()
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.FetchErrors.WithLabelValues("status").Inc()
		return "", &quote.StatusError{Code: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.FetchErrors.WithLabelValues("timeout").Inc()
			return "", fmt.Errorf("timed out after %s: %w", f.cfg.AttemptTimeout, err)
		}
		metrics.FetchErrors.WithLabelValues("network").Inc()
		return "", fmt.Errorf("reading body: %w", err)
	}

	body := string(b)
	if err := validateBody(body); err != nil {
		return "", err
	}
	return body, nil
}

// validateBody rejects bodies that cannot be a real quote page: too short to
// be complete, or containing a block-page marker.
func validateBody(body string) error {
	if len(body) < minBodyLength {
		metrics.FetchErrors.WithLabelValues("incomplete").Inc()
		return fmt.Errorf("%w: %d bytes", quote.ErrIncompleteBody, len(body))
	}
	lower := strings.ToLower(body)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			metrics.FetchErrors.WithLabelValues("blocked").Inc()
			return fmt.Errorf("%w: matched %q", quote.ErrBlocked, m)
		}
	}
	return nil
}
