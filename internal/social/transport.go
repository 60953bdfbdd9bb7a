package social

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/filippog/doaddoad/internal/logging"
)

const (
	defaultMaxRetries = 3
	defaultMaxWait    = 5 * time.Minute

	userAgent = "doaddoad (https://github.com/filippog/doaddoad)"
)

// transport sits under the Mastodon API client. It paces requests, waits
// out HTTP 429 answers and turns error statuses into *APIError, so callers
// can match ErrNotAuthorized and ErrRateLimited whatever the client does
// with the response.
type transport struct {
	base       http.RoundTripper
	limiter    *rate.Limiter
	maxRetries int
	maxWait    time.Duration
	now        func() time.Time
}

func newTransport() *transport {
	return &transport{
		base:       http.DefaultTransport,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		maxRetries: defaultMaxRetries,
		maxWait:    defaultMaxWait,
		now:        time.Now,
	}
}

// RoundTrip sends req, retrying up to maxRetries times while the server
// answers 429. Other error statuses are returned at once.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.Method + " " + req.URL.Path

	for attempt := 0; ; attempt++ {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		r, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		r.Header.Set("User-Agent", userAgent)

		resp, err := t.base.RoundTrip(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 400 {
			return resp, nil
		}

		body := readSnippet(resp)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &APIError{Status: resp.StatusCode, Endpoint: endpoint, Body: body, Err: ErrNotAuthorized}

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= t.maxRetries {
				return nil, &APIError{Status: resp.StatusCode, Endpoint: endpoint, Body: body, Err: ErrRateLimited}
			}
			delay := t.rateLimitDelay(resp.Header, attempt)
			logging.WithPrefix("social").Info("Rate limited, waiting", "endpoint", endpoint, "wait", delay, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}

		default:
			return nil, &APIError{Status: resp.StatusCode, Endpoint: endpoint, Body: body}
		}
	}
}

// rewind returns a copy of req with a fresh body for the given attempt.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(req.Context())
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("%s %s: cannot resend request body", req.Method, req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	r.Body = body
	return r, nil
}

// rateLimitDelay reads how long to wait from Retry-After (seconds or an
// HTTP date) or X-RateLimit-Reset (an ISO 8601 timestamp), falling back to
// exponential backoff. The result is capped at maxWait.
func (t *transport) rateLimitDelay(h http.Header, attempt int) time.Duration {
	delay := time.Duration(1<<attempt) * time.Second

	if ra := h.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil {
			delay = time.Duration(seconds) * time.Second
		} else if at, err := http.ParseTime(ra); err == nil {
			delay = at.Sub(t.now())
		}
	} else if reset := h.Get("X-RateLimit-Reset"); reset != "" {
		if at, err := time.Parse(time.RFC3339, reset); err == nil {
			delay = at.Sub(t.now())
		}
	}

	if delay < 0 {
		delay = 0
	}
	if delay > t.maxWait {
		delay = t.maxWait
	}
	return delay
}

// readSnippet drains and closes the response body, keeping its start for
// error messages.
func readSnippet(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
