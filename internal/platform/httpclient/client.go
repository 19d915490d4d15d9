package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nimli/internal/shared"
	"nimli/pkg/retry"
)

// Client is a JSON REST client whose failures are always *shared.RepositoryError.
// Reads are retried for retryable kinds; writes are sent once unless the
// caller marks them idempotent.
type Client struct {
	hc          *stdhttp.Client
	base        *url.URL
	log         *slog.Logger
	headers     map[string]string
	urlRedactor func(*url.URL) string
	retry       retry.Config
	maxBody     int64
	onError     func(*shared.RepositoryError)
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(t time.Duration) Option {
	return func(c *Client) {
		if t > 0 {
			c.hc.Timeout = t
		}
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetries sets the number of retries after the first attempt and the
// initial backoff. Zero disables retries.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retry.MaxAttempts = max(n, 0) + 1
		if backoff > 0 {
			c.retry.InitialDelay = backoff
		}
	}
}

// WithMaxBackoff limits exponential backoff growth.
func WithMaxBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retry.MaxDelay = d
		}
	}
}

// WithHeaders adds default headers to each request.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithURLRedactor sets the URL redactor for logs.
func WithURLRedactor(f func(*url.URL) string) Option {
	return func(c *Client) { c.urlRedactor = f }
}

// WithTransport sets a custom transport.
func WithTransport(rt stdhttp.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.hc.Transport = rt
		}
	}
}

// WithMaxBodySize limits how much of a response body is decoded.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithErrorHook observes every failed call after retries, e.g. for metrics.
func WithErrorHook(f func(*shared.RepositoryError)) Option {
	return func(c *Client) { c.onError = f }
}

// WithSleep replaces the retry timer, for tests.
func WithSleep(after func(time.Duration) <-chan time.Time) Option {
	return func(c *Client) { c.retry.After = after }
}

// New creates a client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("httpclient: base url needs scheme and host")
	}

	tr := stdhttp.DefaultTransport.(*stdhttp.Transport).Clone()
	tr.MaxIdleConnsPerHost = 32
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 10 * time.Second

	rc := retry.DefaultConfig()
	rc.MaxAttempts = 1
	rc.InitialDelay = 200 * time.Millisecond

	c := &Client{
		hc:      &stdhttp.Client{Timeout: 15 * time.Second, Transport: tr},
		base:    base,
		log:     slog.Default(),
		headers: map[string]string{"Accept": "application/json"},
		retry:   rc,
		maxBody: 4 << 20,
	}
	for _, o := range opts {
		o(c)
	}
	c.retry.NextDelay = c.nextDelay
	return c, nil
}

// GetJSON fetches path and decodes the body into out. It is retried.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, stdhttp.MethodGet, path, query, nil, out, true)
}

// PostJSON sends in as a JSON body and decodes the reply into out. Only
// idempotent posts, such as batch reads, are retried.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any, idempotent bool) error {
	return c.send(ctx, stdhttp.MethodPost, path, nil, in, out, idempotent)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in, out any, idempotent bool) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return shared.EncodingError(err)
		}
		body = b
	}
	u, err := c.resolve(path, query)
	if err != nil {
		return shared.EncodingError(err)
	}

	attempt := func(ctx context.Context) error {
		return c.once(ctx, method, u, body, out)
	}
	cfg := c.retry
	if !idempotent {
		cfg.MaxAttempts = 1
	}
	err = retry.DoWithRetryable(ctx, cfg, attempt, shared.IsRetryable)
	if err == nil {
		return nil
	}
	re := shared.MapError(err)
	c.log.Warn("http request failed",
		slog.String("method", method),
		slog.String("url", c.redactURL(u)),
		slog.String("kind", re.Kind.String()),
		slog.Int("code", re.Code()),
		slog.Bool("retryable", re.IsRetryable()),
		slog.Any("error", err))
	if c.onError != nil {
		c.onError(re)
	}
	return re
}

// once performs a single attempt and maps every failure.
func (c *Client) once(ctx context.Context, method string, u *url.URL, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := stdhttp.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return shared.EncodingError(err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	st := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return shared.MapError(err)
	}
	defer drainAndClose(resp.Body)

	c.log.Debug("http request",
		slog.String("method", method),
		slog.String("url", c.redactURL(u)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(st)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return shared.MapError(statusError(resp))
	}
	if out == nil || resp.StatusCode == stdhttp.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxBody)).Decode(out); err != nil {
		return c.decodeFailure(ctx, err)
	}
	return nil
}

// decodeFailure maps a body that could not be decoded. A cut short or
// oversized body is malformed, not a transport failure; only the caller's
// own context can turn it into something else.
func (c *Client) decodeFailure(ctx context.Context, err error) *shared.RepositoryError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return shared.MapError(ctxErr)
	}
	if errors.Is(err, io.EOF) {
		err = errors.New("empty response body")
	} else if errors.Is(err, io.ErrUnexpectedEOF) {
		err = fmt.Errorf("truncated or oversized response body (limit %d bytes): %w", c.maxBody, err)
	}
	return shared.DecodingError(err)
}

// nextDelay honours Retry-After and otherwise backs off exponentially.
func (c *Client) nextDelay(attempt int, err error) (time.Duration, bool) {
	var se *shared.StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return min(se.RetryAfter, c.retry.MaxDelay), true
	}
	return c.retry.Backoff(attempt), true
}

// resolve joins an escaped relative path onto the base URL.
func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, err
	}
	u := c.base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func (c *Client) redactURL(u *url.URL) string {
	if c.urlRedactor != nil {
		return c.urlRedactor(u)
	}
	return u.Redacted()
}

// statusError reads a short diagnostic from an error response.
func statusError(resp *stdhttp.Response) *shared.StatusError {
	se := &shared.StatusError{
		StatusCode: resp.StatusCode,
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var env struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil {
		switch v := env.Error.(type) {
		case string:
			se.Message = v
		case map[string]any:
			if m, ok := v["message"].(string); ok {
				se.Message = m
			}
		}
		if se.Message == "" {
			se.Message = env.Message
		}
		return se
	}
	se.Message = strings.TrimSpace(string(raw))
	if len(se.Message) > 200 {
		se.Message = se.Message[:200]
	}
	return se
}

// retryAfter parses a Retry-After header value.
func retryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		return max(time.Duration(secs)*time.Second, 0)
	}
	if t, err := stdhttp.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

// drainAndClose drains up to 512KB from body and closes it.
func drainAndClose(b io.ReadCloser) {
	if b == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, b, 512<<10)
	_ = b.Close()
}
