package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"restaurant-console-go/internal/metrics"
)

// TokenSource supplies the bearer token and is told when the server
// rejected it.
type TokenSource interface {
	Token() string
	Clear(ctx context.Context) error
}

type Config struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

type Client struct {
	base    string
	http    *http.Client
	tokens  TokenSource
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Request describes one call. Path is server-relative; Body, when set, is
// sent as JSON.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     any
	Headers  map[string]string
	SkipAuth bool
}

func New(cfg Config, tokens TokenSource, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		tokens:  tokens,
		log:     logger,
		metrics: m,
	}
}

// Do performs the request and never returns a Go error: every failure is
// folded into Result.Err.
func (c *Client) Do(ctx context.Context, req Request) Result[json.RawMessage] {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return Fail[json.RawMessage](&ErrorInfo{Message: "unsupported method " + method})
	}

	u := c.base + req.Path
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return Fail[json.RawMessage](&ErrorInfo{Message: "encode body: " + err.Error(), URL: u})
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return Fail[json.RawMessage](&ErrorInfo{Message: err.Error(), URL: u})
	}
	hr.Header.Set("Accept", "application/json")
	if req.Body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	hr.Header.Set("X-Request-ID", uuid.NewString())
	for k, v := range req.Headers {
		hr.Header.Set(k, v)
	}
	if !req.SkipAuth && hr.Header.Get("Authorization") == "" && c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			hr.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(hr)
	if err != nil {
		c.metrics.ObserveAPI(method, 0, time.Since(start))
		c.log.Warn("api transport error", "method", method, "url", u, "err", err)
		msg := err.Error()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			msg = "request aborted: " + msg
		}
		return Fail[json.RawMessage](&ErrorInfo{StatusText: "Unknown Error", Message: msg, URL: u})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.ObserveAPI(method, resp.StatusCode, time.Since(start))
	c.log.Debug("api request", "method", method, "url", u, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		return Fail[json.RawMessage](&ErrorInfo{Status: resp.StatusCode, Message: "read body: " + err.Error(), URL: u})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ei := &ErrorInfo{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Message:    fmt.Sprintf("Http failure response for %s: %d %s", u, resp.StatusCode, http.StatusText(resp.StatusCode)),
			URL:        u,
		}
		if b := bytes.TrimSpace(raw); len(b) > 0 {
			if json.Valid(b) {
				ei.Body = json.RawMessage(b)
			} else {
				ei.Body, _ = json.Marshal(string(b))
			}
		}
		c.log.Warn("api error response", "method", method, "url", u, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil && !req.SkipAuth {
			if err := c.tokens.Clear(ctx); err != nil {
				c.log.Error("clear session after 401", "err", err)
			}
		}
		return Fail[json.RawMessage](ei)
	}

	data, err := Normalize(raw)
	if err != nil {
		return Fail[json.RawMessage](&ErrorInfo{Status: resp.StatusCode, Message: err.Error(), URL: u})
	}
	return Ok(data)
}

func call[T any](ctx context.Context, c *Client, req Request) Result[T] {
	return Decode[T](c.Do(ctx, req))
}

// withFallback retries a lookup once and, if both attempts fail, serves
// the static defaults instead of an error.
func withFallback[T any](ctx context.Context, c *Client, req Request, defaults T) Result[T] {
	var last *ErrorInfo
	for attempt := 0; attempt < 2; attempt++ {
		r := call[T](ctx, c, req)
		if r.OK() {
			return r
		}
		last = r.Err
		if ctx.Err() != nil {
			break
		}
	}
	c.log.Warn("lookup failed, serving defaults", "path", req.Path, "err", last)
	return Ok(defaults)
}

func pathf(format string, args ...any) string {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = url.PathEscape(s)
		}
	}
	return fmt.Sprintf(format, args...)
}
