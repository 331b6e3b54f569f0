package hoyolab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/sony/gobreaker/v2"
)

const (
	maxResponseBytes = 1 << 20
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ErrSessionClosed is returned by a session used after Close.
var ErrSessionClosed = errors.New("hoyolab: session closed")

// response is what the breaker sees: transport failures, 5xx and 429 trip
// it; API-level retcodes never do.
type response struct {
	status int
	body   []byte
}

// Client talks to the rewards service. One Client is shared by all
// sessions so that they share the connection pool and the breaker.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	logger  *slog.Logger
	now     func() time.Time
	secrets SecretSink

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ checkin.RewardClient = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// SecretSink receives the account tokens in use so that logs can redact them.
type SecretSink interface {
	Set(name, value string)
}

// WithSecretSink registers every opened account token with sink.
func WithSecretSink(sink SecretSink) Option {
	return func(c *Client) { c.secrets = sink }
}

// WithStateObserver is called on every breaker state transition.
func WithStateObserver(fn func(from, to gobreaker.State)) Option {
	return func(c *Client) {
		c.breaker = newBreaker(c.cfg.Breaker, c.logger, fn)
	}
}

// NewClient creates a client. cfg defaults are applied.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		now:    time.Now,
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // DS nonce, not a secret
	}
	c.breaker = newBreaker(cfg.Breaker, logger, nil)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newBreaker(cfg BreakerConfig, logger *slog.Logger, observe func(from, to gobreaker.State)) *gobreaker.CircuitBreaker[response] {
	return gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "hoyolab",
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if observe != nil {
				observe(from, to)
			}
		},
	})
}

// Open implements checkin.RewardClient. Opening is local: credentials are
// checked by CheckStatus.
func (c *Client) Open(_ context.Context, a checkin.Account) (checkin.Session, error) {
	if !a.Registered() {
		return nil, fmt.Errorf("hoyolab: account %s: %w", a.AccountID, checkin.ErrInvalidCredential)
	}
	if c.secrets != nil {
		c.secrets.Set("hoyolab.token."+a.AccountID, a.Token)
	}
	return &session{client: c, cookie: cookieHeader(a)}, nil
}

// cookieHeader builds the session cookie. v2 tokens use the v2 cookie names.
func cookieHeader(a checkin.Account) string {
	if strings.HasPrefix(a.Token, "v2_") {
		return "ltuid_v2=" + a.AccountID + "; ltoken_v2=" + a.Token
	}
	return "ltuid=" + a.AccountID + "; ltoken=" + a.Token
}

func (c *Client) dynamicSecret() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return dynamicSecret(c.cfg.DSSalt, c.now(), c.rnd)
}

// call performs one API request through the breaker and decodes the
// envelope. A non-zero retcode becomes an *APIError.
func call[T any](ctx context.Context, c *Client, method, endpoint string, query url.Values, cookie string, body any, header http.Header) (T, error) {
	var zero T

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return zero, fmt.Errorf("hoyolab: marshal request: %w", err)
		}
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	resp, err := c.breaker.Execute(func() (response, error) {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Cookie", cookie)
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Referer", "https://act.hoyolab.com/")
		req.Header.Set("x-rpc-language", c.cfg.Lang)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		r, err := c.http.Do(req)
		if err != nil {
			return response{}, err
		}
		defer func() { _ = r.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(r.Body, maxResponseBytes))
		if err != nil {
			return response{}, err
		}
		if r.StatusCode >= http.StatusInternalServerError || r.StatusCode == http.StatusTooManyRequests {
			return response{status: r.StatusCode}, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return response{status: r.StatusCode, body: data}, nil
	})
	if err != nil {
		return zero, fmt.Errorf("hoyolab: %s %s: %w", method, stripQuery(endpoint), err)
	}
	if resp.status < 200 || resp.status > 299 {
		return zero, fmt.Errorf("hoyolab: %s %s: unexpected status %d", method, stripQuery(endpoint), resp.status)
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.body, &env); err != nil {
		return zero, fmt.Errorf("hoyolab: decode response: %w", err)
	}
	if env.Retcode != 0 {
		return zero, &APIError{Retcode: env.Retcode, Message: env.Message}
	}
	return env.Data, nil
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
