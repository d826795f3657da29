// Package contestclient is the Go client of the contest API. It keeps to
// the server's protocol: access is checked locally before any gated call,
// a gated action runs at most once at a time, writes are never retried
// blindly, and every successful mutation returns the refetched record.
package contestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Injamhossan/contest-arena/internal/domain"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultReadRetries = 3
)

type Client struct {
	baseURL  string
	http     *http.Client
	sessions SessionStore
	logger   *zap.Logger

	readRetries     uint64
	initialInterval time.Duration

	reads singleflight.Group

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.sessions = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithReadRetries sets how often a failed idempotent read is retried and
// the first backoff interval.
func WithReadRetries(retries uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.readRetries = retries
		c.initialInterval = initial
	}
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            &http.Client{Timeout: defaultTimeout},
		sessions:        NewMemoryStore(),
		logger:          zap.NewNop(),
		readRetries:     defaultReadRetries,
		initialInterval: 200 * time.Millisecond,
		inFlight:        map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session returns the current session, or the zero session when signed out.
func (c *Client) Session() Session {
	state, err := c.sessions.Load()
	if err != nil {
		c.logger.Warn("load session", zap.Error(err))
		return Session{}
	}

	return state.Session()
}

// authorize is the local fail fast check. The server repeats it.
func (c *Client) authorize(action domain.Action, subject domain.Subject) (Session, error) {
	sess := c.Session()
	if err := sess.Authorize(action, subject); err != nil {
		return sess, err
	}

	return sess, nil
}

// begin marks (action, id) as in flight. The returned func releases it.
func (c *Client) begin(action domain.Action, id uint) (func(), error) {
	key := fmt.Sprintf("%s:%d", action, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.inFlight[key]; ok {
		return nil, fmt.Errorf("%s: %w", key, ErrInFlight)
	}
	c.inFlight[key] = struct{}{}

	return func() {
		c.mu.Lock()
		delete(c.inFlight, key)
		c.mu.Unlock()
	}, nil
}

// do sends one request and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("json.Marshal -> %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext -> %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Session().Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, path, ErrTransient, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.signOut()
		}
		return fmt.Errorf("%s %s -> %w", method, path, apiErr)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("json.Unmarshal -> %w", err)
		}
	}

	return nil
}

func (c *Client) signOut() {
	if err := c.sessions.Clear(); err != nil {
		c.logger.Warn("clear session", zap.Error(err))
	}
}

// get is an idempotent read. Identical concurrent reads share one request,
// and transient failures are retried with exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	key := c.readKey(path)

	v, err, _ := c.reads.Do(key, func() (any, error) {
		var raw json.RawMessage
		op := func() error {
			err := c.do(ctx, http.MethodGet, path, nil, &raw)
			if err != nil && !isTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		notify := func(err error, wait time.Duration) {
			c.logger.Debug("retrying read", zap.String("path", path), zap.Duration("wait", wait), zap.Error(err))
		}

		if err := backoff.RetryNotify(op, c.readBackoff(ctx), notify); err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(v.(json.RawMessage), out); err != nil {
		return fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return nil
}

func (c *Client) readKey(path string) string {
	return fmt.Sprintf("%d:%s", c.Session().ActorID, path)
}

// forget makes the next read of each path start a new request instead of
// joining one that began before a mutation.
func (c *Client) forget(paths ...string) {
	for _, path := range paths {
		c.reads.Forget(c.readKey(path))
	}
}

func (c *Client) readBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, c.readRetries), ctx)
}

// write sends a non-idempotent request once. On a transient failure it asks
// landed whether the write took effect anyway, and only when it did not is
// the request sent a second and last time.
func (c *Client) write(ctx context.Context, method, path string, in, out any, landed func(context.Context) (bool, error)) error {
	err := c.do(ctx, method, path, in, out)
	if err == nil || !isTransient(err) || landed == nil {
		return err
	}

	ok, checkErr := landed(ctx)
	if checkErr != nil {
		if !isTransient(checkErr) {
			return checkErr
		}
		return fmt.Errorf("%w (state unknown: %v)", err, checkErr)
	}
	if ok {
		return nil
	}

	c.logger.Info("retrying write once", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return c.do(ctx, method, path, in, out)
}
