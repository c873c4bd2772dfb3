package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned while an upstream's breaker is open.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is a non-2xx answer from an upstream.
type StatusError struct {
	Upstream string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s upstream status %d", e.Upstream, e.Code)
}

type UpstreamConfig struct {
	Name    string
	BaseURL string
	Path    string
	Timeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration

	// Retries is the number of extra attempts for a failed call; 4xx answers are not retried.
	Retries int
}

// Upstream wraps JSON calls to a collaborator service with a circuit breaker.
type Upstream struct {
	name    string
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	retries int
	metrics *Metrics
}

// NewBreaker trips after fails consecutive failures and reports state changes to m.
func NewBreaker(name string, fails int, openFor, interval time.Duration, m *Metrics) *gobreaker.CircuitBreaker {
	if fails < 1 {
		fails = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("advisor: breaker %s %s -> %s", name, from, to)
			m.SetBreakerState(name, to)
		},
	})
	m.SetBreakerState(name, cb.State())
	return cb
}

func NewUpstream(cfg UpstreamConfig, m *Metrics) *Upstream {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	path := "/" + strings.TrimLeft(strings.TrimSpace(cfg.Path), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	return &Upstream{
		name:    cfg.Name,
		url:     base + path,
		client:  &http.Client{Timeout: timeout},
		breaker: NewBreaker(cfg.Name, cfg.BreakerFailures, cfg.BreakerOpenFor, cfg.BreakerInterval, m),
		retries: retries,
		metrics: m,
	}
}

func (u *Upstream) Name() string { return u.name }

func (u *Upstream) URL() string { return u.url }

func (u *Upstream) State() gobreaker.State { return u.breaker.State() }

// PostJSON sends in as JSON and decodes the answer into out.
// The whole retry sequence counts as one call for the breaker.
func (u *Upstream) PostJSON(ctx context.Context, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s encode: %w", u.name, err)
	}

	_, err = u.breaker.Execute(func() (any, error) {
		return nil, u.postWithRetry(ctx, body, out)
	})
	switch {
	case err == nil:
		u.metrics.ObserveUpstream(u.name, "ok")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		u.metrics.ObserveUpstream(u.name, "rejected")
		return fmt.Errorf("%s: %w", u.name, ErrUnavailable)
	default:
		u.metrics.ObserveUpstream(u.name, "error")
		return err
	}
}

func (u *Upstream) postWithRetry(ctx context.Context, body []byte, out any) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := u.post(ctx, body, out)
		var se *StatusError
		if errors.As(err, &se) && se.Code < 500 {
			return backoff.Permanent(err)
		}
		if err != nil && attempt <= u.retries {
			log.Printf("advisor: %s attempt %d failed: %v", u.name, attempt, err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(u.retries)), ctx))
}

func (u *Upstream) post(ctx context.Context, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("%s request: %w", u.name, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request error: %w", u.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Upstream: u.name, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("%s decode error: %w", u.name, err))
	}
	return nil
}
