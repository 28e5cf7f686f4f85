// Package client talks to the TransfereGov special-transfers PostgREST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/utils"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.transferegov.gestao.gov.br/transferenciasespeciais"
	DefaultPageSize  = 1000
	DefaultBatchSize = 100
	DefaultCacheTTL  = 5 * time.Minute
)

var ErrStatus = errors.New("unexpected upstream status")

// StatusError carries a non-200 response. It matches ErrStatus with errors.Is.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Config struct {
	BaseURL string
	// Proxies are URL prefixes tried, in order, after the direct endpoint
	// fails. The escaped target URL is appended to the prefix.
	Proxies       []string
	PageSize      int
	BatchSize     int
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration
	CacheTTL      time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		PageSize:      DefaultPageSize,
		BatchSize:     DefaultBatchSize,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryInterval: 500 * time.Millisecond,
		CacheTTL:      DefaultCacheTTL,
	}
}

type Client struct {
	cfg     Config
	http    *http.Client
	cache   *Cache[[]byte]
	limiter *rate.Limiter
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > DefaultBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = def.RetryInterval
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: NewCache[[]byte](cfg.CacheTTL),
		log:   log,
	}
}

func (c *Client) Config() Config { return c.cfg }

// Throttled returns a client sharing this one's cache whose HTTP requests,
// retries and proxy attempts included, wait for a token at rps per second.
// Cache hits are not throttled. rps <= 0 returns c.
func (c *Client) Throttled(rps float64) *Client {
	if rps <= 0 {
		return c
	}
	throttled := *c
	throttled.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	return &throttled
}

func (c *Client) Cache() *Cache[[]byte] { return c.cache }

func (c *Client) endpoints(target string) []string {
	out := make([]string, 0, len(c.cfg.Proxies)+1)
	out = append(out, target)
	for _, p := range c.cfg.Proxies {
		out = append(out, p+url.QueryEscape(target))
	}
	return out
}

// get returns the body for target, from the cache when fresh, otherwise from
// the first endpoint that answers.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	const component = "TransfereGovClient"

	if body, ok := c.cache.Get(target); ok {
		c.log.Debug(component, "Cache hit: url=%s", target)
		return body, nil
	}

	var lastErr error
	for _, endpoint := range c.endpoints(target) {
		body, err := c.getWithRetry(ctx, endpoint)
		if err == nil {
			c.cache.Set(target, body)
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn(component, "Endpoint failed, trying next: endpoint=%s error=%v", endpoint, err)
		lastErr = err
	}

	return nil, fmt.Errorf("all endpoints failed: %w", lastErr)
}

func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval

	var body []byte
	op := func() error {
		var err error
		body, err = c.do(ctx, endpoint)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	return io.ReadAll(resp.Body)
}

// fetchAll pages through resource until a page comes back shorter than the
// page size. Rows read before a failure are returned with the error.
func fetchAll[T any](ctx context.Context, c *Client, resource string, q Query) ([]T, error) {
	var all []T
	for offset := 0; ; offset += c.cfg.PageSize {
		target := c.cfg.BaseURL + "/" + resource + "?" + q.page(c.cfg.PageSize, offset).Encode()

		body, err := c.get(ctx, target)
		if err != nil {
			return all, fmt.Errorf("fetching %s offset=%d: %w", resource, offset, err)
		}

		var page []T
		if err := json.Unmarshal(body, &page); err != nil {
			c.cache.Delete(target)
			return all, fmt.Errorf("decoding %s offset=%d: %w", resource, offset, err)
		}

		all = append(all, page...)
		if len(page) < c.cfg.PageSize {
			return all, nil
		}
	}
}

// fetchBatched runs one paged query per batch of ids with column=in.(...).
// A failed batch keeps the pages read before the failure and the other
// batches still count.
func fetchBatched[T any](ctx context.Context, c *Client, resource, column string, ids []string, q Query) ([]T, error) {
	const component = "TransfereGovClient"

	batches := utils.Chunk(utils.Unique(ids), c.cfg.BatchSize)
	var all []T
	var errs []error
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		rows, err := fetchAll[T](ctx, c, resource, q.clone().Where(column, In(batch)))
		all = append(all, rows...)
		if err != nil {
			c.log.Warn(component, "Batch failed, keeping partial rows: resource=%s batch=%d/%d ids=%d rows=%d error=%v", resource, i+1, len(batches), len(batch), len(rows), err)
			errs = append(errs, fmt.Errorf("%s batch %d: %w", resource, i+1, err))
			continue
		}
		c.log.Debug(component, "Batch done: resource=%s batch=%d/%d rows=%d", resource, i+1, len(batches), len(rows))
	}
	return all, errors.Join(errs...)
}
