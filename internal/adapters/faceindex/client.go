// Package faceindex is an HTTP client for the biometric similarity index
package faceindex

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"datacompliance/internal/platform/config"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUA        = "datacompliance-faceindex"
	defaultMaxRetry  = 4
	defaultRetryBase = 250 * time.Millisecond
	defaultMaxFaces  = 100
	maxBackoff       = 10 * time.Second
)

// Options configures the Client
type Options struct {
	BaseURL    string
	Collection string
	Token      string
	UserAgent  string
	Timeout    time.Duration

	// MaxFaces caps the candidates a search returns
	MaxFaces int

	// Retry config for transport errors and transient responses
	MaxRetries int
	RetryBase  time.Duration
}

// OptionsFromConfig reads FACEINDEX_* settings
func OptionsFromConfig(root config.Conf) Options {
	c := root.Prefix("FACEINDEX_")
	return Options{
		BaseURL:    c.MayString("URL", "http://localhost:8091"),
		Collection: c.MayString("COLLECTION", "offender-images"),
		Token:      c.MayString("TOKEN", ""),
		Timeout:    c.MayDuration("TIMEOUT", defaultTimeout),
		MaxFaces:   c.MayInt("MAX_FACES", defaultMaxFaces),
		MaxRetries: c.MayInt("MAX_RETRIES", defaultMaxRetry),
		RetryBase:  c.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}

// Client talks JSON to the similarity index with bounded retries
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client with defaults filled in
func NewClient(o Options) *Client {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxFaces <= 0 {
		o.MaxFaces = defaultMaxFaces
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("faceindex"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// do sends in as JSON and decodes a 2xx body into out. Transport errors and
// 429/502/503/504 are retried with exponential backoff
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "faceindex encode %s", path)
		}
		body = b
	}

	url := c.opts.BaseURL + path
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnknown, "faceindex new request failed")
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		start := c.now()
		resp, err := c.http.Do(req)
		lat := c.now().Sub(start)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt >= c.opts.MaxRetries {
				return perr.Wrapf(err, perr.ErrorCodeUnavailable, "faceindex %s %s failed", method, path)
			}
			if err := c.backOff(ctx, attempt, "transport error"); err != nil {
				return err
			}
			continue
		}

		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Msg("faceindex http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return decode(resp, out)
		case retryable(resp.StatusCode):
			_ = drainAndClose(resp.Body)
			if attempt >= c.opts.MaxRetries {
				return perr.Newf(perr.ErrorCodeUnavailable, "faceindex %s %s: status %d", method, path, resp.StatusCode)
			}
			if err := c.backOff(ctx, attempt, "transient status"); err != nil {
				return err
			}
			continue
		default:
			return statusError(resp)
		}
	}
}

func (c *Client) backOff(ctx context.Context, attempt int, why string) error {
	d := c.backoff(attempt)
	c.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg("faceindex " + why + " retrying")
	return c.sleep(ctx, d)
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "faceindex read body")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "faceindex decode body")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
