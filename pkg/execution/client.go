/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: Timeout-bounded HTTP client. Every attempt runs under the transport's soft
timeout and is additionally bounded by a hard wall-clock ceiling that covers pacing,
dialing, the exchange and the body read. When the ceiling elapses the attempt's context
is cancelled and the caller moves on with ErrHardTimeout.
*/

package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Response is a raw HTTP response with the body read into memory
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Client issues GET and HEAD requests for the fuzzer
type Client struct {
	config  ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewClient creates a client. Redirects are followed like a browser would.
func NewClient(config ClientConfig, logger *logrus.Logger) (*Client, error) {
	if config.SoftTimeout <= 0 || config.HardTimeout <= 0 {
		return nil, fmt.Errorf("client timeouts must be positive")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	proxyCfg, err := ParseProxyURL(config.Proxy)
	if err != nil {
		return nil, err
	}
	transport, err := newTransport(proxyCfg, config.InsecureSkipVerify, config.SoftTimeout)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		http: &http.Client{
			Transport: transport,
			Timeout:   config.SoftTimeout,
		},
		logger: logger,
	}
	if config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}
	return c, nil
}

// Config returns the client configuration
func (c *Client) Config() ClientConfig {
	return c.config
}

// Get fetches rawURL
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.bounded(ctx, http.MethodGet, rawURL)
}

// Head fetches the headers of rawURL. The boolean is false when no headers
// could be obtained; callers must treat that as unknown, not empty.
func (c *Client) Head(ctx context.Context, rawURL string) (http.Header, bool) {
	resp, err := c.bounded(ctx, http.MethodHead, rawURL)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"url": rawURL, "error": err}).Debug("HEAD request failed")
		return nil, false
	}
	return resp.Header, true
}

// Fetch issues a GET for a fuzz payload. Failures are folded into the
// result as OutcomeFailed with TimeoutSentinel as the body.
func (c *Client) Fetch(ctx context.Context, rawURL, payload string) Result {
	start := time.Now()
	resp, err := c.Get(ctx, rawURL)
	result := Result{
		URL:      rawURL,
		Payload:  payload,
		Duration: time.Since(start),
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"url":        rawURL,
			"payload":    payload,
			"hard_limit": errors.Is(err, ErrHardTimeout),
			"error":      err,
		}).Debug("Fuzz request failed")
		result.Outcome = OutcomeFailed
		result.Body = TimeoutSentinel
		result.Err = err
		return result
	}
	result.Outcome = OutcomeOK
	result.StatusCode = resp.StatusCode
	result.Body = resp.Body
	return result
}

type attempt struct {
	resp *Response
	err  error
}

// bounded runs one attempt in its own goroutine and waits at most the
// hard ceiling for it
func (c *Client) bounded(ctx context.Context, method, rawURL string) (*Response, error) {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan attempt, 1)
	go func() {
		resp, err := c.attempt(attemptCtx, method, rawURL)
		done <- attempt{resp: resp, err: err}
	}()

	timer := time.NewTimer(c.config.HardTimeout)
	defer timer.Stop()

	select {
	case a := <-done:
		return a.resp, a.err
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s: %s", ErrHardTimeout, c.config.HardTimeout, rawURL)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) attempt(ctx context.Context, method, rawURL string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	}, nil
}
