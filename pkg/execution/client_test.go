/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client_test.go
Description: Tests for the timeout-bounded client: normal fetches, sentinel bodies on
failure, hard ceiling enforcement and HEAD handling.
*/

package execution

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, soft, hard time.Duration) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.SoftTimeout = soft
	cfg.HardTimeout = hard
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return c
}

func TestFetchReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "punk-fuzzer/1.0", r.UserAgent())
		fmt.Fprintf(w, "hello %s", r.URL.Query().Get("id"))
	}))
	defer srv.Close()

	c := newTestClient(t, 2*time.Second, 4*time.Second)
	res := c.Fetch(context.Background(), srv.URL+"/?id=5", "5")

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.False(t, res.Failed())
	assert.Equal(t, "hello 5", res.Body)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "5", res.Payload)
}

func TestFetchFailureUsesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := newTestClient(t, time.Second, 2*time.Second)
	res := c.Fetch(context.Background(), addr+"/?id=1", "1")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, TimeoutSentinel, res.Body)
	assert.Error(t, res.Err)
}

func TestSoftTimeoutIsOrdinaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := newTestClient(t, 100*time.Millisecond, time.Second)
	_, err := c.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrHardTimeout))
}

func TestHardTimeoutBoundsAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	// hard below soft so the ceiling fires first
	c := newTestClient(t, 5*time.Second, 100*time.Millisecond)

	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHardTimeout))
	assert.Less(t, elapsed, time.Second)

	res := c.Fetch(context.Background(), srv.URL, "p")
	assert.Equal(t, TimeoutSentinel, res.Body)
	assert.True(t, errors.Is(res.Err, ErrHardTimeout))
}

func TestHardTimeoutCoversRateLimitQueueing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := DefaultClientConfig()
	cfg.SoftTimeout = 200 * time.Millisecond
	cfg.HardTimeout = 300 * time.Millisecond
	cfg.RateLimit = 0.2 // one request every five seconds
	c, err := NewClient(cfg, nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), srv.URL)
	assert.True(t, errors.Is(err, ErrHardTimeout))
}

func TestHeadReturnsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}))
	defer srv.Close()

	c := newTestClient(t, time.Second, 2*time.Second)
	h, ok := c.Head(context.Background(), srv.URL)
	require.True(t, ok)
	assert.Equal(t, "text/html; charset=utf-8", h.Get("Content-Type"))
}

func TestHeadFailureIsNoHeaders(t *testing.T) {
	c := newTestClient(t, 100*time.Millisecond, time.Second)
	h, ok := c.Head(context.Background(), "http://127.0.0.1:1/")
	assert.False(t, ok)
	assert.Nil(t, h)
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(t, time.Second, 2*time.Second)
	_, err := c.Get(ctx, srv.URL)
	assert.Error(t, err)
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{}, nil)
	assert.Error(t, err)

	cfg := DefaultClientConfig()
	cfg.Proxy = "ftp://proxy:21"
	_, err = NewClient(cfg, nil)
	assert.Error(t, err)
}

func TestClientConfigValidate(t *testing.T) {
	cfg := DefaultClientConfig()
	assert.NoError(t, cfg.Validate())

	cfg.HardTimeout = cfg.SoftTimeout
	assert.Error(t, cfg.Validate())

	cfg = DefaultClientConfig()
	cfg.RateLimit = -1
	assert.Error(t, cfg.Validate())
}
