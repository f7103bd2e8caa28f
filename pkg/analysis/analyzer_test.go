/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyzer_test.go
Description: Tests for the fuzz gate and the three response evaluation strategies using a
scripted fetcher.
*/

package analysis

import (
	"context"
	"iter"
	"net/http"
	"strings"
	"testing"

	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher answers each URL with a fixed body and records calls
type scriptedFetcher struct {
	bodies  map[string]string
	fail    map[string]bool
	calls   []string
	byURL   func(url string, call int) string
	perCall map[string]int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, rawURL, payload string) execution.Result {
	f.calls = append(f.calls, rawURL)
	if f.perCall == nil {
		f.perCall = make(map[string]int)
	}
	f.perCall[rawURL]++
	if f.fail[rawURL] {
		return execution.Result{URL: rawURL, Payload: payload, Body: execution.TimeoutSentinel, Outcome: execution.OutcomeFailed}
	}
	body := f.bodies[rawURL]
	if f.byURL != nil {
		body = f.byURL(rawURL, f.perCall[rawURL])
	}
	return execution.Result{URL: rawURL, Payload: payload, Body: body, Outcome: execution.OutcomeOK, StatusCode: 200}
}

func probesOf(urls ...string) iter.Seq[Probe] {
	return func(yield func(Probe) bool) {
		for _, u := range urls {
			if !yield(Probe{URL: u, Payload: "p:" + u}) {
				return
			}
		}
	}
}

func pairsOf(pairs ...[2]string) iter.Seq[Probe] {
	return func(yield func(Probe) bool) {
		for _, p := range pairs {
			if !yield(Probe{URL: p[0], Payload: p[0], ControlURL: p[1], ControlPayload: p[1]}) {
				return
			}
		}
	}
}

func TestEligible(t *testing.T) {
	allowed := []string{"text/html"}

	assert.False(t, Eligible(http.Header{}, allowed, 1000, false))
	assert.False(t, Eligible(nil, allowed, 1000, false))

	h := http.Header{}
	h.Set("content-length", "100")
	assert.True(t, Eligible(h, allowed, 1000, false))

	h = http.Header{}
	h.Set("content-length", "100000")
	assert.False(t, Eligible(h, allowed, 1000, false))

	h = http.Header{}
	h.Set("content-type", "text/html")
	assert.True(t, Eligible(h, allowed, 1000, false))
}

func TestEligibleIsStrictPerBranch(t *testing.T) {
	allowed := []string{"text/html"}

	// content-length present and too large: content-type is not consulted
	h := http.Header{}
	h.Set("Content-Length", "5000")
	h.Set("Content-Type", "text/html")
	assert.False(t, Eligible(h, allowed, 1000, false))

	h = http.Header{}
	h.Set("Content-Length", "abc")
	assert.False(t, Eligible(h, allowed, 1000, false))

	h = http.Header{}
	h.Set("Content-Type", "application/pdf")
	assert.False(t, Eligible(h, allowed, 1000, false))

	h = http.Header{}
	h.Set("Content-Type", "text/html; charset=utf-8")
	assert.True(t, Eligible(h, allowed, 1000, false))
	assert.False(t, Eligible(h, allowed, 1000, true))
	assert.True(t, Eligible(h, []string{"text/html; charset=utf-8"}, 1000, true))
}

func TestTagScopedMatchFindsNeedle(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"u1": "<html><body>nothing</body></html>",
		"u2": "<html><script>alert(12345)</script></html>",
		"u3": "<html><script>alert(12345)</script></html>",
	}}
	m := &TagScopedMatch{Tag: "script", Needles: []string{"alert(12345)"}, MemoryLimit: 1 << 20}

	res, err := m.Evaluate(context.Background(), f, probesOf("u1", "u2", "u3"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "u2", res.URL)
	assert.Equal(t, []string{"u1", "u2"}, f.calls)
}

func TestTagScopedMatchWrongMarker(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"u1": "<script>alert(99)</script>",
	}}
	m := &TagScopedMatch{Tag: "script", Needles: []string{"alert(12345)"}}

	res, err := m.Evaluate(context.Background(), f, probesOf("u1"))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTagScopedMatchIgnoresOtherTags(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"u1": "<div>alert(12345)</div>",
	}}
	m := &TagScopedMatch{Tag: "script", Needles: []string{"alert(12345)"}}

	res, err := m.Evaluate(context.Background(), f, probesOf("u1"))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTagScopedMatchAttribute(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"u1": `<img src="x" onerror="alert(7)">`,
	}}
	m := &TagScopedMatch{Tag: "img", Attribute: "onerror", Needles: []string{"alert(7)"}}

	res, err := m.Evaluate(context.Background(), f, probesOf("u1"))
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestTagScopedMatchOversizedAbortsModule(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"big":  strings.Repeat("a", 200),
		"next": "<script>alert(1)</script>",
	}}
	m := &TagScopedMatch{Tag: "script", Needles: []string{"alert(1)"}, MemoryLimit: 100}

	res, err := m.Evaluate(context.Background(), f, probesOf("big", "next"))
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, []string{"big"}, f.calls)
}

func TestSubstringMatch(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"u1": "fine",
		"u2": "Warning: You have an error in your SQL syntax near ''",
		"u3": "you have an error in your sql syntax",
	}}
	m := NewSubstringMatch([]string{"You have an error in your SQL syntax"})

	res, err := m.Evaluate(context.Background(), f, probesOf("u1", "u2", "u3"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "u2", res.URL)
	assert.Len(t, f.calls, 2)
	assert.Equal(t, []string{"you have an error in your sql syntax"}, m.Signatures())
}

func TestSubstringMatchSentinelNeverMatches(t *testing.T) {
	f := &scriptedFetcher{fail: map[string]bool{"u1": true}, bodies: map[string]string{"u2": "root:x:0:0"}}
	m := NewSubstringMatch([]string{"root:x:"})

	res, err := m.Evaluate(context.Background(), f, probesOf("u1", "u2"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "u2", res.URL)
}

func TestEvaluateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &scriptedFetcher{}
	m := NewSubstringMatch([]string{"x"})
	res, err := m.Evaluate(ctx, f, probesOf("u1"))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

func TestStableLengths(t *testing.T) {
	assert.True(t, StableLengths(100, 105, 10))
	assert.True(t, StableLengths(110, 100, 10))
	assert.False(t, StableLengths(100, 200, 10))
	assert.False(t, StableLengths(200, 100, 10))
}

func TestStableRejectsFailures(t *testing.T) {
	ok := execution.Result{Body: "abc", Outcome: execution.OutcomeOK}
	failed := execution.Result{Body: execution.TimeoutSentinel, Outcome: execution.OutcomeFailed}
	assert.True(t, Stable(ok, ok, 10))
	assert.False(t, Stable(ok, failed, 10))
	assert.False(t, Stable(failed, ok, 10))
}

func TestLengthDiffers(t *testing.T) {
	assert.True(t, LengthDiffers(120, 100, 10))
	assert.False(t, LengthDiffers(105, 100, 10))
	assert.False(t, LengthDiffers(110, 100, 10))
}

func TestDifferentialLengthMatchFires(t *testing.T) {
	f := &scriptedFetcher{bodies: map[string]string{
		"t1": strings.Repeat("a", 100),
		"f1": strings.Repeat("a", 100),
		"t2": strings.Repeat("a", 120),
		"f2": strings.Repeat("a", 100),
		"t3": strings.Repeat("a", 500),
		"f3": "",
	}}
	m := &DifferentialLengthMatch{Threshold: 10, Tolerance: 10}

	res, err := m.Evaluate(context.Background(), f, pairsOf([2]string{"t1", "f1"}, [2]string{"t2", "f2"}, [2]string{"t3", "f3"}))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "t2", res.URL)

	// stability check (2) + pair one (2) + pair two (2); pair three never issued
	assert.Equal(t, []string{"t1", "t1", "t1", "f1", "t2", "f2"}, f.calls)
}

func TestDifferentialLengthMatchUnstableAborts(t *testing.T) {
	f := &scriptedFetcher{byURL: func(url string, call int) string {
		if url == "t1" {
			return strings.Repeat("a", 100*call)
		}
		return ""
	}}
	m := &DifferentialLengthMatch{Threshold: 10, Tolerance: 10}

	res, err := m.Evaluate(context.Background(), f, pairsOf([2]string{"t1", "f1"}, [2]string{"t2", "f2"}))
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, []string{"t1", "t1"}, f.calls)
}

func TestDifferentialLengthMatchTimeoutIsUnstable(t *testing.T) {
	f := &scriptedFetcher{fail: map[string]bool{"t1": true}}
	m := &DifferentialLengthMatch{Threshold: 10, Tolerance: 10}

	res, err := m.Evaluate(context.Background(), f, pairsOf([2]string{"t1", "f1"}))
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestDifferentialCountsCharacters(t *testing.T) {
	// 12 multibyte runes are 36 bytes but only 12 characters
	f := &scriptedFetcher{bodies: map[string]string{
		"t1": strings.Repeat("€", 12),
		"f1": "",
	}}
	m := &DifferentialLengthMatch{Threshold: 20, Tolerance: 10}

	res, err := m.Evaluate(context.Background(), f, pairsOf([2]string{"t1", "f1"}))
	require.NoError(t, err)
	assert.Nil(t, res)
}
