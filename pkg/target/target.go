/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: target.go
Description: Binds a URL/parameter pair into an immutable fuzz target. Binding parses the
query string, extracts the baseline value, draws the run's random marker and resolves the
payload corpus. Rebuild substitutes a payload for the bound parameter while preserving the
order of every other query entry.
*/

package target

import (
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"

	"github.com/kleascm/punk-fuzzer/pkg/payloads"
)

// MarkerMax is the upper bound of the random marker range [1, MarkerMax]
const MarkerMax = 30000

// ErrInvalidTarget is returned when the URL cannot be parsed or the
// parameter is absent from its query string
var ErrInvalidTarget = errors.New("invalid target")

// queryEntry is a single key with its values, in order of appearance
type queryEntry struct {
	key    string
	values []string
}

// Target is a bound URL/parameter pair. It is immutable after Bind.
type Target struct {
	RawURL   string
	Param    string
	Protocol string
	Baseline string
	Marker   int

	base     map[payloads.Class][]string
	parsed   url.URL
	query    []queryEntry
}

// Option customises Bind
type Option func(*bindOptions)

type bindOptions struct {
	marker int
	rng    *rand.Rand
}

// WithMarker pins the random marker instead of drawing one
func WithMarker(marker int) Option {
	return func(o *bindOptions) { o.marker = marker }
}

// WithRand draws the marker from rng
func WithRand(rng *rand.Rand) Option {
	return func(o *bindOptions) { o.rng = rng }
}

// Bind parses rawURL and binds param. The corpus is interpolated with the
// baseline value and the marker; an incomplete corpus yields a
// *payloads.ConfigError.
func Bind(rawURL, param string, corpus payloads.Corpus, opts ...Option) (*Target, error) {
	o := bindOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse url %s: %v", ErrInvalidTarget, rawURL, err)
	}
	if parsed.RawQuery == "" {
		return nil, fmt.Errorf("%w: url %s has no query string", ErrInvalidTarget, rawURL)
	}

	query, err := parseOrderedQuery(parsed.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse query of %s: %v", ErrInvalidTarget, rawURL, err)
	}

	var baseline string
	found := false
	for _, e := range query {
		if e.key == param {
			baseline = e.values[0]
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: parameter %q not in query of %s", ErrInvalidTarget, param, rawURL)
	}

	marker := o.marker
	if marker == 0 {
		if o.rng != nil {
			marker = o.rng.Intn(MarkerMax) + 1
		} else {
			marker = rand.Intn(MarkerMax) + 1
		}
	}

	resolved, err := corpus.Interpolate(baseline, marker)
	if err != nil {
		return nil, err
	}

	return &Target{
		RawURL:   rawURL,
		Param:    param,
		Protocol: parsed.Scheme,
		Baseline: baseline,
		Marker:   marker,
		base:     resolved,
		parsed:   *parsed,
		query:    query,
	}, nil
}

// Rebuild returns the target URL with the bound parameter set to payload.
// The payload is query-escaped during serialization.
func (t *Target) Rebuild(payload string) string {
	var b strings.Builder
	for _, e := range t.query {
		values := e.values
		if e.key == t.Param {
			values = []string{payload}
		}
		for _, v := range values {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(e.key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}

	u := t.parsed
	u.RawQuery = b.String()
	u.ForceQuery = false
	return u.String()
}

// Payloads returns a copy of the interpolated base payloads of class
func (t *Target) Payloads(class payloads.Class) []string {
	return append([]string(nil), t.base[class]...)
}

// QueryKeys returns the query keys in their original order
func (t *Target) QueryKeys() []string {
	keys := make([]string, 0, len(t.query))
	for _, e := range t.query {
		keys = append(keys, e.key)
	}
	return keys
}

// HasQuery reports whether rawURL carries a query string
func HasQuery(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.RawQuery != ""
}

// Params lists the query parameters of rawURL in their original order,
// i.e. the parameters Bind would accept
func Params(rawURL string) ([]string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse url %s: %v", ErrInvalidTarget, rawURL, err)
	}
	query, err := parseOrderedQuery(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	keys := make([]string, 0, len(query))
	for _, e := range query {
		keys = append(keys, e.key)
	}
	return keys, nil
}

// parseOrderedQuery splits on '&' and ';' and remembers key order. Pairs
// with a blank value are dropped and malformed escapes are kept verbatim.
func parseOrderedQuery(raw string) ([]queryEntry, error) {
	var entries []queryEntry
	index := make(map[string]int)

	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ';' })
	for _, part := range parts {
		k, v, _ := strings.Cut(part, "=")
		if v == "" {
			continue
		}
		key, value := unescape(k), unescape(v)
		if i, ok := index[key]; ok {
			entries[i].values = append(entries[i].values, value)
			continue
		}
		index[key] = len(entries)
		entries = append(entries, queryEntry{key: key, values: []string{value}})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no non-blank parameters in query")
	}
	return entries, nil
}

// unescape decodes '+' and every valid %XX sequence, leaving invalid ones as written
func unescape(s string) string {
	s = strings.ReplaceAll(s, "+", " ")
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}
