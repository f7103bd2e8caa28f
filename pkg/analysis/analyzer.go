/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyzer.go
Description: Response evaluation strategies. Each evaluator pulls probes lazily, issues
the requests itself and stops at the first confirmed match, so remaining payloads of a
module are never requested once a match fires.
*/

package analysis

import (
	"context"
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
)

// Fetcher issues a single fuzz request. Failures come back as results with
// the timeout sentinel body, never as errors.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, payload string) execution.Result
}

// Probe is one fuzz request. ControlURL and ControlPayload carry the false
// branch for differential evaluation and are empty otherwise.
type Probe struct {
	URL            string
	Payload        string
	ControlURL     string
	ControlPayload string
}

// Evaluator consumes probes and returns the result that confirmed a
// vulnerability, or nil. The error is only set when ctx is done.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, fetcher Fetcher, probes iter.Seq[Probe]) (*execution.Result, error)
}

// TagScopedMatch parses each response as HTML and looks for a needle in
// the text of every element with the given tag, or in the named attribute
// when Attribute is set.
type TagScopedMatch struct {
	Tag       string
	Attribute string
	Needles   []string

	// MemoryLimit caps the body size handed to the parser. Larger bodies,
	// like unparseable ones, end the evaluation with no match.
	MemoryLimit int64
}

func (m *TagScopedMatch) Name() string { return "TagScopedMatch" }

func (m *TagScopedMatch) Evaluate(ctx context.Context, fetcher Fetcher, probes iter.Seq[Probe]) (*execution.Result, error) {
	for p := range probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := fetcher.Fetch(ctx, p.URL, p.Payload)

		if m.MemoryLimit > 0 && int64(len(res.Body)) > m.MemoryLimit {
			return nil, nil
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
		if err != nil {
			return nil, nil
		}
		if m.matches(doc) {
			return &res, nil
		}
	}
	return nil, ctx.Err()
}

func (m *TagScopedMatch) matches(doc *goquery.Document) bool {
	found := false
	doc.Find(m.Tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var text string
		if m.Attribute != "" {
			text, _ = s.Attr(m.Attribute)
		} else {
			text = s.Text()
		}
		if text == "" {
			return true
		}
		for _, needle := range m.Needles {
			if strings.Contains(text, needle) {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// SubstringMatch looks for any signature anywhere in the lowercased body
type SubstringMatch struct {
	signatures []string
}

// NewSubstringMatch lowercases the signatures once
func NewSubstringMatch(signatures []string) *SubstringMatch {
	lowered := make([]string, len(signatures))
	for i, s := range signatures {
		lowered[i] = strings.ToLower(s)
	}
	return &SubstringMatch{signatures: lowered}
}

func (m *SubstringMatch) Name() string { return "SubstringMatch" }

// Signatures returns the lowercased signatures
func (m *SubstringMatch) Signatures() []string {
	return append([]string(nil), m.signatures...)
}

// Match reports the first signature contained in body
func (m *SubstringMatch) Match(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, sig := range m.signatures {
		if strings.Contains(lower, sig) {
			return sig, true
		}
	}
	return "", false
}

func (m *SubstringMatch) Evaluate(ctx context.Context, fetcher Fetcher, probes iter.Seq[Probe]) (*execution.Result, error) {
	for p := range probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := fetcher.Fetch(ctx, p.URL, p.Payload)
		if _, ok := m.Match(res.Body); ok {
			return &res, nil
		}
	}
	return nil, ctx.Err()
}
