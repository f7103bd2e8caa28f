/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: differential.go
Description: Differential length evaluation for blind injection and the stability check
that guards it. A true-branch response noticeably longer than its false-branch twin is
reported, but only when the endpoint returns consistent sizes for identical requests.
*/

package analysis

import (
	"context"
	"iter"
	"unicode/utf8"

	"github.com/kleascm/punk-fuzzer/pkg/execution"
)

// Defaults for the blind injection module
const (
	DefaultDifferentialThreshold = 10
	DefaultStabilityTolerance    = 10
)

// DifferentialLengthMatch compares paired true/false probes by body length
type DifferentialLengthMatch struct {
	Threshold int
	Tolerance int
}

func (m *DifferentialLengthMatch) Name() string { return "DifferentialLengthMatch" }

// Evaluate checks stability once, against the first probe's true branch,
// then compares each pair until one fires
func (m *DifferentialLengthMatch) Evaluate(ctx context.Context, fetcher Fetcher, probes iter.Seq[Probe]) (*execution.Result, error) {
	checked := false
	for p := range probes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !checked {
			checked = true
			if !IsStable(ctx, fetcher, p.URL, p.Payload, m.Tolerance) {
				return nil, ctx.Err()
			}
		}

		trueRes := fetcher.Fetch(ctx, p.URL, p.Payload)
		falseRes := fetcher.Fetch(ctx, p.ControlURL, p.ControlPayload)
		if LengthDiffers(bodyLen(trueRes.Body), bodyLen(falseRes.Body), m.Threshold) {
			return &trueRes, nil
		}
	}
	return nil, ctx.Err()
}

// LengthDiffers reports whether the true branch exceeds the false branch
// by more than threshold
func LengthDiffers(trueLen, falseLen, threshold int) bool {
	return trueLen > falseLen+threshold
}

// IsStable issues the same request twice and compares the results
func IsStable(ctx context.Context, fetcher Fetcher, rawURL, payload string, tolerance int) bool {
	first := fetcher.Fetch(ctx, rawURL, payload)
	second := fetcher.Fetch(ctx, rawURL, payload)
	return Stable(first, second, tolerance)
}

// Stable is false when either request failed or the lengths differ by
// more than tolerance
func Stable(first, second execution.Result, tolerance int) bool {
	if first.Failed() || second.Failed() ||
		first.Body == execution.TimeoutSentinel || second.Body == execution.TimeoutSentinel {
		return false
	}
	return StableLengths(bodyLen(first.Body), bodyLen(second.Body), tolerance)
}

// StableLengths applies the tolerance window to two body lengths
func StableLengths(first, second, tolerance int) bool {
	return first >= second-tolerance && first <= second+tolerance
}

// bodyLen counts characters, not bytes
func bodyLen(body string) int {
	return utf8.RuneCountInString(body)
}
