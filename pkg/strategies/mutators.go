/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: mutators.go
Description: String mutation primitives used to broaden base payloads into the final
payload sequence of each vulnerability class. Every primitive returns a new slice and
never touches its input.
*/

package strategies

import (
	"net/url"
	"strings"
)

// Append adds suffix to every payload. Result is the mutated payloads
// followed by the originals.
func Append(payloads []string, suffix string) []string {
	out := make([]string, 0, 2*len(payloads))
	for _, p := range payloads {
		out = append(out, p+suffix)
	}
	return append(out, payloads...)
}

// Prepend adds prefix to every payload. Result is the mutated payloads
// followed by the originals.
func Prepend(payloads []string, prefix string) []string {
	out := make([]string, 0, 2*len(payloads))
	for _, p := range payloads {
		out = append(out, prefix+p)
	}
	return append(out, payloads...)
}

// Replace substitutes every occurrence of from with to. Only payloads that
// contain from contribute a mutated entry; the originals are always kept
// after the mutated ones.
func Replace(payloads []string, from, to string) []string {
	out := make([]string, 0, 2*len(payloads))
	for _, p := range payloads {
		if from != "" && strings.Contains(p, from) {
			out = append(out, strings.ReplaceAll(p, from, to))
		}
	}
	return append(out, payloads...)
}

// TailReplace replaces up to count occurrences of from, working backwards
// from the end of each payload. Unlike the other primitives only the
// mutated payloads are returned.
func TailReplace(payloads []string, from, to string, count int) []string {
	out := make([]string, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, replaceFromEnd(p, from, to, count))
	}
	return out
}

func replaceFromEnd(s, from, to string, count int) string {
	if from == "" || count <= 0 {
		return s
	}
	var b strings.Builder
	rest := s
	var tail []string
	for i := 0; i < count; i++ {
		idx := strings.LastIndex(rest, from)
		if idx < 0 {
			break
		}
		tail = append(tail, rest[idx+len(from):])
		rest = rest[:idx]
	}
	b.WriteString(rest)
	for i := len(tail) - 1; i >= 0; i-- {
		b.WriteString(to)
		b.WriteString(tail[i])
	}
	return b.String()
}

// PercentEncode returns the originals followed by their percent-encoded
// forms, so the result is exactly twice as long. The query serializer
// encodes again on the wire, so these payloads arrive double-encoded.
func PercentEncode(payloads []string) []string {
	out := make([]string, 0, 2*len(payloads))
	out = append(out, payloads...)
	for _, p := range payloads {
		out = append(out, PercentEncodeSingle(p))
	}
	return out
}

// PercentEncodeSingle encodes one value form-style (space becomes '+')
func PercentEncodeSingle(s string) string {
	return url.QueryEscape(s)
}

// Pair is a blind injection probe: a true-branch payload and its
// false-branch counterpart.
type Pair struct {
	True  string
	False string
}

// BooleanPairs derives the false branch of each base payload by flipping
// its trailing "1" to "2". Each base yields the plain pair followed by the
// percent-encoded pair.
func BooleanPairs(base []string) []Pair {
	pairs := make([]Pair, 0, 2*len(base))
	for _, p := range base {
		falseBranch := TailReplace([]string{p}, "1", "2", 1)[0]
		pairs = append(pairs,
			Pair{True: p, False: falseBranch},
			Pair{True: PercentEncodeSingle(p), False: PercentEncodeSingle(falseBranch)},
		)
	}
	return pairs
}
