/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Request results and client configuration for the fuzzing HTTP client.
A failed request never surfaces as an error to evaluators: it becomes a result whose
outcome is failed and whose body is the timeout sentinel.
*/

package execution

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutSentinel replaces the body of any failed request. It matches no
// detection signature.
const TimeoutSentinel = "The request timed out"

// ErrHardTimeout is returned when an attempt outlives the hard ceiling
var ErrHardTimeout = errors.New("request received a hard timeout")

// Outcome classifies a request attempt
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is one fuzz request: the URL sent, the payload it carries and
// either the response body or TimeoutSentinel
type Result struct {
	URL        string        `json:"url"`
	Payload    string        `json:"payload"`
	Body       string        `json:"-"`
	StatusCode int           `json:"status_code"`
	Outcome    Outcome       `json:"outcome"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// Failed reports whether the request did not produce a body
func (r Result) Failed() bool {
	return r.Outcome != OutcomeOK
}

// ClientConfig configures the timeout-bounded client
type ClientConfig struct {
	Proxy              string        `json:"proxy"`
	SoftTimeout        time.Duration `json:"soft_timeout"`
	HardTimeout        time.Duration `json:"hard_timeout"`
	RateLimit          float64       `json:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent          string        `json:"user_agent"`
	InsecureSkipVerify bool          `json:"insecure_skip_verify"`
}

// DefaultClientConfig returns the defaults: a 4s soft timeout and a 10s
// hard ceiling
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		SoftTimeout: 4 * time.Second,
		HardTimeout: 10 * time.Second,
		UserAgent:   "punk-fuzzer/1.0",
	}
}

// Validate checks the ClientConfig for invalid values
func (c *ClientConfig) Validate() error {
	if c.SoftTimeout <= 0 {
		return fmt.Errorf("soft_timeout must be positive")
	}
	if c.HardTimeout <= c.SoftTimeout {
		return fmt.Errorf("hard_timeout (%s) must exceed soft_timeout (%s)", c.HardTimeout, c.SoftTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if _, err := ParseProxyURL(c.Proxy); err != nil {
		return err
	}
	return nil
}
