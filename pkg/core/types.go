/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: types.go
Description: Core types for the punk fuzzer. Defines findings, the fuzz configuration and
the collaborator interfaces the engine consumes: the HTTP client, status observers and
telemetry reporters.
*/

package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kleascm/punk-fuzzer/pkg/analysis"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
)

// Finding is a confirmed candidate vulnerability. At most one is produced
// per module per run.
type Finding struct {
	RunID    string    `json:"run_id"`    // Fuzz run that produced the finding
	URL      string    `json:"url"`       // Fully rebuilt URL that triggered the match
	Payload  string    `json:"payload"`   // Payload substituted into the parameter
	VulnType string    `json:"vuln_type"` // Class name, e.g. "xss" or "sqli"
	Param    string    `json:"param"`     // Fuzzed query parameter
	Protocol string    `json:"protocol"`  // URL scheme of the target
	FoundAt  time.Time `json:"found_at"`
}

// Client is the HTTP capability the engine needs
type Client interface {
	analysis.Fetcher
	Head(ctx context.Context, rawURL string) (http.Header, bool)
}

// StatusObserver receives a free-text phase label before each module runs
type StatusObserver interface {
	SetStatus(status string)
}

// StatusFunc adapts a function to StatusObserver
type StatusFunc func(status string)

func (f StatusFunc) SetStatus(status string) { f(status) }

// Config holds the fuzz engine configuration
type Config struct {
	PageSizeLimit         int64                  `json:"pagesize_limit"`          // Gate: maximum Content-Length in bytes
	PageMemoryLoadLimit   int64                  `json:"page_memory_load_limit"`  // Largest body handed to the HTML parser
	AllowedContentTypes   []string               `json:"allowed_content_types"`   // Gate fallback when Content-Length is absent
	FullContentTypeMatch  bool                   `json:"full_content_type_match"` // Require equality instead of containment
	StabilityTolerance    int                    `json:"stability_tolerance"`
	DifferentialThreshold int                    `json:"differential_threshold"`
	Client                execution.ClientConfig `json:"client"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return &Config{
		PageSizeLimit:         2 * 1024 * 1024,
		PageMemoryLoadLimit:   4 * 1024 * 1024,
		AllowedContentTypes:   []string{"text/html", "text/plain", "application/xhtml+xml", "application/xml", "text/xml", "application/json"},
		StabilityTolerance:    analysis.DefaultStabilityTolerance,
		DifferentialThreshold: analysis.DefaultDifferentialThreshold,
		Client:                execution.DefaultClientConfig(),
	}
}

// Validate checks the Config for invalid or missing values
func (c *Config) Validate() error {
	if c.PageSizeLimit <= 0 {
		return fmt.Errorf("pagesize_limit must be positive")
	}
	if c.PageMemoryLoadLimit <= 0 {
		return fmt.Errorf("page_memory_load_limit must be positive")
	}
	if len(c.AllowedContentTypes) == 0 {
		return fmt.Errorf("allowed_content_types must not be empty")
	}
	if c.StabilityTolerance < 0 {
		return fmt.Errorf("stability_tolerance must not be negative")
	}
	if c.DifferentialThreshold < 0 {
		return fmt.Errorf("differential_threshold must not be negative")
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	return nil
}
