/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Command-line interface for the punk fuzzer. Wires cobra commands and flags to
viper keys so every option can also come from a config file or PUNK_* environment variables.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/punk-fuzzer/cmd/fuzzer/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "punk-fuzzer",
		Short: "punk fuzzer - single URL parameter vulnerability fuzzer",
		Long: `punk fuzzer injects payloads into one query parameter of a URL and looks for
reflected script injection, SQL injection (error-based and blind), path traversal,
mail command, XPath and OS command injection in the responses.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Configuration file path")
	pf.String("log-level", "info", "Logging level (debug, info, warn, error)")
	pf.Bool("json-logs", false, "Use JSON log format")
	pf.String("log-dir", "./logs", "Log output directory (empty disables log files)")
	pf.String("log-format", "custom", "Log format (text, json, custom)")
	pf.Int("log-max-files", 10, "Maximum number of log files to keep")
	pf.Bool("no-color", false, "Disable colored output")

	pf.String("payloads", "", "YAML payload corpus (default: built-in payloads)")
	pf.String("proxy", "", "Proxy URL (http://, https://, socks5://, socks5h://)")
	pf.Duration("soft-timeout", 4*time.Second, "Per-request transport timeout")
	pf.Duration("hard-timeout", 10*time.Second, "Absolute ceiling per request")
	pf.Float64("rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	pf.String("user-agent", "", "User-Agent header")
	pf.Bool("insecure", false, "Skip TLS certificate verification")
	pf.Int64("pagesize-limit", 0, "Skip targets whose Content-Length reaches this many bytes")
	pf.StringSlice("allowed-content-types", nil, "Content types accepted when Content-Length is absent")
	pf.Bool("full-content-type-match", false, "Require exact Content-Type equality")

	bindFlags(pf.Lookup, map[string]string{
		"config":                       "config",
		"log_level":                    "log-level",
		"json_logs":                    "json-logs",
		"log_dir":                      "log-dir",
		"log_format":                   "log-format",
		"log_max_files":                "log-max-files",
		"no_color":                     "no-color",
		"fuzz.payloads":                "payloads",
		"fuzz.proxy":                   "proxy",
		"fuzz.soft_timeout":            "soft-timeout",
		"fuzz.hard_timeout":            "hard-timeout",
		"fuzz.rate_limit":              "rate-limit",
		"fuzz.user_agent":              "user-agent",
		"fuzz.insecure":                "insecure",
		"fuzz.pagesize_limit":          "pagesize-limit",
		"fuzz.allowed_content_types":   "allowed-content-types",
		"fuzz.full_content_type_match": "full-content-type-match",
	})

	fuzzCmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Fuzz one query parameter of a URL",
		Long: `Fuzz one query parameter of a URL with every vulnerability module in turn.
The target is skipped when its HEAD response is too large or of a disallowed type.`,
		Example: `  punk-fuzzer fuzz --url "http://example.com/item.php?id=3&lang=en" --param id`,
		RunE:    commands.RunFuzz,
	}
	ff := fuzzCmd.Flags()
	ff.String("url", "", "Target URL including its query string (required)")
	ff.String("param", "", "Query parameter to fuzz (required)")
	ff.String("output", "", "Directory for the JSON report")
	ff.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	ff.Int("marker", 0, "Fix the XSS marker instead of drawing one at random")
	ff.Int("stability-tolerance", 10, "Blind SQL: allowed length drift between identical requests")
	ff.Int("differential-threshold", 10, "Blind SQL: length difference that confirms a finding")
	fuzzCmd.MarkFlagRequired("url")
	fuzzCmd.MarkFlagRequired("param")

	bindFlags(ff.Lookup, map[string]string{
		"fuzz.url":                    "url",
		"fuzz.param":                  "param",
		"fuzz.output":                 "output",
		"fuzz.metrics_addr":           "metrics-addr",
		"fuzz.marker":                 "marker",
		"fuzz.stability_tolerance":    "stability-tolerance",
		"fuzz.differential_threshold": "differential-threshold",
	})

	listModulesCmd := &cobra.Command{
		Use:   "list-modules",
		Short: "List the vulnerability modules in the order they run",
		RunE:  commands.ListModules,
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a URL can be fuzzed",
		Long: `Check a URL without fuzzing it: report its query parameters, its HEAD response
and whether it passes the fuzz gate.`,
		RunE: commands.PerformSelfCheck,
	}
	checkCmd.Flags().String("url", "", "URL to check (required)")
	checkCmd.MarkFlagRequired("url")
	viper.BindPFlag("check.url", checkCmd.Flags().Lookup("url"))

	rootCmd.AddCommand(fuzzCmd, listModulesCmd, checkCmd)
	return rootCmd
}

func bindFlags(lookup func(string) *pflag.Flag, keys map[string]string) {
	for key, flag := range keys {
		viper.BindPFlag(key, lookup(flag))
	}
}
