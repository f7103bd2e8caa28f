/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for the punk fuzzer: list-modules describes the vulnerability
modules and check reports whether a URL can be fuzzed at all.
*/

package commands

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kleascm/punk-fuzzer/pkg/analysis"
	"github.com/kleascm/punk-fuzzer/pkg/core"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/kleascm/punk-fuzzer/pkg/target"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var moduleDescriptions = map[payloads.Class]string{
	payloads.ClassXSS:       "Reflected script injection, confirmed by alert(<marker>) inside a <script> element",
	payloads.ClassSQLi:      "Error-based SQL injection, confirmed by database error fingerprints",
	payloads.ClassBSQLi:     "Blind SQL injection, confirmed by true/false response length difference",
	payloads.ClassTraversal: "Path traversal, confirmed by leaked /etc/passwd or win.ini content",
	payloads.ClassMXI:       "Mail command injection, confirmed by IMAP/SMTP error strings",
	payloads.ClassXPathI:    "XPath injection, confirmed by XPath engine error fingerprints",
	payloads.ClassOSCI:      "OS command injection, confirmed by leaked /etc/passwd or win.ini content",
}

// ListModules lists the vulnerability modules in the order they run
func ListModules(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}

	headerColor.Println("punk fuzzer modules")
	fmt.Println()
	for i, m := range core.Modules() {
		fmt.Printf("%d. %s\n", i+1, m.Class)
		fmt.Printf("   %s\n", moduleDescriptions[m.Class])
		if m.Class == payloads.ClassBSQLi {
			fmt.Println("   Mutation:  true/false pairs, plain and encoded")
		} else {
			fmt.Printf("   Mutation:  %s\n", m.Recipe.Name())
		}
		fmt.Printf("   Payload templates: %d", len(corpus[m.Class]))
		if len(m.Signatures) > 0 {
			fmt.Printf(", signatures: %d", len(m.Signatures))
		}
		fmt.Println()
		fmt.Println()
	}
	return nil
}

// PerformSelfCheck reports whether a URL has a query string and passes the fuzz gate
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	rawURL := viper.GetString("check.url")
	if rawURL == "" {
		return fmt.Errorf("--url is required")
	}

	cfg, err := buildEngineConfig()
	if err != nil {
		return err
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}
	if err := corpus.Validate(); err != nil {
		warnColor.Printf("Payload corpus: %v\n", err)
	} else {
		okColor.Println("Payload corpus: complete")
	}

	if !target.HasQuery(rawURL) {
		warnColor.Println("Query string:   none, nothing to fuzz")
		return nil
	}
	params, err := target.Params(rawURL)
	if err != nil {
		warnColor.Printf("Query string:   %v\n", err)
		return nil
	}
	fmt.Printf("Parameters:     %s\n", strings.Join(params, ", "))

	client, err := execution.NewClient(cfg.Client, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	headers, ok := client.Head(context.Background(), rawURL)
	if !ok {
		warnColor.Println("HEAD request:   failed, target would be skipped")
		return nil
	}
	fmt.Printf("Content-Length: %s\n", valueOr(headers, "Content-Length"))
	fmt.Printf("Content-Type:   %s\n", valueOr(headers, "Content-Type"))

	if analysis.Eligible(headers, cfg.AllowedContentTypes, cfg.PageSizeLimit, cfg.FullContentTypeMatch) {
		okColor.Println("Fuzz gate:      eligible")
	} else {
		warnColor.Println("Fuzz gate:      not eligible, target would be skipped")
	}
	return nil
}

func valueOr(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return "(absent)"
}
