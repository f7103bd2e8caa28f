/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: fuzz.go
Description: Fuzz command implementation for the punk fuzzer. Binds the target URL and
parameter, runs every vulnerability module against it and prints, logs and optionally
saves the findings.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/kleascm/punk-fuzzer/pkg/core"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/monitoring"
	"github.com/kleascm/punk-fuzzer/pkg/target"
	"github.com/kleascm/punk-fuzzer/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	statusColor  = color.New(color.FgBlue)
	findingColor = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// RunFuzz fuzzes one URL and parameter
func RunFuzz(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if viper.GetBool("no_color") {
		color.NoColor = true
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	rawURL := viper.GetString("fuzz.url")
	param := viper.GetString("fuzz.param")
	if rawURL == "" || param == "" {
		return fmt.Errorf("both --url and --param are required")
	}

	cfg, err := buildEngineConfig()
	if err != nil {
		return err
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}

	client, err := execution.NewClient(cfg.Client, logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	engine, err := core.NewEngine(cfg, client, corpus)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	engine.SetLogger(logger.GetLogger())
	engine.AddReporter(core.NewLoggerReporter(logger.GetLogger()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := viper.GetString("fuzz.metrics_addr"); addr != "" {
		prom, err := monitoring.NewPrometheusReporter()
		if err != nil {
			return fmt.Errorf("failed to create metrics reporter: %w", err)
		}
		engine.AddReporter(prom)
		go func() {
			if err := prom.Serve(ctx, addr, logger.GetLogger()); err != nil {
				logger.GetLogger().WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	var opts []target.Option
	if m := viper.GetInt("fuzz.marker"); m > 0 {
		opts = append(opts, target.WithMarker(m))
	}
	t, err := engine.Bind(rawURL, param, opts...)
	if err != nil {
		return err
	}

	headerColor.Println("punk fuzzer")
	fmt.Printf("Target:  %s\n", t.RawURL)
	fmt.Printf("Param:   %s (baseline %q)\n", t.Param, t.Baseline)
	fmt.Printf("Marker:  %d\n\n", t.Marker)
	logger.LogRun(t.RawURL, t.Param)

	run, err := engine.Run(ctx, t, core.StatusFunc(func(status string) {
		statusColor.Printf("-> %s\n", status)
	}))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		warnColor.Println("\nInterrupted, reporting partial results")
	}

	stats := engine.GetStats()
	printFindings(run.Findings, run.Eligible)

	logger.LogSummary(len(run.Findings), stats.Requests, stats.FailedRequests)

	if dir := viper.GetString("fuzz.output"); dir != "" {
		path, err := utils.WriteReport(dir, &utils.Report{
			RunID:    run.RunID,
			URL:      t.RawURL,
			Param:    t.Param,
			Eligible: run.Eligible,
			Findings: run.Findings,
			Stats:    stats,
		})
		if err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", path)
	}
	return nil
}

func printFindings(findings []core.Finding, eligible bool) {
	fmt.Println()
	if !eligible {
		warnColor.Println("Target skipped: HEAD failed or the response is too large or of a disallowed type")
		return
	}
	if len(findings) == 0 {
		okColor.Println("No vulnerabilities found")
		return
	}
	findingColor.Printf("%d finding(s)\n", len(findings))
	for _, f := range findings {
		fmt.Printf("  [%s] %s\n", findingColor.Sprint(f.VulnType), f.URL)
		fmt.Printf("         payload: %s\n", f.Payload)
	}
}
