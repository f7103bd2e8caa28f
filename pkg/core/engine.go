/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine.go
Description: Fuzz engine implementation. Gates a bound target on its HEAD response, then runs
every vulnerability module in fixed order, one request at a time, containing each module's
failures so the remaining modules still run.
*/

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/punk-fuzzer/pkg/analysis"
	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/kleascm/punk-fuzzer/pkg/target"
	"github.com/sirupsen/logrus"
)

// FuzzStats tracks engine activity across runs
type FuzzStats struct {
	Runs           int64     `json:"runs"`
	SkippedTargets int64     `json:"skipped_targets"`
	Requests       int64     `json:"requests"`
	FailedRequests int64     `json:"failed_requests"`
	Findings       int64     `json:"findings"`
	ModuleErrors   int64     `json:"module_errors"`
	StartTime      time.Time `json:"start_time"`
}

// Engine runs the vulnerability modules against bound targets
type Engine struct {
	config    *Config
	corpus    payloads.Corpus
	client    Client
	logger    *logrus.Logger
	reporters []Reporter

	stats FuzzStats
	mu    sync.Mutex
}

// NewEngine creates an engine. A nil config means DefaultConfig and a nil
// corpus means the built-in payloads.
func NewEngine(config *Config, client Client, corpus payloads.Corpus) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if corpus == nil {
		corpus = payloads.Default()
	}
	if err := corpus.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config: config,
		corpus: corpus,
		client: client,
		logger: logrus.New(),
		stats:  FuzzStats{StartTime: time.Now()},
	}, nil
}

// SetLogger replaces the engine logger
func (e *Engine) SetLogger(logger *logrus.Logger) {
	e.logger = logger
}

// AddReporter registers a telemetry reporter
func (e *Engine) AddReporter(reporter Reporter) {
	e.reporters = append(e.reporters, reporter)
}

// GetStats returns a snapshot of the engine statistics
func (e *Engine) GetStats() FuzzStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Bind binds rawURL and param against the engine's corpus
func (e *Engine) Bind(rawURL, param string, opts ...target.Option) (*target.Target, error) {
	return target.Bind(rawURL, param, e.corpus, opts...)
}

// FuzzURL binds and fuzzes in one step. Binding errors are returned before
// any request is made.
func (e *Engine) FuzzURL(ctx context.Context, rawURL, param string, observer StatusObserver, opts ...target.Option) ([]Finding, error) {
	t, err := e.Bind(rawURL, param, opts...)
	if err != nil {
		return nil, err
	}
	return e.Fuzz(ctx, t, observer)
}

// Eligible runs the fuzz gate against a HEAD of the target
func (e *Engine) Eligible(ctx context.Context, rawURL string) bool {
	headers, ok := e.client.Head(ctx, rawURL)
	if !ok {
		return false
	}
	return analysis.Eligible(headers, e.config.AllowedContentTypes, e.config.PageSizeLimit, e.config.FullContentTypeMatch)
}

// RunResult is the outcome of one fuzz run
type RunResult struct {
	RunID    string    `json:"run_id"`
	Eligible bool      `json:"eligible"`
	Findings []Finding `json:"findings"`
}

// Fuzz runs every module against t and returns the findings in module
// order. The only error returned is ctx's, alongside the findings so far.
func (e *Engine) Fuzz(ctx context.Context, t *target.Target, observer StatusObserver) ([]Finding, error) {
	run, err := e.Run(ctx, t, observer)
	return run.Findings, err
}

// Run is Fuzz with the run id and the gate verdict
func (e *Engine) Run(ctx context.Context, t *target.Target, observer StatusObserver) (*RunResult, error) {
	run := &RunResult{RunID: uuid.New().String()}
	log := e.logger.WithFields(logrus.Fields{
		"run_id": run.RunID,
		"url":    t.RawURL,
		"param":  t.Param,
	})

	e.mu.Lock()
	e.stats.Runs++
	e.mu.Unlock()

	if !e.Eligible(ctx, t.RawURL) {
		e.mu.Lock()
		e.stats.SkippedTargets++
		e.mu.Unlock()
		log.Info("Target not fuzz-worthy, skipping")
		return run, ctx.Err()
	}
	run.Eligible = true

	log.WithField("marker", t.Marker).Info("Starting fuzz run")

	for _, module := range Modules() {
		if observer != nil {
			observer.SetStatus(module.Label)
		}

		finding, err := e.runModule(ctx, run.RunID, module, t)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.WithError(err).Warn("Fuzz run cancelled")
				return run, err
			}
			e.mu.Lock()
			e.stats.ModuleErrors++
			e.mu.Unlock()
			log.WithError(err).WithField("module", module.Class).Error("Module failed")
			continue
		}
		if finding != nil {
			run.Findings = append(run.Findings, *finding)
		}
	}

	log.WithField("findings", len(run.Findings)).Info("Fuzz run complete")
	return run, nil
}

// runModule runs one module to completion. A panic inside the module is
// converted into an error so it cannot abort the run.
func (e *Engine) runModule(ctx context.Context, runID string, module Module, t *target.Target) (finding *Finding, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			finding, err = nil, fmt.Errorf("module %s panicked: %v", module.Class, r)
		}
		for _, rep := range e.reporters {
			rep.OnModuleFinished(module.Class, finding != nil, time.Since(start))
		}
	}()

	fetcher := &reportingFetcher{engine: e, class: module.Class}
	evaluator := module.Evaluator(t, e.config)

	e.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"module":    module.Class,
		"evaluator": evaluator.Name(),
	}).Debug("Running module")

	res, err := evaluator.Evaluate(ctx, fetcher, module.Probes(t))
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	finding = &Finding{
		RunID:    runID,
		URL:      res.URL,
		Payload:  res.Payload,
		VulnType: string(module.Class),
		Param:    t.Param,
		Protocol: t.Protocol,
		FoundAt:  time.Now(),
	}

	e.mu.Lock()
	e.stats.Findings++
	e.mu.Unlock()
	for _, rep := range e.reporters {
		rep.OnFinding(finding)
	}
	return finding, nil
}

// reportingFetcher counts requests and notifies reporters
type reportingFetcher struct {
	engine *Engine
	class  payloads.Class
}

func (f *reportingFetcher) Fetch(ctx context.Context, rawURL, payload string) execution.Result {
	res := f.engine.client.Fetch(ctx, rawURL, payload)

	f.engine.mu.Lock()
	f.engine.stats.Requests++
	if res.Failed() {
		f.engine.stats.FailedRequests++
	}
	f.engine.mu.Unlock()

	for _, rep := range f.engine.reporters {
		rep.OnRequest(f.class, &res)
	}
	return res
}
