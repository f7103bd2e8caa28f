/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reporter.go
Description: Reporter interface and the logging implementation for punk fuzzer telemetry.
Reporters are notified of every fuzz request, every module completion and every finding.
*/

package core

import (
	"time"

	"github.com/kleascm/punk-fuzzer/pkg/execution"
	"github.com/kleascm/punk-fuzzer/pkg/payloads"
	"github.com/sirupsen/logrus"
)

// Reporter defines the interface for telemetry and reporting hooks.
type Reporter interface {
	// OnRequest is called after every fuzz request a module issues.
	OnRequest(class payloads.Class, result *execution.Result)
	// OnModuleFinished is called once per module with its outcome.
	OnModuleFinished(class payloads.Class, found bool, elapsed time.Duration)
	// OnFinding is called for every confirmed finding.
	OnFinding(finding *Finding)
}

// LoggerReporter logs fuzz events with logrus.
type LoggerReporter struct {
	logger *logrus.Logger
}

// NewLoggerReporter creates a new LoggerReporter.
func NewLoggerReporter(logger *logrus.Logger) *LoggerReporter {
	return &LoggerReporter{logger: logger}
}

func (r *LoggerReporter) OnRequest(class payloads.Class, result *execution.Result) {
	entry := r.logger.WithFields(logrus.Fields{
		"module":   class,
		"url":      result.URL,
		"outcome":  result.Outcome,
		"duration": result.Duration,
	})
	if result.Failed() {
		entry.WithError(result.Err).Debug("Fuzz request failed")
		return
	}
	entry.WithField("status", result.StatusCode).Debug("Fuzz request executed")
}

func (r *LoggerReporter) OnModuleFinished(class payloads.Class, found bool, elapsed time.Duration) {
	r.logger.WithFields(logrus.Fields{
		"module":  class,
		"found":   found,
		"elapsed": elapsed,
	}).Info("Module finished")
}

func (r *LoggerReporter) OnFinding(f *Finding) {
	r.logger.WithFields(logrus.Fields{
		"run_id":  f.RunID,
		"module":  f.VulnType,
		"param":   f.Param,
		"payload": f.Payload,
		"url":     f.URL,
	}).Warn("Vulnerability found")
}
