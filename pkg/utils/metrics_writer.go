/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics_writer.go
Description: Utility for writing fuzz reports to disk as timestamped JSON files, one per run.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report is the on-disk record of one fuzz run
type Report struct {
	RunID       string      `json:"run_id"`
	URL         string      `json:"url"`
	Param       string      `json:"param"`
	GeneratedAt time.Time   `json:"generated_at"`
	Eligible    bool        `json:"eligible"`
	Findings    interface{} `json:"findings"`
	Stats       interface{} `json:"stats,omitempty"`
}

// WriteReport writes report into dir as
// 2006-01-02_15-04-05_<run id>.json and returns the path
func WriteReport(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	name := report.RunID
	if len(name) > 8 {
		name = name[:8]
	}
	filename := fmt.Sprintf("%s_%s.json", report.GeneratedAt.Format("2006-01-02_15-04-05"), name)
	filePath := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return filePath, nil
}
