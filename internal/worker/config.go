// Package worker runs timeline imports triggered by Pub/Sub messages.
package worker

import (
	"time"
)

// ImportConfig holds configuration for the import job.
type ImportConfig struct {
	// Concurrency is the number of sources imported at once.
	// Default: 3
	Concurrency int

	// Timeout bounds each source, fetch and import included.
	// Default: 5 minutes
	Timeout time.Duration

	// ProbabilityThreshold applies when a message does not carry one.
	ProbabilityThreshold float64
}

// DefaultImportConfig returns the default import configuration.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		Concurrency: 3,
		Timeout:     5 * time.Minute,
	}
}

func (c ImportConfig) withDefaults() ImportConfig {
	def := DefaultImportConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
