// Package worker provides background jobs for the viewer.
package worker

import (
	"time"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
)

// PreloadConfig holds configuration for the domain preload job.
type PreloadConfig struct {
	// Domains are the data domains to resolve.
	// If empty, every known domain is preloaded.
	Domains []hydro.Domain

	// Concurrency is the number of domains resolved at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the resolution of a single domain.
	// Default: 30 seconds
	Timeout time.Duration

	// Interval is the period between refreshes when the job runs in the background.
	// Zero disables periodic refresh.
	Interval time.Duration
}

// DefaultPreloadConfig returns the default preload configuration.
func DefaultPreloadConfig() PreloadConfig {
	return PreloadConfig{
		Domains:     hydro.AllDomains(),
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c PreloadConfig) withDefaults() PreloadConfig {
	d := DefaultPreloadConfig()
	if len(c.Domains) == 0 {
		c.Domains = d.Domains
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	return c
}
