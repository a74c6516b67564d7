package preflight

import (
	"context"
	"fmt"

	"callwatch/internal/config"
	"callwatch/internal/dirwatch"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	for _, entry := range dirwatch.Plan(cfg.DirWatch) {
		if entry.Err != nil {
			continue
		}
		name := fmt.Sprintf("Watch %d", entry.Index)
		results = append(results, CheckWatchDirectory(name, entry.Config.Directory, entry.Config.DeleteAfter))
	}

	if cfg.MQTT.Enabled {
		results = append(results, CheckBroker(ctx, cfg.MQTT.Broker))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
