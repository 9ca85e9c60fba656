package preflight

import (
	"airwaves/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll checks the directories the process pipeline writes to.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Raw audio directory", cfg.RawDir()),
		CheckDirectoryAccess("Converted audio directory", cfg.ConvertedDir()),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}
}

// FirstFailure returns the first failed result, if any.
func FirstFailure(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Passed {
			return r, true
		}
	}
	return Result{}, false
}
