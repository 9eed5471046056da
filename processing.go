package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/engine"
)

type traceResult struct {
	err error

	path   string
	result *analysis.Result
}

// processFiles analyzes each trace bundle in paths and streams one result
// per file. Failures (unreadable files, malformed bundles, validation
// rejections) are reported per file and never abort the rest of the slice.
func processFiles(ctx context.Context, eng *engine.Engine, paths []string, out chan<- traceResult) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			out <- traceResult{path: path, err: fmt.Errorf("reading trace bundle: %w", err)}
			continue
		}
		var in analysis.Input
		if err := json.Unmarshal(data, &in); err != nil {
			out <- traceResult{path: path, err: fmt.Errorf("decoding trace bundle: %w", err)}
			continue
		}

		result, err := eng.Analyze(ctx, in)
		if err != nil {
			out <- traceResult{path: path, err: err}
			continue
		}
		out <- traceResult{path: path, result: result}
	}
}
