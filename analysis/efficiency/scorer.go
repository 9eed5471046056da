// Package efficiency derives bounded [0,100] efficiency metrics from the
// unified gas aggregates against fixed benchmarks.
package efficiency

import (
	"github.com/evmscope/tracegas/analysis"
)

// Benchmarks the metric set is scored against. The values are reference
// levels for a reasonably efficient transaction, kept as named constants so
// they can be tuned without touching the scoring logic.
const (
	BenchmarkGasPerCall   = 50_000.0
	BenchmarkSuccessRate  = 95.0
	BenchmarkGasPerOpcode = 3.0
	// MemoryReferenceBytes is the peak memory footprint considered fully
	// efficient; larger footprints degrade the score proportionally.
	MemoryReferenceBytes = 1000.0
)

// sentinelScore is reported when a metric has no evidence to score against
// (zero denominator). Absence of evidence is read as absence of
// inefficiency, never as NaN or infinity.
const sentinelScore = 100.0

// Inputs are the aggregate figures the metric set is derived from.
type Inputs struct {
	TotalGas    uint64
	CallCount   int64
	SuccessRate float64 // 0-100, from the call-trace aggregation
	StepCount   int64
	PeakMemory  int64 // bytes
}

// Score computes the fixed metric set. The overall score (unweighted mean of
// the individual scores) is prepended. Every score is clamped to [0,100].
func Score(in Inputs) []analysis.Metric {
	metrics := []analysis.Metric{
		gasPerCall(in),
		successRate(in),
		gasPerOpcode(in),
		memoryEfficiency(in),
	}

	var sum float64
	for _, m := range metrics {
		sum += m.Score
	}
	overall := analysis.Metric{
		Name:      "Overall Efficiency",
		Value:     sum / float64(len(metrics)),
		Unit:      "score",
		Benchmark: 100,
		Score:     clamp(sum / float64(len(metrics))),
	}
	return append([]analysis.Metric{overall}, metrics...)
}

func gasPerCall(in Inputs) analysis.Metric {
	m := analysis.Metric{Name: "Gas per Call", Unit: "gas", Benchmark: BenchmarkGasPerCall, Score: sentinelScore}
	if in.CallCount > 0 {
		m.Value = float64(in.TotalGas) / float64(in.CallCount)
		m.Score = inverseScore(BenchmarkGasPerCall, m.Value)
	}
	return m
}

func successRate(in Inputs) analysis.Metric {
	m := analysis.Metric{Name: "Call Success Rate", Unit: "%", Benchmark: BenchmarkSuccessRate, Score: sentinelScore}
	if in.CallCount > 0 {
		m.Value = in.SuccessRate
		m.Score = clamp(in.SuccessRate)
	}
	return m
}

func gasPerOpcode(in Inputs) analysis.Metric {
	m := analysis.Metric{Name: "Gas per Opcode", Unit: "gas", Benchmark: BenchmarkGasPerOpcode, Score: sentinelScore}
	if in.StepCount > 0 {
		m.Value = float64(in.TotalGas) / float64(in.StepCount)
		m.Score = inverseScore(BenchmarkGasPerOpcode, m.Value)
	}
	return m
}

func memoryEfficiency(in Inputs) analysis.Metric {
	m := analysis.Metric{Name: "Memory Efficiency", Unit: "bytes", Benchmark: MemoryReferenceBytes, Score: sentinelScore}
	if in.PeakMemory > 0 {
		m.Value = float64(in.PeakMemory)
		m.Score = inverseScore(MemoryReferenceBytes, m.Value)
	}
	return m
}

// inverseScore scores a lower-is-better value: meeting the benchmark (or
// better) is 100, and the score decays proportionally past it. A zero actual
// is the sentinel case.
func inverseScore(benchmark, actual float64) float64 {
	if actual == 0 {
		return sentinelScore
	}
	return clamp(benchmark / actual * 100)
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
