// Package structlog aggregates a flat per-opcode step log into categorized
// gas totals, a cumulative timeline, usage series and a gas heatmap.
package structlog

import (
	"sort"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/opcode"
)

// Named constants behind the bounded per-step efficiency score.
const (
	// efficiencyGasReference is the avg-gas-per-step level at which the
	// score reaches zero.
	efficiencyGasReference = 1000.0
)

// Summary is the derived output of one struct-log aggregation pass. All
// slices are freshly allocated; the input steps are never retained.
type Summary struct {
	TotalGas       uint64
	CategoryTotals []analysis.CategoryTotal
	Timeline       []analysis.TimelinePoint
	MemoryUsage    []analysis.UsagePoint
	Heatmap        []analysis.HeatmapPoint
	Stats          analysis.ExecutionStats
}

// Aggregate runs a single left-to-right pass over the step log. An empty log
// yields a zero summary, never an error; all ratio computations are guarded
// against zero denominators.
func Aggregate(steps []analysis.TraceStep) Summary {
	var s Summary
	if len(steps) == 0 {
		return s
	}

	type catAcc struct {
		gas   uint64
		count int64
	}
	var perCategory [len(categoriesOrdered)]catAcc

	s.Timeline = make([]analysis.TimelinePoint, len(steps))
	s.MemoryUsage = make([]analysis.UsagePoint, len(steps))
	s.Heatmap = make([]analysis.HeatmapPoint, len(steps))

	var (
		cumulative uint64
		maxGas     uint64
		maxGasOp   string
		sumStack   int64
		maxStack   int64
		sumMem     int64
		maxMem     int64
		overflow   bool
	)
	for i, step := range steps {
		gas := uint64(step.GasCost)

		cat := opcode.Categorize(step.Op)
		perCategory[cat].gas += gas
		perCategory[cat].count++

		cumulative, overflow = math.SafeAdd(cumulative, gas)
		if overflow {
			cumulative = math.MaxUint64
		}
		s.Timeline[i] = analysis.TimelinePoint{Step: step.Step, GasUsed: gas, CumulativeGas: cumulative}
		s.MemoryUsage[i] = analysis.UsagePoint{Step: step.Step, MemorySize: step.MemorySize, StackDepth: step.StackDepth}
		s.Heatmap[i] = analysis.HeatmapPoint{Step: step.Step, Op: step.Op, GasCost: gas}

		// Ties keep the first occurrence.
		if maxGasOp == "" || gas > maxGas {
			maxGas = gas
			maxGasOp = step.Op
		}
		sumStack += int64(step.StackDepth)
		if int64(step.StackDepth) > maxStack {
			maxStack = int64(step.StackDepth)
		}
		sumMem += step.MemorySize
		if step.MemorySize > maxMem {
			maxMem = step.MemorySize
		}
	}
	s.TotalGas = cumulative

	s.CategoryTotals = make([]analysis.CategoryTotal, 0, len(categoriesOrdered))
	for i, acc := range perCategory {
		if acc.count == 0 {
			continue
		}
		s.CategoryTotals = append(s.CategoryTotals, analysis.CategoryTotal{
			Category:   categoriesOrdered[i],
			GasUsed:    acc.gas,
			Count:      acc.count,
			Percentage: percentage(acc.gas, s.TotalGas),
		})
	}
	sort.SliceStable(s.CategoryTotals, func(i, j int) bool {
		return s.CategoryTotals[i].GasUsed > s.CategoryTotals[j].GasUsed
	})

	for i := range s.Heatmap {
		if maxGas > 0 {
			s.Heatmap[i].Intensity = float64(s.Heatmap[i].GasCost) / float64(maxGas)
		}
	}

	n := float64(len(steps))
	avgGas := float64(s.TotalGas) / n
	s.Stats = analysis.ExecutionStats{
		TotalSteps:       int64(len(steps)),
		AvgGasPerStep:    avgGas,
		MostExpensiveOp:  maxGasOp,
		MostExpensiveGas: maxGas,
		PeakMemorySize:   maxMem,
		EfficiencyScore:  boundedEfficiency(avgGas),
	}
	if maxStack > 0 {
		s.Stats.StackUtilization = (float64(sumStack) / n) / float64(maxStack)
	}
	if maxMem > 0 {
		s.Stats.MemoryUtilization = (float64(sumMem) / n) / float64(maxMem)
	}
	return s
}

var categoriesOrdered = func() [7]opcode.Category {
	var out [7]opcode.Category
	copy(out[:], opcode.Categories())
	return out
}()

func percentage(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// boundedEfficiency maps average gas per step onto [0,100]: zero-cost steps
// score 100 and the score hits zero once the average reaches
// efficiencyGasReference.
func boundedEfficiency(avgGasPerStep float64) float64 {
	score := 100 - avgGasPerStep/efficiencyGasReference*100
	if score < 0 {
		return 0
	}
	return score
}
