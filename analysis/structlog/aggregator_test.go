package structlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/opcode"
)

func step(i int, op string, gas int64) analysis.TraceStep {
	return analysis.TraceStep{Step: i, Op: op, GasCost: gas, Depth: 1}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)
	require.Zero(t, s.TotalGas)
	require.Empty(t, s.CategoryTotals)
	require.Empty(t, s.Timeline)
	require.Empty(t, s.Heatmap)
	require.Zero(t, s.Stats)
}

// The canonical breakdown scenario: two SSTOREs and one ADD.
func TestAggregateCategoryBreakdown(t *testing.T) {
	s := Aggregate([]analysis.TraceStep{
		step(0, "SSTORE", 20000),
		step(1, "SSTORE", 20000),
		step(2, "ADD", 3),
	})

	require.EqualValues(t, 40003, s.TotalGas)
	require.Len(t, s.CategoryTotals, 2)

	storage := s.CategoryTotals[0]
	require.Equal(t, opcode.Storage, storage.Category)
	require.EqualValues(t, 40000, storage.GasUsed)
	require.EqualValues(t, 2, storage.Count)
	assert.InDelta(t, 99.99, storage.Percentage, 0.01)

	compute := s.CategoryTotals[1]
	require.Equal(t, opcode.Computation, compute.Category)
	require.EqualValues(t, 3, compute.GasUsed)
	assert.InDelta(t, 0.01, compute.Percentage, 0.01)
}

// Categorization is a total partition: category gas always sums back to the
// step gas, and percentages to 100 when there is any gas at all.
func TestAggregatePartition(t *testing.T) {
	steps := []analysis.TraceStep{
		step(0, "PUSH1", 3),
		step(1, "MLOAD", 3),
		step(2, "SSTORE", 5000),
		step(3, "CALL", 700),
		step(4, "KECCAK256", 36),
		step(5, "JUMPI", 10),
		step(6, "BOGUSOP", 1),
	}
	s := Aggregate(steps)

	var want uint64
	for _, st := range steps {
		want += uint64(st.GasCost)
	}
	var got uint64
	var pct float64
	for _, ct := range s.CategoryTotals {
		got += ct.GasUsed
		pct += ct.Percentage
	}
	require.Equal(t, want, got)
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestAggregateTimelinePrefixSums(t *testing.T) {
	steps := []analysis.TraceStep{
		step(0, "ADD", 3),
		step(1, "MUL", 5),
		step(2, "SSTORE", 20000),
		step(3, "POP", 2),
	}
	s := Aggregate(steps)
	require.Len(t, s.Timeline, len(steps))

	var running uint64
	for i, p := range s.Timeline {
		running += uint64(steps[i].GasCost)
		require.Equal(t, running, p.CumulativeGas, "step %d", i)
		require.Equal(t, uint64(steps[i].GasCost), p.GasUsed)
		require.Equal(t, steps[i].Step, p.Step)
	}
}

func TestAggregateHeatmap(t *testing.T) {
	s := Aggregate([]analysis.TraceStep{
		step(0, "ADD", 5),
		step(1, "SSTORE", 20000),
		step(2, "POP", 2),
	})
	require.Len(t, s.Heatmap, 3)
	assert.InDelta(t, 5.0/20000, s.Heatmap[0].Intensity, 1e-12)
	assert.InDelta(t, 1.0, s.Heatmap[1].Intensity, 1e-12)
}

func TestAggregateHeatmapAllZeroGas(t *testing.T) {
	s := Aggregate([]analysis.TraceStep{
		step(0, "JUMPDEST", 0),
		step(1, "JUMPDEST", 0),
	})
	for _, p := range s.Heatmap {
		require.Zero(t, p.Intensity)
	}
	require.Zero(t, s.TotalGas)
	// All percentages are zero when there is no gas to attribute.
	for _, ct := range s.CategoryTotals {
		require.Zero(t, ct.Percentage)
	}
}

func TestAggregateStats(t *testing.T) {
	steps := []analysis.TraceStep{
		{Step: 0, Op: "ADD", GasCost: 3, Depth: 1, StackDepth: 2, MemorySize: 64},
		{Step: 1, Op: "SSTORE", GasCost: 20000, Depth: 1, StackDepth: 4, MemorySize: 128},
		{Step: 2, Op: "MSTORE", GasCost: 6, Depth: 1, StackDepth: 2, MemorySize: 256},
	}
	s := Aggregate(steps)

	require.Equal(t, "SSTORE", s.Stats.MostExpensiveOp)
	require.EqualValues(t, 20000, s.Stats.MostExpensiveGas)
	require.EqualValues(t, 3, s.Stats.TotalSteps)
	assert.InDelta(t, 20009.0/3, s.Stats.AvgGasPerStep, 1e-9)
	require.EqualValues(t, 256, s.Stats.PeakMemorySize)
	// avg/max ratios
	assert.InDelta(t, (8.0/3)/4, s.Stats.StackUtilization, 1e-9)
	assert.InDelta(t, (448.0/3)/256, s.Stats.MemoryUtilization, 1e-9)
	// avg gas far beyond the reference pins the score at zero
	require.Zero(t, s.Stats.EfficiencyScore)
}

func TestAggregateMostExpensiveTieKeepsFirst(t *testing.T) {
	s := Aggregate([]analysis.TraceStep{
		step(0, "MUL", 5),
		step(1, "ADD", 5),
	})
	require.Equal(t, "MUL", s.Stats.MostExpensiveOp)
}

func TestEfficiencyScoreBounds(t *testing.T) {
	require.Equal(t, 100.0, boundedEfficiency(0))
	require.Equal(t, 50.0, boundedEfficiency(500))
	require.Equal(t, 0.0, boundedEfficiency(1000))
	require.Equal(t, 0.0, boundedEfficiency(250000))
}
