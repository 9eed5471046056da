package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validStructLog() *StructLogTrace {
	return &StructLogTrace{
		Steps: []TraceStep{
			{Step: 0, Op: "PUSH1", GasCost: 3, Depth: 1, StackDepth: 0, MemorySize: 0},
			{Step: 1, Op: "SSTORE", GasCost: 20000, Depth: 1, StackDepth: 2, MemorySize: 0},
		},
		Summary: StructLogSummary{TotalSteps: 2, TotalGasCost: 20003, MaxStackDepth: 2},
	}
}

func TestValidateCleanInput(t *testing.T) {
	require.NoError(t, ValidateInput(Input{StructLog: validStructLog()}))
	require.NoError(t, ValidateInput(Input{}))
	require.NoError(t, ValidateInput(Input{StructLog: &StructLogTrace{}, CallTrace: &CallTrace{}}))
}

func TestValidateIsExhaustive(t *testing.T) {
	in := Input{
		StructLog: &StructLogTrace{
			Steps: []TraceStep{
				{Step: 0, Op: "", GasCost: -5, Depth: -1},
				{Step: 0, Op: "ADD", GasCost: 3, MemorySize: -32},
			},
		},
		CallTrace: &CallTrace{
			CallData: []CallRecord{
				{ID: "", GasUsed: -1, Success: true},
				{ID: "c1", TraceAddress: []int{-2}, Success: true, Error: "reverted"},
				{ID: "c1", Success: true},
			},
		},
	}

	err := ValidateInput(in)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok, "want *ValidationError, got %T", err)

	// Every violation must be reported in one pass, not only the first.
	fields := make(map[string]int)
	for _, v := range verr.Violations {
		fields[v.Source+"."+v.Field]++
	}
	require.GreaterOrEqual(t, fields["structlog.opcode"], 1)
	require.GreaterOrEqual(t, fields["structlog.gasCost"], 1)
	require.GreaterOrEqual(t, fields["structlog.depth"], 1)
	require.GreaterOrEqual(t, fields["structlog.memorySizeBytes"], 1)
	require.GreaterOrEqual(t, fields["structlog.step"], 1) // non-monotonic
	require.GreaterOrEqual(t, fields["calltrace.id"], 2)   // missing and duplicate
	require.GreaterOrEqual(t, fields["calltrace.gasUsed"], 1)
	require.GreaterOrEqual(t, fields["calltrace.traceAddress"], 1)
	require.GreaterOrEqual(t, fields["calltrace.success"], 1)
	require.Contains(t, verr.Error(), "violations")
}

func TestValidateNonMonotonicSteps(t *testing.T) {
	trace := validStructLog()
	trace.Steps[1].Step = 0
	trace.Summary = StructLogSummary{}
	err := ValidateInput(Input{StructLog: trace})
	require.Error(t, err)
	verr := err.(*ValidationError)
	require.Len(t, verr.Violations, 1)
	require.Equal(t, "step", verr.Violations[0].Field)
}

func TestValidateSummaryMismatch(t *testing.T) {
	trace := validStructLog()
	trace.Summary.TotalSteps = 7
	err := ValidateInput(Input{StructLog: trace})
	require.Error(t, err)
	verr := err.(*ValidationError)
	require.Len(t, verr.Violations, 1)
	require.Equal(t, "summary.totalSteps", verr.Violations[0].Field)
	require.Equal(t, -1, verr.Violations[0].Index)
}

func TestValidateSuccessErrorConsistency(t *testing.T) {
	trace := &CallTrace{CallData: []CallRecord{
		{ID: "ok", Success: true},
		{ID: "failed", Success: false, Error: "out of gas"},
		{ID: "bad-a", Success: true, Error: "reverted"},
		{ID: "bad-b", Success: false},
	}}
	err := ValidateInput(Input{CallTrace: trace})
	require.Error(t, err)
	verr := err.(*ValidationError)
	require.Len(t, verr.Violations, 2)
	for _, v := range verr.Violations {
		require.Equal(t, "success", v.Field)
	}
}

func TestInputShape(t *testing.T) {
	require.Equal(t, ShapeNeither, Input{}.Shape())
	require.Equal(t, ShapeStructLogOnly, Input{StructLog: &StructLogTrace{}}.Shape())
	require.Equal(t, ShapeCallTraceOnly, Input{CallTrace: &CallTrace{}}.Shape())
	require.Equal(t, ShapeBoth, Input{StructLog: &StructLogTrace{}, CallTrace: &CallTrace{}}.Shape())
}
