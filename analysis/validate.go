package analysis

import (
	"fmt"
	"strings"
)

// Violation is one malformed-input finding from ingestion validation.
type Violation struct {
	Source string `json:"source"` // "structlog" or "calltrace"
	Index  int    `json:"index"`  // record index within its sequence, -1 for summary-level
	Field  string `json:"field"`
	Msg    string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%d].%s: %s", v.Source, v.Index, v.Field, v.Msg)
}

// ValidationError rejects malformed input. Validation is exhaustive rather
// than fail-fast: every violation found is listed so callers get a complete
// diagnostic in one pass and can decide whether to proceed or abort.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace validation failed (%d violations):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString(" ")
		b.WriteString(v.String())
		b.WriteString(";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

// ValidateInput checks whichever trace forms the input carries and returns a
// *ValidationError listing every violation, or nil when the input is clean.
// Absent forms and empty sequences are not violations; degenerate input is a
// valid zero-result case.
func ValidateInput(in Input) error {
	var violations []Violation
	if in.StructLog != nil {
		violations = append(violations, validateStructLog(in.StructLog)...)
	}
	if in.CallTrace != nil {
		violations = append(violations, validateCallTrace(in.CallTrace)...)
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func validateStructLog(trace *StructLogTrace) []Violation {
	var out []Violation
	add := func(index int, field, msg string) {
		out = append(out, Violation{Source: "structlog", Index: index, Field: field, Msg: msg})
	}

	prevStep := -1
	for i, step := range trace.Steps {
		if step.Op == "" {
			add(i, "opcode", "missing opcode mnemonic")
		}
		if step.GasCost < 0 {
			add(i, "gasCost", fmt.Sprintf("negative gas cost %d", step.GasCost))
		}
		if step.Depth < 0 {
			add(i, "depth", fmt.Sprintf("negative call depth %d", step.Depth))
		}
		if step.StackDepth < 0 {
			add(i, "stackDepth", fmt.Sprintf("negative stack depth %d", step.StackDepth))
		}
		if step.MemorySize < 0 {
			add(i, "memorySizeBytes", fmt.Sprintf("negative memory size %d", step.MemorySize))
		}
		if step.Step < 0 {
			add(i, "step", fmt.Sprintf("negative step index %d", step.Step))
		} else if step.Step <= prevStep {
			add(i, "step", fmt.Sprintf("step index %d not monotonically increasing (previous %d)", step.Step, prevStep))
		}
		if step.Step > prevStep {
			prevStep = step.Step
		}
	}

	// A zero-valued summary is treated as absent; upstream sources do not
	// always populate it.
	if trace.Summary != (StructLogSummary{}) {
		if trace.Summary.TotalSteps != int64(len(trace.Steps)) {
			add(-1, "summary.totalSteps",
				fmt.Sprintf("summary reports %d steps, trace has %d", trace.Summary.TotalSteps, len(trace.Steps)))
		}
		if trace.Summary.TotalGasCost < 0 {
			add(-1, "summary.totalGasCost", fmt.Sprintf("negative total gas %d", trace.Summary.TotalGasCost))
		}
	}
	return out
}

func validateCallTrace(trace *CallTrace) []Violation {
	var out []Violation
	add := func(index int, field, msg string) {
		out = append(out, Violation{Source: "calltrace", Index: index, Field: field, Msg: msg})
	}

	seen := make(map[string]int, len(trace.CallData))
	for i, call := range trace.CallData {
		if call.ID == "" {
			add(i, "id", "missing call id")
		} else if prev, dup := seen[call.ID]; dup {
			add(i, "id", fmt.Sprintf("duplicate call id %q (first at %d)", call.ID, prev))
		} else {
			seen[call.ID] = i
		}
		if call.GasUsed < 0 {
			add(i, "gasUsed", fmt.Sprintf("negative gas used %d", call.GasUsed))
		}
		for j, elem := range call.TraceAddress {
			if elem < 0 {
				add(i, "traceAddress", fmt.Sprintf("negative element %d at position %d", elem, j))
			}
		}
		if call.Success && call.Error != "" {
			add(i, "success", fmt.Sprintf("marked successful but carries error %q", call.Error))
		}
		if !call.Success && call.Error == "" {
			add(i, "success", "marked failed without an error string")
		}
	}

	if trace.Stats != (TransactionStats{}) {
		if trace.Stats.TotalCalls != int64(len(trace.CallData)) {
			add(-1, "transactionStats.totalCalls",
				fmt.Sprintf("stats report %d calls, trace has %d", trace.Stats.TotalCalls, len(trace.CallData)))
		}
		if trace.Stats.TotalGas < 0 {
			add(-1, "transactionStats.totalGas", fmt.Sprintf("negative total gas %d", trace.Stats.TotalGas))
		}
	}
	return out
}
