package analysis

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/evmscope/tracegas/analysis/opcode"
)

// CategoryTotal attributes gas to one semantic opcode category. Percentage is
// always computed against the total gas of the grouping that produced it and
// is recomputed whenever the totals change.
type CategoryTotal struct {
	Category   opcode.Category `json:"category"`
	GasUsed    uint64          `json:"gasUsed"`
	Count      int64           `json:"count"`
	Percentage float64         `json:"percentageOfTotal"`
}

// ContractGasEntry attributes gas to one callee contract.
type ContractGasEntry struct {
	Address     common.Address `json:"address"`
	Label       string         `json:"label,omitempty"`
	GasUsed     uint64         `json:"gasUsed"`
	CallCount   int64          `json:"callCount"`
	Percentage  float64        `json:"percentageOfTotal"`
	SuccessRate float64        `json:"successRate"`
}

// TimelinePoint is one step of the cumulative gas timeline.
type TimelinePoint struct {
	Step          int    `json:"step"`
	GasUsed       uint64 `json:"gasUsed"`
	CumulativeGas uint64 `json:"cumulativeGas"`
}

// UsagePoint is one step of the memory/stack usage series.
type UsagePoint struct {
	Step       int   `json:"step"`
	MemorySize int64 `json:"memorySizeBytes"`
	StackDepth int   `json:"stackDepth"`
}

// HeatmapPoint carries per-step gas intensity relative to the hottest step.
type HeatmapPoint struct {
	Step      int     `json:"step"`
	Op        string  `json:"opcode"`
	GasCost   uint64  `json:"gasCost"`
	Intensity float64 `json:"intensity"`
}

// CallNode is one node of the reconstructed call forest. Nodes hold copies of
// their records so the forest stays serializable plain data.
type CallNode struct {
	Call     CallRecord  `json:"call"`
	Children []*CallNode `json:"children,omitempty"`
}

// ValueTransfer is one non-zero native-currency movement between accounts.
type ValueTransfer struct {
	CallID string         `json:"callId"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Value  *uint256.Int   `json:"value"`
}

// Metric is one scored efficiency measurement against a fixed benchmark.
// Score is always within [0,100].
type Metric struct {
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Benchmark float64 `json:"benchmark"`
	Score     float64 `json:"score"`
}

// CostEntry is the estimated cost of one top gas consumer.
type CostEntry struct {
	Name       string  `json:"name"`
	GasUsed    uint64  `json:"gasUsed"`
	CostNative float64 `json:"costNative"`
	CostUsd    float64 `json:"costUsd"`
}

// Severity ranks optimization findings. The ordinal order is meaningful and
// used as a ranking tie-breaker.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s >= SeverityLow && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "low"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if name == string(text) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// Difficulty tags how involved a recommendation is to apply.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Recommendation is one actionable suggestion attached to a finding.
type Recommendation struct {
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
}

// EvidenceItem records one observed value against the threshold that made a
// detection predicate pass, so findings stay explainable.
type EvidenceItem struct {
	Name      string  `json:"name"`
	Observed  float64 `json:"observed"`
	Threshold float64 `json:"threshold"`
}

// PotentialSavings quantifies what a finding could recover.
type PotentialSavings struct {
	GasAmount  uint64  `json:"gasAmount"`
	Percentage float64 `json:"percentage"`
	CostNative float64 `json:"costNative"`
	CostUsd    float64 `json:"costUsd"`
}

// OptimizationFinding is one detected inefficiency pattern. Findings are
// recomputed in full on every analysis run.
type OptimizationFinding struct {
	PatternID       string           `json:"patternId"`
	Title           string           `json:"title"`
	Category        opcode.Category  `json:"category"`
	Severity        Severity         `json:"severity"`
	Savings         PotentialSavings `json:"potentialSavings"`
	Evidence        []EvidenceItem   `json:"evidence"`
	Recommendations []Recommendation `json:"recommendations"`
}

// InteractionSummary describes the call-graph texture of a transaction.
type InteractionSummary struct {
	UniqueContracts int            `json:"uniqueContracts"`
	MostCalled      common.Address `json:"mostCalled"`
	MostCalledCount int64          `json:"mostCalledCount"`
	AvgCallDepth    float64        `json:"avgCallDepth"`
	FailureRate     float64        `json:"failureRate"`
	ComplexityScore float64        `json:"complexityScore"`
}

// ExecutionStats is the struct-log performance digest.
type ExecutionStats struct {
	TotalSteps        int64   `json:"totalSteps"`
	AvgGasPerStep     float64 `json:"avgGasPerStep"`
	MostExpensiveOp   string  `json:"mostExpensiveOpcode"`
	MostExpensiveGas  uint64  `json:"mostExpensiveGas"`
	StackUtilization  float64 `json:"stackUtilization"`
	MemoryUtilization float64 `json:"memoryUtilization"`
	PeakMemorySize    int64   `json:"peakMemorySizeBytes"`
	EfficiencyScore   float64 `json:"efficiencyScore"`
}

// Result is the unified analysis handed to the presentation layer. It is the
// single serializable contract consumed by charts, tables and exports; it
// carries no live references back into the engine.
type Result struct {
	TotalGasUsed        uint64                `json:"totalGasUsed"`
	GasBreakdown        []CategoryTotal       `json:"gasBreakdown"`
	ContractAttribution []ContractGasEntry    `json:"contractAttribution"`
	EfficiencyMetrics   []Metric              `json:"efficiencyMetrics"`
	CostAnalysis        []CostEntry           `json:"costAnalysis"`
	Findings            []OptimizationFinding `json:"optimizationFindings"`
	CallHierarchy       []*CallNode           `json:"callHierarchy"`
	ExecutionTimeline   []TimelinePoint       `json:"executionTimeline"`
	MemoryUsage         []UsagePoint          `json:"memoryUsage"`
	Heatmap             []HeatmapPoint        `json:"heatmap"`
	ValueTransfers      []ValueTransfer       `json:"valueTransfers"`
	Interactions        InteractionSummary    `json:"interactionPatterns"`
	ExecutionStats      ExecutionStats        `json:"executionStats"`
	Warnings            []string              `json:"warnings,omitempty"`
}
