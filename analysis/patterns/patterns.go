// Package patterns detects known gas-inefficiency patterns over the unified
// aggregates and estimates what each could save. The pattern table is plain
// data passed into the detector, so alternative tables (or test doubles) can
// be injected; nothing in here holds global state.
package patterns

import (
	"github.com/evmscope/tracegas/analysis"
	"github.com/evmscope/tracegas/analysis/opcode"
)

// SavingsCaptureFactor caps how much of an observed category's gas a finding
// may claim as recoverable. Empirically chosen; no derivation beyond "a
// rewrite rarely recovers more than this share".
const SavingsCaptureFactor = 0.8

// Profile is the detection input distilled from the unified gas model.
type Profile struct {
	TotalGas     uint64
	Categories   []analysis.CategoryTotal
	Contracts    []analysis.ContractGasEntry
	Interactions analysis.InteractionSummary
	CallCount    int64
	StepCount    int64
	PeakMemory   int64
}

// CategoryGas returns the attributed gas for one category, zero if absent.
func (p Profile) CategoryGas(cat opcode.Category) uint64 {
	for _, ct := range p.Categories {
		if ct.Category == cat {
			return ct.GasUsed
		}
	}
	return 0
}

// CategoryCount returns the contributing step/call count for one category.
func (p Profile) CategoryCount(cat opcode.Category) int64 {
	for _, ct := range p.Categories {
		if ct.Category == cat {
			return ct.Count
		}
	}
	return 0
}

// Pattern is one named detection rule. Detect returns the evidence that made
// the predicate pass, or nil when the pattern does not apply. SavingsBase
// returns the observed gas the static estimate is capped against.
type Pattern struct {
	ID              string
	Title           string
	Category        opcode.Category
	Severity        analysis.Severity
	GasThreshold    uint64 // gate: skipped entirely below this total gas
	StaticSavings   uint64
	Detect          func(Profile) []analysis.EvidenceItem
	SavingsBase     func(Profile) uint64
	Recommendations []analysis.Recommendation
}

// Detection thresholds and static savings estimates. All empirically chosen
// reference values, named here so tuning never touches detection logic.
const (
	storagePackingMinCount = 3
	storagePackingMinGas   = 15_000
	storagePackingSavings  = 15_000

	loopMinJumps        = 100
	loopMinComputeGas   = 10_000
	loopSavings         = 10_000
	loopGate            = 50_000
	visibilityMinCalls  = 3
	visibilityMinSysGas = 20_000
	visibilitySavings   = 5_000

	memoryOveruseMinGas   = 10_000
	memoryOverusePeak     = 10_000 // bytes
	memoryOveruseSavings  = 8_000
	dataStructureMinOps   = 20
	dataStructureSavings  = 20_000
	dataStructureGate     = 40_000
	expensiveMinCryptoGas = 5_000
	expensiveMinComputGas = 15_000
	expensiveSavings      = 6_000

	defaultGate = 21_000 // intrinsic transaction cost; below it nothing is worth flagging
)

// DefaultPatterns returns a fresh copy of the built-in table. The slice and
// its entries are owned by the caller; mutating one table never affects
// another detector.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:            "storage-packing",
			Title:         "Storage slot packing",
			Category:      opcode.Storage,
			Severity:      analysis.SeverityHigh,
			GasThreshold:  defaultGate,
			StaticSavings: storagePackingSavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				count := p.CategoryCount(opcode.Storage)
				gas := p.CategoryGas(opcode.Storage)
				if count > storagePackingMinCount && gas > storagePackingMinGas {
					return []analysis.EvidenceItem{
						{Name: "storage operations", Observed: float64(count), Threshold: storagePackingMinCount},
						{Name: "storage gas", Observed: float64(gas), Threshold: storagePackingMinGas},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 { return p.CategoryGas(opcode.Storage) },
			Recommendations: []analysis.Recommendation{
				{Text: "Pack multiple small values into a single storage slot", Difficulty: analysis.DifficultyMedium},
				{Text: "Order struct fields so adjacent members share slots", Difficulty: analysis.DifficultyEasy},
				{Text: "Cache repeated storage reads in memory variables", Difficulty: analysis.DifficultyEasy},
			},
		},
		{
			ID:            "loop-inefficiency",
			Title:         "Loop inefficiency",
			Category:      opcode.ControlFlow,
			Severity:      analysis.SeverityMedium,
			GasThreshold:  loopGate,
			StaticSavings: loopSavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				jumps := p.CategoryCount(opcode.ControlFlow)
				computeGas := p.CategoryGas(opcode.Computation)
				if jumps > loopMinJumps && computeGas > loopMinComputeGas {
					return []analysis.EvidenceItem{
						{Name: "control-flow operations", Observed: float64(jumps), Threshold: loopMinJumps},
						{Name: "computation gas", Observed: float64(computeGas), Threshold: loopMinComputeGas},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 { return p.CategoryGas(opcode.Computation) },
			Recommendations: []analysis.Recommendation{
				{Text: "Hoist invariant computations out of loops", Difficulty: analysis.DifficultyEasy},
				{Text: "Cache array length before iterating", Difficulty: analysis.DifficultyEasy},
				{Text: "Batch per-element storage writes into one post-loop write", Difficulty: analysis.DifficultyMedium},
			},
		},
		{
			ID:            "function-visibility",
			Title:         "Function visibility cost",
			Category:      opcode.System,
			Severity:      analysis.SeverityLow,
			GasThreshold:  defaultGate,
			StaticSavings: visibilitySavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				sysGas := p.CategoryGas(opcode.System)
				if p.CallCount > visibilityMinCalls && sysGas > visibilityMinSysGas {
					return []analysis.EvidenceItem{
						{Name: "calls", Observed: float64(p.CallCount), Threshold: visibilityMinCalls},
						{Name: "system gas", Observed: float64(sysGas), Threshold: visibilityMinSysGas},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 { return p.CategoryGas(opcode.System) },
			Recommendations: []analysis.Recommendation{
				{Text: "Declare externally-called functions external instead of public", Difficulty: analysis.DifficultyEasy},
				{Text: "Use calldata instead of memory for read-only array parameters", Difficulty: analysis.DifficultyEasy},
			},
		},
		{
			ID:            "memory-overuse",
			Title:         "Memory overuse",
			Category:      opcode.Memory,
			Severity:      analysis.SeverityMedium,
			GasThreshold:  defaultGate + 4_000,
			StaticSavings: memoryOveruseSavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				memGas := p.CategoryGas(opcode.Memory)
				if memGas > memoryOveruseMinGas || p.PeakMemory > memoryOverusePeak {
					return []analysis.EvidenceItem{
						{Name: "memory gas", Observed: float64(memGas), Threshold: memoryOveruseMinGas},
						{Name: "peak memory bytes", Observed: float64(p.PeakMemory), Threshold: memoryOverusePeak},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 { return p.CategoryGas(opcode.Memory) },
			Recommendations: []analysis.Recommendation{
				{Text: "Reuse memory buffers instead of growing new ones", Difficulty: analysis.DifficultyMedium},
				{Text: "Avoid copying large arrays between memory regions", Difficulty: analysis.DifficultyMedium},
			},
		},
		{
			ID:            "inefficient-data-structures",
			Title:         "Inefficient data structures",
			Category:      opcode.Storage,
			Severity:      analysis.SeverityHigh,
			GasThreshold:  dataStructureGate,
			StaticSavings: dataStructureSavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				count := p.CategoryCount(opcode.Storage)
				if count > dataStructureMinOps {
					return []analysis.EvidenceItem{
						{Name: "storage operations", Observed: float64(count), Threshold: dataStructureMinOps},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 { return p.CategoryGas(opcode.Storage) },
			Recommendations: []analysis.Recommendation{
				{Text: "Replace iterated arrays with mappings where lookup suffices", Difficulty: analysis.DifficultyHard},
				{Text: "Store aggregates instead of recomputing them from stored elements", Difficulty: analysis.DifficultyMedium},
			},
		},
		{
			ID:            "expensive-computation",
			Title:         "Expensive computation opcodes",
			Category:      opcode.Computation,
			Severity:      analysis.SeverityLow,
			GasThreshold:  defaultGate + 9_000,
			StaticSavings: expensiveSavings,
			Detect: func(p Profile) []analysis.EvidenceItem {
				cryptoGas := p.CategoryGas(opcode.Crypto)
				computeGas := p.CategoryGas(opcode.Computation)
				if cryptoGas > expensiveMinCryptoGas || computeGas > expensiveMinComputGas {
					return []analysis.EvidenceItem{
						{Name: "crypto gas", Observed: float64(cryptoGas), Threshold: expensiveMinCryptoGas},
						{Name: "computation gas", Observed: float64(computeGas), Threshold: expensiveMinComputGas},
					}
				}
				return nil
			},
			SavingsBase: func(p Profile) uint64 {
				return p.CategoryGas(opcode.Crypto) + p.CategoryGas(opcode.Computation)
			},
			Recommendations: []analysis.Recommendation{
				{Text: "Precompute constant hashes off-chain", Difficulty: analysis.DifficultyEasy},
				{Text: "Replace EXP with shifts for powers of two", Difficulty: analysis.DifficultyEasy},
			},
		},
	}
}
