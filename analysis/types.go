// Package analysis holds the input and derived data model shared by the
// trace aggregators and the engine. Inputs are produced upstream (trace
// fetching is not owned here) and are read-only to every consumer; all
// derived structures are plain serializable data.
package analysis

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TraceStep is one opcode execution from a flat struct log.
// Gas and size fields are signed so that malformed upstream data can be
// rejected with a diagnostic instead of failing at decode time.
type TraceStep struct {
	Step       int    `json:"step"`
	Op         string `json:"opcode"`
	GasCost    int64  `json:"gasCost"`
	Depth      int    `json:"depth"`
	StackDepth int    `json:"stackDepth"`
	MemorySize int64  `json:"memorySizeBytes"`
}

// OpcodeStat is one entry of the upstream top-opcodes summary.
type OpcodeStat struct {
	Op      string `json:"opcode"`
	Count   int64  `json:"count"`
	GasUsed int64  `json:"gasUsed"`
}

// StructLogSummary is the upstream-provided digest of a struct log.
type StructLogSummary struct {
	TotalSteps    int64 `json:"totalSteps"`
	TotalGasCost  int64 `json:"totalGasCost"`
	MaxStackDepth int   `json:"maxStackDepth"`
}

// StructLogTrace is the flat per-opcode trace form.
type StructLogTrace struct {
	Steps      []TraceStep      `json:"steps"`
	Summary    StructLogSummary `json:"summary"`
	TopOpcodes []OpcodeStat     `json:"topOpcodes,omitempty"`
}

// CallRecord is one call frame from a hierarchical call trace. TraceAddress
// locates the frame in the call tree: empty for a root, parent's address plus
// one trailing child index for everything else.
type CallRecord struct {
	ID            string         `json:"id"`
	ParentID      string         `json:"parentId,omitempty"`
	TraceAddress  []int          `json:"traceAddress"`
	From          common.Address `json:"from"`
	To            common.Address `json:"to"`
	Type          string         `json:"type"`
	GasUsed       int64          `json:"gasUsed"`
	Value         *uint256.Int   `json:"value,omitempty"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	ContractLabel string         `json:"contractLabel,omitempty"`
	InputPreview  string         `json:"inputPreview,omitempty"`
}

// TransactionStats is the upstream-provided digest of a call trace.
type TransactionStats struct {
	TotalCalls int64 `json:"totalCalls"`
	TotalGas   int64 `json:"totalGas"`
	Errors     int64 `json:"errors"`
}

// CallTrace is the hierarchical per-call trace form.
type CallTrace struct {
	CallData []CallRecord     `json:"callData"`
	Stats    TransactionStats `json:"transactionStats"`
}

// InputShape tags which of the two trace forms an Input carries.
type InputShape int

const (
	ShapeNeither InputShape = iota
	ShapeStructLogOnly
	ShapeCallTraceOnly
	ShapeBoth
)

func (s InputShape) String() string {
	switch s {
	case ShapeStructLogOnly:
		return "structlog"
	case ShapeCallTraceOnly:
		return "calltrace"
	case ShapeBoth:
		return "both"
	default:
		return "neither"
	}
}

// Input bundles the two optional trace forms handed to the engine. Either or
// both may be absent; Shape makes the four cases explicit so the zero-result
// path is handled deliberately rather than through nil checks scattered
// through the pipeline.
type Input struct {
	StructLog *StructLogTrace `json:"structLog,omitempty"`
	CallTrace *CallTrace      `json:"callTrace,omitempty"`
}

func (in Input) Shape() InputShape {
	switch {
	case in.StructLog != nil && in.CallTrace != nil:
		return ShapeBoth
	case in.StructLog != nil:
		return ShapeStructLogOnly
	case in.CallTrace != nil:
		return ShapeCallTraceOnly
	default:
		return ShapeNeither
	}
}

// PriceConfig is the externally supplied pricing used for cost estimates.
type PriceConfig struct {
	GasPriceGwei   float64 `json:"gasPriceGwei"`
	NativeUsdPrice float64 `json:"nativeUsdPrice"`
}
