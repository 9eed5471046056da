// Package opcode maps EVM opcode mnemonics to the semantic gas categories used
// by the aggregators. The mapping is total: mnemonics the table does not know
// fall into Other, never an error.
package opcode

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/core/vm"
)

// Category is a semantic class of EVM opcodes for gas attribution.
type Category int

const (
	Computation Category = iota // arithmetic, comparison, bitwise
	Storage                     // persistent and transient state access
	Memory                      // memory, stack and copy operations
	ControlFlow                 // jumps, halts, reverts
	System                      // calls, creates, environment, logs
	Crypto                      // hashing
	Other
)

var categoryNames = [...]string{
	Computation: "Computation",
	Storage:     "Storage",
	Memory:      "Memory",
	ControlFlow: "ControlFlow",
	System:      "System",
	Crypto:      "Crypto",
	Other:       "Other",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Other"
}

// MarshalText renders the category name so derived structures serialize as
// plain data across the export boundary.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	for i, name := range categoryNames {
		if name == string(text) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown gas category %q", text)
}

// Chart colors keyed by category, consumed by the presentation layer.
var categoryColors = [...]string{
	Computation: "#3b82f6",
	Storage:     "#ef4444",
	Memory:      "#10b981",
	ControlFlow: "#f59e0b",
	System:      "#8b5cf6",
	Crypto:      "#ec4899",
	Other:       "#6b7280",
}

// Color returns the display color for the category.
func (c Category) Color() string {
	if int(c) < len(categoryColors) {
		return categoryColors[c]
	}
	return categoryColors[Other]
}

// Categories returns all categories in their fixed declaration order.
func Categories() []Category {
	return []Category{Computation, Storage, Memory, ControlFlow, System, Crypto, Other}
}

var byMnemonic map[string]Category

func init() {
	byMnemonic = make(map[string]Category, 160)
	add := func(cat Category, ops ...vm.OpCode) {
		for _, op := range ops {
			byMnemonic[op.String()] = cat
		}
	}

	add(Computation,
		vm.ADD, vm.MUL, vm.SUB, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.ADDMOD,
		vm.MULMOD, vm.EXP, vm.SIGNEXTEND,
		vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.ISZERO,
		vm.AND, vm.OR, vm.XOR, vm.NOT, vm.BYTE, vm.SHL, vm.SHR, vm.SAR,
	)
	add(Storage, vm.SLOAD, vm.SSTORE, vm.TLOAD, vm.TSTORE)
	add(Memory,
		vm.MLOAD, vm.MSTORE, vm.MSTORE8, vm.MSIZE, vm.MCOPY, vm.POP,
		vm.CALLDATACOPY, vm.CODECOPY, vm.EXTCODECOPY, vm.RETURNDATACOPY,
	)
	for op := vm.PUSH0; op <= vm.PUSH32; op++ {
		byMnemonic[op.String()] = Memory
	}
	for op := vm.OpCode(vm.DUP1); op <= vm.DUP16; op++ {
		byMnemonic[op.String()] = Memory
	}
	for op := vm.OpCode(vm.SWAP1); op <= vm.SWAP16; op++ {
		byMnemonic[op.String()] = Memory
	}
	add(ControlFlow, vm.JUMP, vm.JUMPI, vm.JUMPDEST, vm.PC, vm.STOP, vm.RETURN, vm.REVERT, vm.INVALID)
	add(System,
		vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL,
		vm.CREATE, vm.CREATE2, vm.SELFDESTRUCT,
		vm.ADDRESS, vm.BALANCE, vm.ORIGIN, vm.CALLER, vm.CALLVALUE,
		vm.CALLDATALOAD, vm.CALLDATASIZE, vm.CODESIZE, vm.GASPRICE,
		vm.EXTCODESIZE, vm.EXTCODEHASH, vm.RETURNDATASIZE, vm.GAS,
		vm.BLOCKHASH, vm.COINBASE, vm.TIMESTAMP, vm.NUMBER, vm.DIFFICULTY,
		vm.GASLIMIT, vm.CHAINID, vm.SELFBALANCE, vm.BASEFEE, vm.BLOBHASH,
		vm.BLOBBASEFEE,
		vm.LOG0, vm.LOG1, vm.LOG2, vm.LOG3, vm.LOG4,
	)
	add(Crypto, vm.KECCAK256)

	// Mnemonic aliases: pre/post-merge names for 0x44 and the old hash name.
	byMnemonic["SHA3"] = Crypto
	byMnemonic["DIFFICULTY"] = System
	byMnemonic["PREVRANDAO"] = System
}

// Categorize maps a mnemonic to its category. Matching is case-insensitive;
// unknown mnemonics map to Other.
func Categorize(mnemonic string) Category {
	if cat, ok := byMnemonic[mnemonic]; ok {
		return cat
	}
	if cat, ok := byMnemonic[strings.ToUpper(mnemonic)]; ok {
		return cat
	}
	return Other
}
