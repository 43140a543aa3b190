package vm

import (
	"fmt"

	"github.com/cbirsen/um-vm/internal/bitfield"
)

// Opcode identifies one of the fourteen instructions a code word encodes.
type Opcode uint32

// The instruction set. Opcodes 0-12 use the standard three-register
// operand format; opcode 13 (LV) uses the load-value format instead.
const (
	OpCMOV Opcode = iota
	OpSLOAD
	OpSSTORE
	OpADD
	OpMUL
	OpDIV
	OpNAND
	OpHALT
	OpMAP
	OpUNMAP
	OpOUT
	OpIN
	OpLOADP
	OpLV
	opCount
)

var opcodeNames = [opCount]string{
	OpCMOV: "cmov", OpSLOAD: "sload", OpSSTORE: "sstore", OpADD: "add",
	OpMUL: "mul", OpDIV: "div", OpNAND: "nand", OpHALT: "halt",
	OpMAP: "map", OpUNMAP: "unmap", OpOUT: "out", OpIN: "in",
	OpLOADP: "loadp", OpLV: "lv",
}

func (op Opcode) String() string {
	if op < opCount {
		return opcodeNames[op]
	}
	return "unknown"
}

// Valid reports whether op names one of the fourteen defined instructions.
func (op Opcode) Valid() bool {
	return op < opCount
}

// field positions: opcode occupies bits 31..28 of every code word.
const (
	opcodeWidth = 4
	opcodeLSB   = 28
)

// Standard operand format (opcodes 0-12): registers A, B, C in bits
// 8..6, 5..3, 2..0. Bits 27..9 are reserved and ignored.
const (
	regWidth = 3
	aLSB     = 6
	bLSB     = 3
	cLSB     = 0
)

// Load-value operand format (opcode 13): register A in bits 27..25, a
// 25-bit zero-extended immediate in bits 24..0.
const (
	lvRegWidth = 3
	lvRegLSB   = 25
	lvImmWidth = 25
	lvImmLSB   = 0
)

// DecodeOpcode extracts the opcode field from a 32-bit code word.
func DecodeOpcode(word uint32) Opcode {
	return Opcode(bitfield.GetUnsigned(uint64(word), opcodeWidth, opcodeLSB))
}

// DecodeStandard extracts the A, B, C register operands from a code word
// encoded in the standard three-register format.
func DecodeStandard(word uint32) (a, b, c uint32) {
	a = uint32(bitfield.GetUnsigned(uint64(word), regWidth, aLSB))
	b = uint32(bitfield.GetUnsigned(uint64(word), regWidth, bLSB))
	c = uint32(bitfield.GetUnsigned(uint64(word), regWidth, cLSB))
	return a, b, c
}

// DecodeLoadValue extracts the destination register and the zero-extended
// 25-bit immediate from a code word encoded in the load-value format.
func DecodeLoadValue(word uint32) (a uint32, imm uint32) {
	a = uint32(bitfield.GetUnsigned(uint64(word), lvRegWidth, lvRegLSB))
	imm = uint32(bitfield.GetUnsigned(uint64(word), lvImmWidth, lvImmLSB))
	return a, imm
}

// Disassemble renders a single code word as assembly-like text, purely as
// a host-side debugging aid (see --trace in cmd/um); it has no effect on
// guest-visible behavior.
func Disassemble(word uint32) string {
	op := DecodeOpcode(word)
	if !op.Valid() {
		return "<unknown opcode>"
	}
	if op == OpLV {
		a, imm := DecodeLoadValue(word)
		return fmt.Sprintf("%s r%d, %d", op, a, imm)
	}
	a, b, c := DecodeStandard(word)
	switch op {
	case OpHALT:
		return op.String()
	case OpMAP:
		return fmt.Sprintf("%s r%d, r%d", op, b, c)
	case OpUNMAP:
		return fmt.Sprintf("%s r%d", op, c)
	case OpOUT, OpIN:
		return fmt.Sprintf("%s r%d", op, c)
	case OpLOADP:
		return fmt.Sprintf("%s r%d, r%d", op, b, c)
	default:
		return fmt.Sprintf("%s r%d, r%d, r%d", op, a, b, c)
	}
}
