// Package vm implements the dispatch loop, register file, decoder and
// executor for the 32-bit segmented-memory virtual machine. Segment
// storage itself lives in internal/segment; this package wires it to
// fetch-decode-execute and to the fault taxonomy the whole VM exits on.
package vm

import (
	"context"
	"fmt"

	"github.com/cbirsen/um-vm/internal/segment"
)

// VM holds all per-run state: the register file, the segmented memory
// manager, the program counter, and the host I/O streams.
type VM struct {
	Reg Registers
	Mem *segment.Store
	IO  IO

	// Tracer, if set, is called with the PC and raw code word immediately
	// before each instruction executes. It exists purely for --trace/-v
	// style diagnostics and has no effect on guest-visible behavior.
	Tracer func(pc uint32, word uint32)

	pc uint32

	// seg0 is a transient, non-owning view of segment 0's backing buffer.
	// It is refreshed exactly when LOADP replaces segment 0 (a copying
	// LOADP with a non-zero source) — see refreshSeg0 — never on every
	// dispatch iteration, per the hot-path requirement this VM implements.
	seg0 []uint32
}

// New returns a VM with program installed as segment 0 and PC at 0.
func New(program []uint32, io IO) *VM {
	mem := segment.New()
	mem.InstallProgram(program)
	v := &VM{Mem: mem, IO: io}
	v.refreshSeg0()
	return v
}

func (v *VM) refreshSeg0() {
	// Segment 0 is always mapped; New/InstallProgram
	// guarantee this before refreshSeg0 is ever called.
	buf, err := v.Mem.View(0)
	if err != nil {
		panic(fmt.Sprintf("vm: segment 0 unexpectedly unmapped: %v", err))
	}
	v.seg0 = buf
}

// signalKind distinguishes the three continuation signals an executor
// function can return to the dispatch loop.
type signalKind int

const (
	sigContinue signalKind = iota
	sigJump
	sigHalt
)

// Signal is the per-instruction directive returned by an executor
// function to the dispatch loop: Continue, Jump(pc), or Halt.
type Signal struct {
	kind signalKind
	to   uint32
}

// ContinueSignal advances PC by one, the default for every instruction
// that does not explicitly redirect control flow.
func ContinueSignal() Signal { return Signal{kind: sigContinue} }

// JumpSignal sets PC to to. Used only by LOADP.
func JumpSignal(to uint32) Signal { return Signal{kind: sigJump, to: to} }

// HaltSignal terminates dispatch with success. Used only by HALT.
func HaltSignal() Signal { return Signal{kind: sigHalt} }

// Run executes instructions from segment 0 starting at the current PC
// until HALT (nil return) or a fault (non-nil return). ctx is checked
// once per fetch as a host-side-only cancellation courtesy: cancellation
// has no guest-visible semantics and is indistinguishable from the host
// killing the process outright.
func (v *VM) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if v.pc >= uint32(len(v.seg0)) {
			return fmt.Errorf("%w: pc=%d len=%d", ErrCounterOutOfBounds, v.pc, len(v.seg0))
		}
		word := v.seg0[v.pc]
		if v.Tracer != nil {
			v.Tracer(v.pc, word)
		}

		sig, err := v.step(word)
		if err != nil {
			return err
		}
		switch sig.kind {
		case sigHalt:
			return nil
		case sigJump:
			v.pc = sig.to
		default:
			v.pc++
		}
	}
}

// step decodes and executes a single code word, returning the resulting
// continuation signal.
func (v *VM) step(word uint32) (Signal, error) {
	op := DecodeOpcode(word)
	if op == OpLV {
		a, imm := DecodeLoadValue(word)
		return execLV(v, a, imm)
	}
	if !op.Valid() {
		return Signal{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint32(op))
	}
	a, b, c := DecodeStandard(word)
	switch op {
	case OpCMOV:
		return execCMOV(v, a, b, c)
	case OpSLOAD:
		return execSLOAD(v, a, b, c)
	case OpSSTORE:
		return execSSTORE(v, a, b, c)
	case OpADD:
		return execADD(v, a, b, c)
	case OpMUL:
		return execMUL(v, a, b, c)
	case OpDIV:
		return execDIV(v, a, b, c)
	case OpNAND:
		return execNAND(v, a, b, c)
	case OpHALT:
		return execHALT(v, a, b, c)
	case OpMAP:
		return execMAP(v, a, b, c)
	case OpUNMAP:
		return execUNMAP(v, a, b, c)
	case OpOUT:
		return execOUT(v, a, b, c)
	case OpIN:
		return execIN(v, a, b, c)
	case OpLOADP:
		return execLOADP(v, a, b, c)
	default:
		return Signal{}, fmt.Errorf("%w: %d", ErrUnknownOpcode, uint32(op))
	}
}

// PC returns the current program counter.
func (v *VM) PC() uint32 { return v.pc }
