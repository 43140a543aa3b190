package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cbirsen/um-vm/internal/segment"
)

func newTestVM(program []uint32, stdin string) (*VM, *bytes.Buffer) {
	var out bytes.Buffer
	io := NewStdIO(bytes.NewBufferString(stdin), &out)
	return New(program, io), &out
}

func TestExecADDWraps(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(1, 0xffffffff)
	v.Reg.Set(2, 1)
	sig, err := execADD(v, 0, 1, 2)
	if err != nil || sig.kind != sigContinue {
		t.Fatalf("execADD: %v, %v", sig, err)
	}
	if v.Reg[0] != 0 {
		t.Errorf("0xffffffff + 1 = %#x, want 0", v.Reg[0])
	}
}

func TestExecMULWraps(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(1, 0x10000)
	v.Reg.Set(2, 0x10000)
	execMUL(v, 0, 1, 2)
	if v.Reg[0] != 0 {
		t.Errorf("0x10000 * 0x10000 = %#x, want 0", v.Reg[0])
	}
}

func TestExecDIVByZeroFaults(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(1, 10)
	v.Reg.Set(2, 0)
	_, err := execDIV(v, 0, 1, 2)
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("execDIV by zero = %v, want ErrDivisionByZero", err)
	}
}

func TestExecDIVZeroDividend(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(1, 0)
	v.Reg.Set(2, 5)
	execDIV(v, 0, 1, 2)
	if v.Reg[0] != 0 {
		t.Errorf("0/5 = %d, want 0", v.Reg[0])
	}
}

func TestExecNAND(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(1, 0xffffffff)
	v.Reg.Set(2, 0xffffffff)
	execNAND(v, 0, 1, 2)
	if v.Reg[0] != 0 {
		t.Errorf("NAND(x,x) with x=all-ones = %#x, want 0 (not all-ones)", v.Reg[0])
	}
	v.Reg.Set(1, 0)
	v.Reg.Set(2, 0)
	execNAND(v, 0, 1, 2)
	if v.Reg[0] != 0xffffffff {
		t.Errorf("NAND(0,0) = %#x, want 0xffffffff", v.Reg[0])
	}
}

func TestExecOUTOutOfRangeFaults(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(2, 256)
	_, err := execOUT(v, 0, 1, 2)
	if !errors.Is(err, ErrIOOutOfRange) {
		t.Fatalf("execOUT(256) = %v, want ErrIOOutOfRange", err)
	}
}

func TestExecOUTWritesByte(t *testing.T) {
	v, out := newTestVM([]uint32{0}, "")
	v.Reg.Set(2, 'A')
	if _, err := execOUT(v, 0, 1, 2); err != nil {
		t.Fatalf("execOUT: %v", err)
	}
	if out.String() != "A" {
		t.Errorf("stdout = %q, want %q", out.String(), "A")
	}
}

func TestExecINReturnsByteThenStickyEOF(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "h")
	execIN(v, 0, 1, 2)
	if v.Reg[2] != 'h' {
		t.Fatalf("first IN = %d, want 'h'", v.Reg[2])
	}
	execIN(v, 0, 1, 2)
	if v.Reg[2] != 0xffffffff {
		t.Fatalf("IN at EOF = %#x, want 0xffffffff", v.Reg[2])
	}
	execIN(v, 0, 1, 2)
	if v.Reg[2] != 0xffffffff {
		t.Fatalf("second IN after EOF = %#x, want 0xffffffff (sticky)", v.Reg[2])
	}
}

func TestExecUNMAPZeroFaults(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(2, 0)
	_, err := execUNMAP(v, 0, 1, 2)
	if !errors.Is(err, segment.ErrFaultyUnmap) {
		t.Fatalf("execUNMAP(0) = %v, want ErrFaultyUnmap", err)
	}
}

func TestExecMAPZeroWords(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(2, 0)
	sig, err := execMAP(v, 0, 1, 2)
	if err != nil || sig.kind != sigContinue {
		t.Fatalf("execMAP(0): %v, %v", sig, err)
	}
	n, err := v.Mem.Len(v.Reg[1])
	if err != nil || n != 0 {
		t.Fatalf("mapped segment length = %d, %v; want 0, nil", n, err)
	}
}

func TestExecLOADPZeroSourceIsPureJump(t *testing.T) {
	v, _ := newTestVM([]uint32{0, 0, 0, 0, 0}, "")
	v.Reg.Set(1, 0) // R[B] == 0: no duplication
	v.Reg.Set(2, 3) // R[C]: new pc
	before := v.Reg
	sig, err := execLOADP(v, 0, 1, 2)
	if err != nil {
		t.Fatalf("execLOADP: %v", err)
	}
	if sig.kind != sigJump || sig.to != 3 {
		t.Fatalf("execLOADP signal = %+v, want Jump(3)", sig)
	}
	if v.Reg != before {
		t.Fatalf("LOADP with R[B]=0 must not otherwise change register state: got %v, want %v", v.Reg, before)
	}
}

func TestExecLOADPCopiesAndRefreshesSeg0(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	id := v.Mem.Map(2)
	v.Mem.Write(id, 0, 0xAAAA)
	v.Mem.Write(id, 1, 0xBBBB)
	v.Reg.Set(1, id)
	v.Reg.Set(2, 1)

	sig, err := execLOADP(v, 0, 1, 2)
	if err != nil {
		t.Fatalf("execLOADP: %v", err)
	}
	if sig.kind != sigJump || sig.to != 1 {
		t.Fatalf("signal = %+v, want Jump(1)", sig)
	}
	if len(v.seg0) != 2 || v.seg0[0] != 0xAAAA || v.seg0[1] != 0xBBBB {
		t.Fatalf("cached seg0 view not refreshed: %v", v.seg0)
	}
}

func TestExecSSTORELOADRoundTrip(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	id := v.Mem.Map(4)
	v.Reg.Set(0, id) // segment for store
	v.Reg.Set(1, 2)  // offset
	v.Reg.Set(2, 99) // value
	if _, err := execSSTORE(v, 0, 1, 2); err != nil {
		t.Fatalf("execSSTORE: %v", err)
	}
	v.Reg.Set(5, id)
	v.Reg.Set(6, 2)
	if _, err := execSLOAD(v, 4, 5, 6); err != nil {
		t.Fatalf("execSLOAD: %v", err)
	}
	if v.Reg[4] != 99 {
		t.Fatalf("SLOAD after SSTORE = %d, want 99", v.Reg[4])
	}
}

func TestExecCMOV(t *testing.T) {
	v, _ := newTestVM([]uint32{0}, "")
	v.Reg.Set(0, 111)
	v.Reg.Set(1, 222)
	v.Reg.Set(2, 0) // condition false: no move
	execCMOV(v, 0, 1, 2)
	if v.Reg[0] != 111 {
		t.Fatalf("CMOV with false condition moved: %d", v.Reg[0])
	}
	v.Reg.Set(2, 1)
	execCMOV(v, 0, 1, 2)
	if v.Reg[0] != 222 {
		t.Fatalf("CMOV with true condition did not move: %d", v.Reg[0])
	}
}
