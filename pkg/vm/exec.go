package vm

import "fmt"

// Each exec* function implements exactly one opcode: it validates its
// register operands, performs the instruction's effect against the
// register file, segmented memory, and/or host I/O, and returns the
// continuation signal the dispatch loop should apply.

func execCMOV(v *VM, a, b, c uint32) (Signal, error) {
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if rc != 0 {
		rb, err := v.Reg.Get(b)
		if err != nil {
			return Signal{}, err
		}
		if err := v.Reg.Set(a, rb); err != nil {
			return Signal{}, err
		}
	}
	return ContinueSignal(), nil
}

func execSLOAD(v *VM, a, b, c uint32) (Signal, error) {
	segID, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	offset, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	word, err := v.Mem.Read(segID, offset)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Reg.Set(a, word); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execSSTORE(v *VM, a, b, c uint32) (Signal, error) {
	segID, err := v.Reg.Get(a)
	if err != nil {
		return Signal{}, err
	}
	offset, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	word, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Mem.Write(segID, offset, word); err != nil {
		return Signal{}, err
	}
	// A store into segment 0 changes the buffer in place (no reallocation),
	// so the cached view in v.seg0 already reflects it; no refresh needed.
	return ContinueSignal(), nil
}

func execADD(v *VM, a, b, c uint32) (Signal, error) {
	rb, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Reg.Set(a, rb+rc); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execMUL(v *VM, a, b, c uint32) (Signal, error) {
	rb, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Reg.Set(a, rb*rc); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execDIV(v *VM, a, b, c uint32) (Signal, error) {
	rb, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if rc == 0 {
		return Signal{}, fmt.Errorf("%w", ErrDivisionByZero)
	}
	if err := v.Reg.Set(a, rb/rc); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execNAND(v *VM, a, b, c uint32) (Signal, error) {
	rb, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Reg.Set(a, ^(rb & rc)); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execHALT(v *VM, a, b, c uint32) (Signal, error) {
	return HaltSignal(), nil
}

func execMAP(v *VM, a, b, c uint32) (Signal, error) {
	n, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	id := v.Mem.Map(n)
	if err := v.Reg.Set(b, id); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execUNMAP(v *VM, a, b, c uint32) (Signal, error) {
	id, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if err := v.Mem.Unmap(id); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execOUT(v *VM, a, b, c uint32) (Signal, error) {
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if rc > 0xff {
		return Signal{}, fmt.Errorf("%w: %d", ErrIOOutOfRange, rc)
	}
	if err := v.IO.OutByte(byte(rc)); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execIN(v *VM, a, b, c uint32) (Signal, error) {
	b8, ok, err := v.IO.InByte()
	if err != nil {
		return Signal{}, err
	}
	var word uint32
	if ok {
		word = uint32(b8)
	} else {
		word = 0xffffffff
	}
	if err := v.Reg.Set(c, word); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}

func execLOADP(v *VM, a, b, c uint32) (Signal, error) {
	rb, err := v.Reg.Get(b)
	if err != nil {
		return Signal{}, err
	}
	rc, err := v.Reg.Get(c)
	if err != nil {
		return Signal{}, err
	}
	if rb != 0 {
		if err := v.Mem.DuplicateIntoZero(rb); err != nil {
			return Signal{}, err
		}
		v.refreshSeg0()
	}
	return JumpSignal(rc), nil
}

func execLV(v *VM, a, imm uint32) (Signal, error) {
	if err := v.Reg.Set(a, imm); err != nil {
		return Signal{}, err
	}
	return ContinueSignal(), nil
}
