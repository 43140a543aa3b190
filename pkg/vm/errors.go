package vm

import "fmt"

// Fault sentinels. All are fatal: a fault terminates the dispatch loop
// immediately and is never caught by the guest program.
var (
	ErrDivisionByZero     = fmt.Errorf("vm: division by zero")
	ErrIOOutOfRange       = fmt.Errorf("vm: I/O value out of byte range")
	ErrCounterOutOfBounds = fmt.Errorf("vm: program counter out of bounds")
	ErrUnknownOpcode      = fmt.Errorf("vm: unknown opcode")
	ErrTruncatedProgram   = fmt.Errorf("vm: program length not a multiple of 4 bytes")
)
