package vm

import (
	"bufio"
	"io"
)

// IO is the VM's byte-granular standard stream abstraction: a small
// register-backed in/out device, minus any network transport, since guest
// I/O here is always exactly the process's own stdin/stdout.
type IO interface {
	// InByte returns the next input byte, or ok=false at end-of-input.
	// End-of-input is sticky: once ok is false it stays false forever.
	InByte() (b byte, ok bool, err error)
	// OutByte writes one byte to the output stream, in program order.
	OutByte(b byte) error
}

// StdIO implements IO against an io.Reader and io.Writer, buffering both
// ends but guaranteeing OUT bytes are written in program order. Once the
// reader reports EOF, every subsequent InByte also reports EOF (the
// sticky-EOF requirement) rather than probing the reader again.
type StdIO struct {
	in  *bufio.Reader
	out *bufio.Writer
	eof bool
}

// NewStdIO wraps r and w as a VM's console.
func NewStdIO(r io.Reader, w io.Writer) *StdIO {
	return &StdIO{in: bufio.NewReader(r), out: bufio.NewWriter(w)}
}

// InByte implements IO.
func (s *StdIO) InByte() (byte, bool, error) {
	if s.eof {
		return 0, false, nil
	}
	b, err := s.in.ReadByte()
	if err != nil {
		if err == io.EOF {
			s.eof = true
			return 0, false, nil
		}
		return 0, false, err
	}
	return b, true, nil
}

// OutByte implements IO. Each call flushes immediately so that output is
// visible in program order even if the process halts or faults right
// after writing.
func (s *StdIO) OutByte(b byte) error {
	if err := s.out.WriteByte(b); err != nil {
		return err
	}
	return s.out.Flush()
}
