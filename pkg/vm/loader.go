package vm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// LoadProgram reads r as a stream of 32-bit big-endian words (bits 31..24
// first in each 4-byte group) and returns them as the initial contents of
// segment 0. An input whose byte length is not a multiple of 4 is
// malformed and reported as ErrTruncatedProgram. An empty input yields an
// empty program, which faults at the very first fetch (see VM.Run).
func LoadProgram(r io.Reader) ([]uint32, error) {
	var words []uint32
	var buf [4]byte
	for {
		n, err := io.ReadFull(r, buf[:])
		switch {
		case n == 0 && err == io.EOF:
			return words, nil
		case err == io.ErrUnexpectedEOF:
			return nil, fmt.Errorf("%w: %d trailing byte(s)", ErrTruncatedProgram, n)
		case err != nil:
			return nil, err
		}
		words = append(words, binary.BigEndian.Uint32(buf[:]))
	}
}
