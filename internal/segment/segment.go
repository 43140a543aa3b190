// Package segment implements the VM's segmented memory manager: a
// growable table of word-addressed segments, identifier recycling via a
// free list, and the handful of operations the dispatch loop needs to
// fetch, mutate and duplicate them.
//
// Identifier 0 is permanently reserved for the program segment and is
// never placed on the free list. Every other live identifier is either
// present in the table with a non-nil buffer, or sits on the free list
// waiting to be reused by the next Map call.
package segment

import "fmt"

// Sentinel faults. All are fatal to the VM; see the vm package for how
// they propagate out of the dispatch loop.
var (
	ErrUnmapped    = fmt.Errorf("segment: not mapped")
	ErrOutOfBounds = fmt.Errorf("segment: offset or id out of bounds")
	ErrFaultyUnmap = fmt.Errorf("segment: invalid unmap")
)

// Store owns every segment's backing buffer. The zero value is an empty
// Store, the same as New returns; install a program before use.
type Store struct {
	segments [][]uint32 // nil entry == unmapped
	free     []uint32   // LIFO stack of reusable ids, never contains 0
}

// New returns an empty Store with no program installed yet.
func New() *Store {
	return &Store{}
}

// InstallProgram creates segment 0 holding a copy of words. It may be
// called more than once (e.g. to reset a Store); doing so discards any
// prior segment 0 contents but never touches the free list.
func (s *Store) InstallProgram(words []uint32) {
	buf := make([]uint32, len(words))
	copy(buf, words)
	if len(s.segments) == 0 {
		s.segments = append(s.segments, buf)
		return
	}
	s.segments[0] = buf
}

// Len returns the number of words in segment id, or an error if id is not
// currently mapped.
func (s *Store) Len(id uint32) (int, error) {
	buf, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Read returns the word at offset in segment id.
func (s *Store) Read(id, offset uint32) (uint32, error) {
	buf, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if offset >= uint32(len(buf)) {
		return 0, fmt.Errorf("%w: offset %d >= length %d", ErrOutOfBounds, offset, len(buf))
	}
	return buf[offset], nil
}

// Write stores word at offset in segment id.
func (s *Store) Write(id, offset, word uint32) error {
	buf, err := s.lookup(id)
	if err != nil {
		return err
	}
	if offset >= uint32(len(buf)) {
		return fmt.Errorf("%w: offset %d >= length %d", ErrOutOfBounds, offset, len(buf))
	}
	buf[offset] = word
	return nil
}

// Map allocates an n-word zero-filled segment and returns its id. If the
// free list is non-empty the id is popped (LIFO) from it; otherwise a new
// id equal to the current table length is appended.
func (s *Store) Map(n uint32) uint32 {
	buf := make([]uint32, n)
	if last := len(s.free); last > 0 {
		id := s.free[last-1]
		s.free = s.free[:last-1]
		s.segments[id] = buf
		return id
	}
	id := uint32(len(s.segments))
	s.segments = append(s.segments, buf)
	return id
}

// Unmap releases segment id's buffer and returns its identifier to the
// free list. It fails with ErrFaultyUnmap for id 0 or an already-unmapped
// id; the check happens before any mutation, so a faulting Unmap leaves
// the free list untouched.
func (s *Store) Unmap(id uint32) error {
	if id == 0 {
		return fmt.Errorf("%w: cannot unmap segment 0", ErrFaultyUnmap)
	}
	if id >= uint32(len(s.segments)) {
		return fmt.Errorf("%w: id %d out of bounds", ErrOutOfBounds, id)
	}
	if s.segments[id] == nil {
		return fmt.Errorf("%w: id %d already unmapped", ErrFaultyUnmap, id)
	}
	s.segments[id] = nil
	s.free = append(s.free, id)
	return nil
}

// DuplicateIntoZero deep-copies segment id's buffer into segment 0,
// replacing it wholesale; the source segment is left intact. id 0 is the
// identity operation and always succeeds without allocating.
func (s *Store) DuplicateIntoZero(id uint32) error {
	if id == 0 {
		return nil
	}
	buf, err := s.lookup(id)
	if err != nil {
		return err
	}
	dup := make([]uint32, len(buf))
	copy(dup, buf)
	s.segments[0] = dup
	return nil
}

// View returns the live buffer backing segment id; the dispatch loop uses
// it for segment 0. The returned slice is a transient, non-owning view: it
// is only valid until the next call that replaces or releases that
// segment's buffer (for segment 0: InstallProgram or a DuplicateIntoZero
// with a non-zero id). Callers must not retain it across such a call.
func (s *Store) View(id uint32) ([]uint32, error) {
	return s.lookup(id)
}

func (s *Store) lookup(id uint32) ([]uint32, error) {
	if id >= uint32(len(s.segments)) {
		return nil, fmt.Errorf("%w: id %d out of bounds", ErrOutOfBounds, id)
	}
	buf := s.segments[id]
	if buf == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnmapped, id)
	}
	return buf, nil
}
