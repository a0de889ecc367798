package cache

import "fmt"

// A BackingStore keeps the full set of cacheable lines. It is the large,
// slow tier of the hierarchy, addressed by line index. Lines that are never
// written stay unallocated and read back as zeros.
type BackingStore struct {
	numLines  uint32
	lineBytes int
	lines     [][]byte
}

// NewBackingStore creates a backing store that holds numLines lines of
// lineBytes bytes each.
func NewBackingStore(numLines uint32, lineBytes int) *BackingStore {
	if numLines == 0 {
		panic("backing store must hold at least one line")
	}

	if lineBytes <= 0 {
		panic("line size must be positive")
	}

	return &BackingStore{
		numLines:  numLines,
		lineBytes: lineBytes,
		lines:     make([][]byte, numLines),
	}
}

// NumLines returns the number of lines the store can hold.
func (s *BackingStore) NumLines() uint32 {
	return s.numLines
}

// LineBytes returns the size of each line in bytes.
func (s *BackingStore) LineBytes() int {
	return s.lineBytes
}

// Put overwrites the line at the given index. The store keeps its own copy
// of the data. An out-of-range index or a wrongly sized line leaves the
// store untouched.
func (s *BackingStore) Put(index uint32, line []byte) error {
	if index >= s.numLines {
		return fmt.Errorf(
			"backing store put index %d out of range [0, %d)",
			index, s.numLines)
	}

	if len(line) != s.lineBytes {
		return fmt.Errorf(
			"backing store line must be %d bytes, got %d",
			s.lineBytes, len(line))
	}

	if s.lines[index] == nil {
		s.lines[index] = make([]byte, s.lineBytes)
	}

	copy(s.lines[index], line)

	return nil
}

// Pull copies the lines named by indices into dst, in order. Duplicate
// indices are legal and each yields an independent copy. The whole batch is
// validated before any line is copied.
func (s *BackingStore) Pull(indices []uint32, dst *StagingBuffer) error {
	if len(indices) != dst.NumLines() {
		return fmt.Errorf(
			"pull needs %d indices, got %d", dst.NumLines(), len(indices))
	}

	if dst.LineBytes() != s.lineBytes {
		return fmt.Errorf(
			"staging line size %d does not match store line size %d",
			dst.LineBytes(), s.lineBytes)
	}

	for i, index := range indices {
		if index >= s.numLines {
			return fmt.Errorf(
				"pull index %d (position %d) out of range [0, %d)",
				index, i, s.numLines)
		}
	}

	for i, index := range indices {
		line := s.lines[index]
		if line == nil {
			dst.zeroLine(i)
			continue
		}

		copy(dst.Line(i), line)
	}

	return nil
}

// copyLines moves the lines named by indices[lo:hi] into the matching
// staging slots. Indices must already be validated; this is the copy task
// body that a plan fans out across workers.
func (s *BackingStore) copyLines(
	indices []uint32,
	dst *StagingBuffer,
	lo, hi int,
) {
	for i := lo; i < hi; i++ {
		line := s.lines[indices[i]]
		if line == nil {
			dst.zeroLine(i)
			continue
		}

		copy(dst.Line(i), line)
	}
}

// Line returns a copy of the line at the given index. It is intended for
// diagnostics and verification.
func (s *BackingStore) Line(index uint32) ([]byte, error) {
	if index >= s.numLines {
		return nil, fmt.Errorf(
			"backing store read index %d out of range [0, %d)",
			index, s.numLines)
	}

	line := make([]byte, s.lineBytes)
	copy(line, s.lines[index])

	return line, nil
}
