package cache

import "fmt"

// A ResidentSet holds the lines currently cached in the fast tier. Despite
// the name it is not enforced as a set: duplicate destinations within one
// scatter batch are legal and the last write wins.
type ResidentSet struct {
	numLines  uint32
	lineBytes int
	data      []byte
}

// NewResidentSet creates a resident set of numLines lines of lineBytes bytes
// each. All lines start zero-filled.
func NewResidentSet(numLines uint32, lineBytes int) *ResidentSet {
	if numLines == 0 {
		panic("resident set must hold at least one line")
	}

	if lineBytes <= 0 {
		panic("line size must be positive")
	}

	return &ResidentSet{
		numLines:  numLines,
		lineBytes: lineBytes,
		data:      make([]byte, int(numLines)*lineBytes),
	}
}

// NumLines returns the number of slots in the resident set.
func (r *ResidentSet) NumLines() uint32 {
	return r.numLines
}

// LineBytes returns the size of each line in bytes.
func (r *ResidentSet) LineBytes() int {
	return r.lineBytes
}

// Scatter writes src line i into slot destinations[i], fully overwriting
// each named slot. The whole batch is validated before any slot is written.
// Positions are applied in order, so a duplicated destination ends up
// holding the line from its last occurrence.
func (r *ResidentSet) Scatter(src *StagingBuffer, destinations []uint32) error {
	if len(destinations) != src.NumLines() {
		return fmt.Errorf(
			"scatter needs %d destinations, got %d",
			src.NumLines(), len(destinations))
	}

	if src.LineBytes() != r.lineBytes {
		return fmt.Errorf(
			"staging line size %d does not match resident line size %d",
			src.LineBytes(), r.lineBytes)
	}

	for i, dst := range destinations {
		if dst >= r.numLines {
			return fmt.Errorf(
				"scatter destination %d (position %d) out of range [0, %d)",
				dst, i, r.numLines)
		}
	}

	for i, dst := range destinations {
		start := int(dst) * r.lineBytes
		copy(r.data[start:start+r.lineBytes], src.Line(i))
	}

	return nil
}

// Line returns a copy of the line in the given slot.
func (r *ResidentSet) Line(index uint32) ([]byte, error) {
	if index >= r.numLines {
		return nil, fmt.Errorf(
			"resident set read index %d out of range [0, %d)",
			index, r.numLines)
	}

	line := make([]byte, r.lineBytes)
	start := int(index) * r.lineBytes
	copy(line, r.data[start:start+r.lineBytes])

	return line, nil
}

// ReadAll returns a copy of every line, in slot order. It is the readback
// used for diagnostics and verification.
func (r *ResidentSet) ReadAll() [][]byte {
	lines := make([][]byte, r.numLines)
	for i := uint32(0); i < r.numLines; i++ {
		lines[i], _ = r.Line(i)
	}

	return lines
}
