package cache

import "fmt"

// A StagingBuffer bridges the two tiers during a cache update. Fetched lines
// land here before they are scattered into the resident set. The pipelined
// controller keeps one staging buffer per execution domain and exchanges
// them between steps.
type StagingBuffer struct {
	numLines  int
	lineBytes int
	data      []byte
}

// NewStagingBuffer creates a staging buffer for numLines lines of lineBytes
// bytes each.
func NewStagingBuffer(numLines, lineBytes int) *StagingBuffer {
	if numLines <= 0 || lineBytes <= 0 {
		panic("staging buffer dimensions must be positive")
	}

	return &StagingBuffer{
		numLines:  numLines,
		lineBytes: lineBytes,
		data:      make([]byte, numLines*lineBytes),
	}
}

// NumLines returns the number of lines the buffer holds.
func (b *StagingBuffer) NumLines() int {
	return b.numLines
}

// LineBytes returns the size of each line in bytes.
func (b *StagingBuffer) LineBytes() int {
	return b.lineBytes
}

// Line returns the i-th line as a mutable slice of the underlying storage.
func (b *StagingBuffer) Line(i int) []byte {
	start := i * b.lineBytes
	return b.data[start : start+b.lineBytes]
}

// CopyFrom overwrites the buffer contents with the contents of src. This is
// the exchange that moves fetched lines from the IO domain to the compute
// domain.
func (b *StagingBuffer) CopyFrom(src *StagingBuffer) {
	if b.numLines != src.numLines || b.lineBytes != src.lineBytes {
		panic(fmt.Sprintf(
			"staging buffer shape mismatch: %dx%d vs %dx%d",
			b.numLines, b.lineBytes, src.numLines, src.lineBytes))
	}

	copy(b.data, src.data)
}

func (b *StagingBuffer) zeroLine(i int) {
	line := b.Line(i)
	for j := range line {
		line[j] = 0
	}
}
