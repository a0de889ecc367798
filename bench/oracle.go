package bench

import (
	"bytes"
	"fmt"

	"github.com/sarchlab/softcache/cache"
)

// A Mismatch names one resident-set slot whose content differs from the
// expected value.
type Mismatch struct {
	Slot     uint32
	Expected []byte
	Got      []byte
}

func (m Mismatch) String() string {
	return fmt.Sprintf("slot %d: expected %v, got %v",
		m.Slot, m.Expected, m.Got)
}

// An Oracle computes the expected resident-set contents after a known
// sequence of cache updates and checks a readback against it. The engine
// cannot detect content divergence itself; the oracle is the harness-side
// check.
type Oracle struct {
	store           *cache.BackingStore
	totalCacheLines uint32
}

// NewOracle creates an oracle over the given backing store. The store must
// not change between the update run and the check.
func NewOracle(store *cache.BackingStore, totalCacheLines uint32) *Oracle {
	return &Oracle{
		store:           store,
		totalCacheLines: totalCacheLines,
	}
}

// ExpectedResidentSet replays the schedule for the given number of steps and
// returns the resident-set contents the engine must produce: each slot holds
// the line of its last write, or zeros if no step ever wrote it. The
// schedule is restarted before the replay.
func (o *Oracle) ExpectedResidentSet(
	schedule cache.IndexSchedule,
	iterations int,
) [][]byte {
	lastSource := make([]int64, o.totalCacheLines)
	for i := range lastSource {
		lastSource[i] = -1
	}

	schedule.Restart()
	for step := 0; step < iterations; step++ {
		remote, local := schedule.Next()
		for i, l := range local {
			lastSource[l] = int64(remote[i])
		}
	}

	expected := make([][]byte, o.totalCacheLines)
	for slot, src := range lastSource {
		if src < 0 {
			expected[slot] = make([]byte, o.store.LineBytes())
			continue
		}

		line, err := o.store.Line(uint32(src))
		if err != nil {
			panic(err)
		}

		expected[slot] = line
	}

	return expected
}

// Verify compares a resident-set readback against the replayed schedule and
// returns all mismatching slots. An empty result means the readback is
// correct.
func (o *Oracle) Verify(
	got [][]byte,
	schedule cache.IndexSchedule,
	iterations int,
) []Mismatch {
	expected := o.ExpectedResidentSet(schedule, iterations)

	var mismatches []Mismatch
	for slot := range expected {
		if !bytes.Equal(expected[slot], got[slot]) {
			mismatches = append(mismatches, Mismatch{
				Slot:     uint32(slot),
				Expected: expected[slot],
				Got:      got[slot],
			})
		}
	}

	return mismatches
}
