package cache

import "math/rand"

// An IndexSchedule produces the (remote, local) index pair for each cache
// update. The many benchmark front-ends differ only in this policy, so the
// engine takes it as a strategy.
//
// The returned slices are owned by the schedule and are only valid until the
// next call to Next. Restart rewinds the schedule to its first step; every
// schedule in this package is deterministic under Restart.
type IndexSchedule interface {
	Next() (remote, local []uint32)
	Restart()
}

// A FixedSchedule replays the same host-supplied index pair every step.
type FixedSchedule struct {
	remote []uint32
	local  []uint32
}

// NewFixedSchedule creates a schedule that always returns the given pair.
func NewFixedSchedule(remote, local []uint32) *FixedSchedule {
	s := &FixedSchedule{
		remote: make([]uint32, len(remote)),
		local:  make([]uint32, len(local)),
	}
	copy(s.remote, remote)
	copy(s.local, local)

	return s
}

// Next returns the fixed index pair.
func (s *FixedSchedule) Next() (remote, local []uint32) {
	return s.remote, s.local
}

// Restart does nothing; the schedule is stateless.
func (s *FixedSchedule) Restart() {}

// A StrideSchedule advances the indices by a fixed stride each step, modulo
// the capacity of each tier. This is the self-driven variant: the host does
// not supply indices per step.
type StrideSchedule struct {
	fetchCount       int
	stride           uint32
	cacheableSetSize uint32
	totalCacheLines  uint32

	step   uint32
	remote []uint32
	local  []uint32
}

// NewStrideSchedule creates a stride schedule. Step k fetches lines
// (k*stride+i) mod cacheableSetSize into slots (k*stride+i) mod
// totalCacheLines for i in [0, fetchCount).
func NewStrideSchedule(
	fetchCount int,
	stride uint32,
	cacheableSetSize uint32,
	totalCacheLines uint32,
) *StrideSchedule {
	return &StrideSchedule{
		fetchCount:       fetchCount,
		stride:           stride,
		cacheableSetSize: cacheableSetSize,
		totalCacheLines:  totalCacheLines,
		remote:           make([]uint32, fetchCount),
		local:            make([]uint32, fetchCount),
	}
}

// Next returns the indices for the current step and advances the stride.
func (s *StrideSchedule) Next() (remote, local []uint32) {
	base := s.step * s.stride
	for i := 0; i < s.fetchCount; i++ {
		s.remote[i] = (base + uint32(i)) % s.cacheableSetSize
		s.local[i] = (base + uint32(i)) % s.totalCacheLines
	}

	s.step++

	return s.remote, s.local
}

// Restart rewinds the schedule to step zero.
func (s *StrideSchedule) Restart() {
	s.step = 0
}

// A RandomSchedule draws a fresh pair of shuffled index prefixes each step.
// The remote indices are a random subset of the backing store and the local
// indices a random subset of the resident slots, mirroring the original
// benchmark's index generation. The seed is captured so the stream can be
// replayed with Restart.
type RandomSchedule struct {
	fetchCount       int
	cacheableSetSize uint32
	totalCacheLines  uint32
	seed             int64

	rng        *rand.Rand
	remotePool []uint32
	localPool  []uint32
}

// NewRandomSchedule creates a seeded random schedule.
func NewRandomSchedule(
	fetchCount int,
	cacheableSetSize uint32,
	totalCacheLines uint32,
	seed int64,
) *RandomSchedule {
	s := &RandomSchedule{
		fetchCount:       fetchCount,
		cacheableSetSize: cacheableSetSize,
		totalCacheLines:  totalCacheLines,
		seed:             seed,
		remotePool:       make([]uint32, cacheableSetSize),
		localPool:        make([]uint32, totalCacheLines),
	}

	s.Restart()

	return s
}

// Next shuffles both pools and returns their first fetchCount entries.
func (s *RandomSchedule) Next() (remote, local []uint32) {
	s.rng.Shuffle(len(s.remotePool), func(i, j int) {
		s.remotePool[i], s.remotePool[j] = s.remotePool[j], s.remotePool[i]
	})
	s.rng.Shuffle(len(s.localPool), func(i, j int) {
		s.localPool[i], s.localPool[j] = s.localPool[j], s.localPool[i]
	})

	return s.remotePool[:s.fetchCount], s.localPool[:s.fetchCount]
}

// Restart resets the pools and re-seeds the stream so the same index
// sequence replays.
func (s *RandomSchedule) Restart() {
	for i := range s.remotePool {
		s.remotePool[i] = uint32(i)
	}
	for i := range s.localPool {
		s.localPool[i] = uint32(i)
	}

	s.rng = rand.New(rand.NewSource(s.seed))
}
