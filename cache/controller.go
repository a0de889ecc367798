// Package cache implements a software-managed two-tier cache: a large, slow
// backing store of fixed-size lines and a small, fast resident set that is
// filled by index-driven fetch and scatter operations.
package cache

import (
	"fmt"
	"time"
)

type controllerState int

const (
	stateUninitialized controllerState = iota
	statePlanned
	stateReady
	stateFetchInFlight
	stateScatterInFlight
)

func (s controllerState) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case statePlanned:
		return "planned"
	case stateReady:
		return "ready"
	case stateFetchInFlight:
		return "fetch-in-flight"
	case stateScatterInFlight:
		return "scatter-in-flight"
	default:
		return fmt.Sprintf("controllerState(%d)", int(s))
	}
}

// UpdateStats reports the data movement of one or more cache updates.
// Counters are returned to the caller instead of being logged.
type UpdateStats struct {
	Updates        uint64
	BytesFetched   uint64
	BytesScattered uint64
	FetchTime      time.Duration
	ScatterTime    time.Duration
	TotalTime      time.Duration
}

func (s *UpdateStats) add(o UpdateStats) {
	s.Updates += o.Updates
	s.BytesFetched += o.BytesFetched
	s.BytesScattered += o.BytesScattered
	s.FetchTime += o.FetchTime
	s.ScatterTime += o.ScatterTime
	s.TotalTime += o.TotalTime
}

// A Controller orchestrates cache updates over one backing store and one
// resident set. Each update pulls the lines named by the fetch offsets into
// a staging buffer and scatters them into the resident set at the slots
// named by the scatter offsets.
type Controller struct {
	name string

	elemType         ElemType
	cacheableSetSize uint32
	totalCacheLines  uint32
	lineSize         int
	lineBytes        int
	fetchCount       int

	state controllerState

	store    *BackingStore
	resident *ResidentSet
	staging  *StagingBuffer
	plan     *CopyPlan

	fetchOffsets   []uint32
	scatterOffsets []uint32
	indicesSet     bool

	totals UpdateStats
}

// Name returns the name of the controller.
func (c *Controller) Name() string {
	return c.name
}

// FetchCount returns the number of lines moved per update.
func (c *Controller) FetchCount() int {
	return c.fetchCount
}

// LineBytes returns the size of one line in bytes.
func (c *Controller) LineBytes() int {
	return c.lineBytes
}

// ElemType returns the scalar type of the cached elements.
func (c *Controller) ElemType() ElemType {
	return c.elemType
}

// BackingStore returns the slow-tier store, for host fill and verification.
func (c *Controller) BackingStore() *BackingStore {
	return c.store
}

// ResidentSet returns the fast-tier store, for verification.
func (c *Controller) ResidentSet() *ResidentSet {
	return c.resident
}

// build allocates the two tiers, prepares the copy plan, and wires the index
// buffers. It runs once, from the builder.
func (c *Controller) build() {
	if c.state != stateUninitialized {
		panic("controller is already built")
	}

	c.store = NewBackingStore(c.cacheableSetSize, c.lineBytes)
	c.resident = NewResidentSet(c.totalCacheLines, c.lineBytes)
	c.staging = NewStagingBuffer(c.fetchCount, c.lineBytes)

	c.plan = NewCopyPlan(c.fetchCount, c.lineBytes)
	c.plan.Plan()
	c.state = statePlanned

	c.fetchOffsets = c.plan.CreateFetchOffsetsBuffer()
	c.scatterOffsets = c.plan.CreateScatterOffsetsBuffer()
	c.state = stateReady
}

// Fill overwrites one line of the backing store. It is the host-fill entry
// point used to populate the store before the update loop.
func (c *Controller) Fill(index uint32, line []byte) error {
	if c.state == stateUninitialized || c.state == statePlanned {
		return fmt.Errorf("controller %s is not built", c.name)
	}

	return c.store.Put(index, line)
}

// SetIndices installs the fetch and scatter offsets for the next update.
// Both slices must have exactly fetchCount entries and every value must be
// in range. A malformed batch is rejected whole; the previously installed
// indices stay in effect.
func (c *Controller) SetIndices(remote, local []uint32) error {
	if c.state != stateReady {
		return fmt.Errorf(
			"controller %s cannot accept indices while %s", c.name, c.state)
	}

	if err := c.validateIndices(remote, local); err != nil {
		return err
	}

	copy(c.fetchOffsets, remote)
	copy(c.scatterOffsets, local)
	c.indicesSet = true

	return nil
}

func (c *Controller) validateIndices(remote, local []uint32) error {
	if len(remote) != c.fetchCount || len(local) != c.fetchCount {
		return fmt.Errorf(
			"controller %s needs %d remote and local indices, got %d and %d",
			c.name, c.fetchCount, len(remote), len(local))
	}

	for i, r := range remote {
		if r >= c.cacheableSetSize {
			return fmt.Errorf(
				"remote index %d (position %d) out of range [0, %d)",
				r, i, c.cacheableSetSize)
		}
	}

	for i, l := range local {
		if l >= c.totalCacheLines {
			return fmt.Errorf(
				"local index %d (position %d) out of range [0, %d)",
				l, i, c.totalCacheLines)
		}
	}

	return nil
}

// Update runs one synchronous cache update: pull the lines named by the
// fetch offsets into staging, then scatter staging into the resident set.
// The two stages run back to back; the controller is idle between updates.
func (c *Controller) Update() (UpdateStats, error) {
	if c.state != stateReady {
		return UpdateStats{}, fmt.Errorf(
			"controller %s cannot update while %s", c.name, c.state)
	}

	if !c.indicesSet {
		return UpdateStats{}, fmt.Errorf(
			"controller %s has no indices installed", c.name)
	}

	start := time.Now()

	fetchTime := c.fetch(c.fetchOffsets, c.staging)

	scatterStart := time.Now()
	c.state = stateScatterInFlight
	if err := c.resident.Scatter(c.staging, c.scatterOffsets); err != nil {
		c.state = stateReady
		return UpdateStats{}, err
	}
	c.state = stateReady

	lineTotal := uint64(c.fetchCount) * uint64(c.lineBytes)
	stats := UpdateStats{
		Updates:        1,
		BytesFetched:   lineTotal,
		BytesScattered: lineTotal,
		FetchTime:      fetchTime,
		ScatterTime:    time.Since(scatterStart),
		TotalTime:      time.Since(start),
	}
	c.totals.add(stats)

	return stats, nil
}

// fetch pulls the lines named by offsets into dst, fanning the copies out
// according to the plan. Offsets must already be validated.
func (c *Controller) fetch(offsets []uint32, dst *StagingBuffer) time.Duration {
	start := time.Now()

	c.state = stateFetchInFlight
	c.plan.forEachTask(func(lo, hi int) {
		c.store.copyLines(offsets, dst, lo, hi)
	})
	c.state = stateScatterInFlight

	return time.Since(start)
}

// ReadAll returns a copy of the full resident set, in slot order.
func (c *Controller) ReadAll() [][]byte {
	return c.resident.ReadAll()
}

// Totals returns the accumulated statistics of all updates so far.
func (c *Controller) Totals() UpdateStats {
	return c.totals
}
