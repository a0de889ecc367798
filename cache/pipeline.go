package cache

import (
	"fmt"
	"sync"
	"time"
)

// A stagedBatch is the unit of handoff between the IO domain and the compute
// domain: one fetched staging buffer worth of lines plus the destination
// slots they scatter to.
type stagedBatch struct {
	local     []uint32
	fetchTime time.Duration
	err       error
}

// A PipelinedController overlaps the pull for step N+1 with the scatter of
// step N. The IO domain owns its own staging buffer and runs as a separate
// goroutine; before each scatter the IO buffer is exchanged into the compute
// staging buffer, after which the IO domain may start the next pull.
//
// Ownership of each buffer crosses the domains exactly once per step, so at
// any instant at most one fetch and one scatter is in flight for a given
// buffer, and a buffer is never reused before its consumer finished with it.
type PipelinedController struct {
	*Controller

	ioStaging *StagingBuffer
}

// UpdateN runs iterations cache updates, drawing the index pair for each
// step from the schedule. The first pull primes the pipeline before any
// scatter runs; after the last pull the remaining staged batch is drained.
// The final resident-set contents are identical to running the same
// schedule through the synchronous Update loop.
func (p *PipelinedController) UpdateN(
	schedule IndexSchedule,
	iterations int,
) (UpdateStats, error) {
	if p.state != stateReady {
		return UpdateStats{}, fmt.Errorf(
			"controller %s cannot update while %s", p.name, p.state)
	}

	if iterations <= 0 {
		return UpdateStats{}, fmt.Errorf(
			"iteration count must be positive, got %d", iterations)
	}

	p.state = stateFetchInFlight
	defer func() { p.state = stateReady }()

	staged := make(chan stagedBatch)
	release := make(chan struct{})
	abort := make(chan struct{})

	var abortOnce sync.Once
	stop := func() { abortOnce.Do(func() { close(abort) }) }
	defer stop()

	go p.runIODomain(schedule, iterations, staged, release, abort)

	return p.runComputeDomain(staged, release, stop)
}

// runIODomain is the producer half of the pipeline. It pulls each step's
// lines from the backing store into the IO staging buffer, hands the batch
// to the compute domain, and waits for the exchange before reusing the
// buffer.
func (p *PipelinedController) runIODomain(
	schedule IndexSchedule,
	iterations int,
	staged chan<- stagedBatch,
	release <-chan struct{},
	abort <-chan struct{},
) {
	defer close(staged)

	for step := 0; step < iterations; step++ {
		remote, local := schedule.Next()

		if err := p.validateIndices(remote, local); err != nil {
			batch := stagedBatch{
				err: fmt.Errorf("step %d: %w", step, err),
			}

			select {
			case staged <- batch:
			case <-abort:
			}

			return
		}

		fetchStart := time.Now()
		p.plan.forEachTask(func(lo, hi int) {
			p.store.copyLines(remote, p.ioStaging, lo, hi)
		})

		batch := stagedBatch{
			local:     append([]uint32(nil), local...),
			fetchTime: time.Since(fetchStart),
		}

		select {
		case staged <- batch:
		case <-abort:
			return
		}

		// The IO buffer is only reused once the compute domain has
		// exchanged it away.
		select {
		case <-release:
		case <-abort:
			return
		}
	}
}

// runComputeDomain is the consumer half of the pipeline. For each staged
// batch it exchanges the IO buffer into the compute staging buffer, frees
// the IO domain to pull the next step, and scatters into the resident set.
func (p *PipelinedController) runComputeDomain(
	staged <-chan stagedBatch,
	release chan<- struct{},
	stop func(),
) (UpdateStats, error) {
	var stats UpdateStats
	start := time.Now()

	for batch := range staged {
		if batch.err != nil {
			stop()
			return stats, batch.err
		}

		p.staging.CopyFrom(p.ioStaging)
		release <- struct{}{}

		scatterStart := time.Now()
		if err := p.resident.Scatter(p.staging, batch.local); err != nil {
			stop()

			for range staged {
			}

			return stats, err
		}

		lineTotal := uint64(p.fetchCount) * uint64(p.lineBytes)
		stats.add(UpdateStats{
			Updates:        1,
			BytesFetched:   lineTotal,
			BytesScattered: lineTotal,
			FetchTime:      batch.fetchTime,
			ScatterTime:    time.Since(scatterStart),
		})
	}

	stats.TotalTime = time.Since(start)
	p.totals.add(stats)

	return stats, nil
}
