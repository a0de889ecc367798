package cache

import (
	"runtime"
	"sync"
)

// targetBytesPerTask is the amount of line data one copy task should move.
// Larger fetches are broken into tasks of roughly this size so that the pull
// can spread across workers without creating tiny copies.
const targetBytesPerTask = 64 * 1024

// A CopyPlan decides how a bulk fetch or scatter is tiled into copy tasks.
// It is the portable analogue of a hardware slice plan: given the fetch
// count and the line size it picks the lines-per-task granularity and the
// number of workers. A plan must be prepared exactly once before it can
// drive any data movement.
type CopyPlan struct {
	fetchCount int
	lineBytes  int

	planned      bool
	linesPerTask int
	numWorkers   int
}

// NewCopyPlan creates an unprepared plan for fetches of fetchCount lines of
// lineBytes bytes each.
func NewCopyPlan(fetchCount, lineBytes int) *CopyPlan {
	if fetchCount <= 0 || lineBytes <= 0 {
		panic("copy plan dimensions must be positive")
	}

	return &CopyPlan{
		fetchCount: fetchCount,
		lineBytes:  lineBytes,
	}
}

// Plan prepares the plan. Calling Plan a second time is a programming error.
func (p *CopyPlan) Plan() {
	if p.planned {
		panic("copy plan is already prepared")
	}

	p.linesPerTask = targetBytesPerTask / p.lineBytes
	if p.linesPerTask < 1 {
		p.linesPerTask = 1
	}

	numTasks := (p.fetchCount + p.linesPerTask - 1) / p.linesPerTask
	p.numWorkers = runtime.GOMAXPROCS(0)
	if p.numWorkers > numTasks {
		p.numWorkers = numTasks
	}

	p.planned = true
}

// IsPlanned reports whether Plan has run.
func (p *CopyPlan) IsPlanned() bool {
	return p.planned
}

// LinesPerTask returns the number of lines each copy task moves.
func (p *CopyPlan) LinesPerTask() int {
	p.mustBePlanned()
	return p.linesPerTask
}

// NumWorkers returns the number of workers the plan copies with.
func (p *CopyPlan) NumWorkers() int {
	p.mustBePlanned()
	return p.numWorkers
}

// CreateFetchOffsetsBuffer allocates an index buffer sized for one fetch.
func (p *CopyPlan) CreateFetchOffsetsBuffer() []uint32 {
	return make([]uint32, p.fetchCount)
}

// CreateScatterOffsetsBuffer allocates an index buffer sized for one
// scatter.
func (p *CopyPlan) CreateScatterOffsetsBuffer() []uint32 {
	return make([]uint32, p.fetchCount)
}

// forEachTask runs fn over the [lo, hi) line ranges of one fetch, using the
// planned worker count. fn must be safe to call from multiple goroutines on
// disjoint ranges.
func (p *CopyPlan) forEachTask(fn func(lo, hi int)) {
	p.mustBePlanned()

	if p.numWorkers <= 1 {
		fn(0, p.fetchCount)
		return
	}

	var wg sync.WaitGroup
	tasks := make(chan int)

	for w := 0; w < p.numWorkers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for lo := range tasks {
				hi := lo + p.linesPerTask
				if hi > p.fetchCount {
					hi = p.fetchCount
				}

				fn(lo, hi)
			}
		}()
	}

	for lo := 0; lo < p.fetchCount; lo += p.linesPerTask {
		tasks <- lo
	}

	close(tasks)
	wg.Wait()
}

func (p *CopyPlan) mustBePlanned() {
	if !p.planned {
		panic("copy plan is not prepared")
	}
}
