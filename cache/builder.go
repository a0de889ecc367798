package cache

import "fmt"

// A Builder can build cache controllers. Capacity inconsistencies are
// rejected here, before any data movement.
type Builder struct {
	cacheableSetSize uint32
	totalCacheLines  uint32
	lineSize         int
	fetchCount       int
	elemType         ElemType
}

// MakeBuilder creates a builder with the default capacity configuration.
func MakeBuilder() Builder {
	return Builder{
		cacheableSetSize: 100000,
		totalCacheLines:  10000,
		lineSize:         1024,
		elemType:         Int32,
	}
}

// WithCacheableSetSize sets the number of lines in the backing store.
func (b Builder) WithCacheableSetSize(n uint32) Builder {
	b.cacheableSetSize = n
	return b
}

// WithTotalCacheLines sets the number of slots in the resident set.
func (b Builder) WithTotalCacheLines(n uint32) Builder {
	b.totalCacheLines = n
	return b
}

// WithLineSize sets the number of elements in each line.
func (b Builder) WithLineSize(n int) Builder {
	b.lineSize = n
	return b
}

// WithFetchCount sets the number of lines moved per cache update. There is
// no default; a fetch count must always be chosen.
func (b Builder) WithFetchCount(n int) Builder {
	b.fetchCount = n
	return b
}

// WithElemType sets the scalar type of the cached elements.
func (b Builder) WithElemType(t ElemType) Builder {
	b.elemType = t
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.cacheableSetSize == 0 {
		panic("cacheable set size must be positive")
	}

	if b.totalCacheLines == 0 {
		panic("total cache lines must be positive")
	}

	if b.lineSize <= 0 {
		panic("line size must be positive")
	}

	if b.fetchCount <= 0 {
		panic("fetch count must be positive")
	}

	if uint64(b.fetchCount) > uint64(b.cacheableSetSize) {
		panic(fmt.Sprintf(
			"fetch count %d exceeds cacheable set size %d",
			b.fetchCount, b.cacheableSetSize))
	}

	if uint64(b.fetchCount) > uint64(b.totalCacheLines) {
		panic(fmt.Sprintf(
			"fetch count %d exceeds resident set capacity %d",
			b.fetchCount, b.totalCacheLines))
	}
}

// Build builds a synchronous cache controller.
func (b Builder) Build(name string) *Controller {
	b.parametersMustBeValid()

	c := &Controller{
		name:             name,
		elemType:         b.elemType,
		cacheableSetSize: b.cacheableSetSize,
		totalCacheLines:  b.totalCacheLines,
		lineSize:         b.lineSize,
		lineBytes:        b.lineSize * b.elemType.ByteSize(),
		fetchCount:       b.fetchCount,
		state:            stateUninitialized,
	}

	c.build()

	return c
}

// BuildPipelined builds a pipelined controller that overlaps the pull for
// step N+1 with the scatter of step N.
func (b Builder) BuildPipelined(name string) *PipelinedController {
	c := b.Build(name)

	p := &PipelinedController{
		Controller: c,
		ioStaging:  NewStagingBuffer(c.fetchCount, c.lineBytes),
	}

	return p
}
