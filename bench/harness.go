// Package bench drives the cache engine through timed update loops: it
// fills the backing store, generates index schedules, measures fill and
// fetch bandwidth, and checks the final resident set against the oracle.
package bench

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/softcache/cache"
	"github.com/sarchlab/softcache/datarecording"
	"github.com/sarchlab/softcache/monitoring"
)

// Config describes one benchmark run. The defaults mirror the original
// benchmark tool options.
type Config struct {
	CacheableSetSize uint32
	TotalCacheLines  uint32
	LineSize         int
	FetchCount       int
	ElemType         cache.ElemType
	Iterations       int
	Seed             int64
	Pipelined        bool
	Verify           bool
}

// DefaultConfig returns the default benchmark configuration. The fetch
// count has no default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		CacheableSetSize: 100000,
		TotalCacheLines:  10000,
		LineSize:         1024,
		ElemType:         cache.Int32,
		Iterations:       1000,
		Seed:             10142,
		Verify:           true,
	}
}

// A Result carries the counters of one benchmark run. The harness returns
// them instead of logging; the caller decides how to report.
type Result struct {
	RunID string

	FillTime     time.Duration
	FillGBPerSec float64

	Stats         cache.UpdateStats
	FetchGBPerSec float64

	Verified   bool
	Mismatches []Mismatch
}

// A Harness runs cache benchmarks.
type Harness struct {
	config   Config
	recorder datarecording.DataRecorder
	monitor  *monitoring.Monitor
}

// NewHarness creates a harness for the given configuration.
func NewHarness(config Config) *Harness {
	return &Harness{config: config}
}

// WithDataRecorder sets the recorder that run results are persisted to.
func (h *Harness) WithDataRecorder(r datarecording.DataRecorder) *Harness {
	h.recorder = r

	r.CreateTable(datarecording.RunInfoTable, datarecording.RunInfo{})
	r.CreateTable(datarecording.UpdateMetricsTable, datarecording.UpdateMetric{})

	return h
}

// WithMonitor sets the monitor that reports run progress.
func (h *Harness) WithMonitor(m *monitoring.Monitor) *Harness {
	h.monitor = m
	return h
}

// Run executes one benchmark run: build, fill, update loop, readback,
// verification.
func (h *Harness) Run() (Result, error) {
	cfg := h.config

	result := Result{RunID: xid.New().String()}

	builder := cache.MakeBuilder().
		WithCacheableSetSize(cfg.CacheableSetSize).
		WithTotalCacheLines(cfg.TotalCacheLines).
		WithLineSize(cfg.LineSize).
		WithFetchCount(cfg.FetchCount).
		WithElemType(cfg.ElemType)

	schedule := cache.NewRandomSchedule(
		cfg.FetchCount, cfg.CacheableSetSize, cfg.TotalCacheLines, cfg.Seed)

	var controller *cache.Controller
	var pipelined *cache.PipelinedController

	if cfg.Pipelined {
		pipelined = builder.BuildPipelined("Cache")
		controller = pipelined.Controller
	} else {
		controller = builder.Build("Cache")
	}

	if h.monitor != nil {
		h.monitor.RegisterController(controller)
	}

	if err := h.fill(controller, &result); err != nil {
		return result, err
	}

	var err error
	if cfg.Pipelined {
		result.Stats, err = h.runPipelined(pipelined, schedule)
	} else {
		result.Stats, err = h.runSynchronous(controller, schedule)
	}

	if err != nil {
		return result, err
	}

	result.FetchGBPerSec = gbPerSec(
		result.Stats.BytesFetched, result.Stats.TotalTime)

	if cfg.Verify {
		oracle := NewOracle(controller.BackingStore(), cfg.TotalCacheLines)
		result.Mismatches = oracle.Verify(
			controller.ReadAll(), schedule, cfg.Iterations)
		result.Verified = len(result.Mismatches) == 0
	}

	h.record(result)

	return result, nil
}

// fill populates the backing store so that every element of line i holds the
// value i, the pattern the oracle and readback checks rely on.
func (h *Harness) fill(c *cache.Controller, result *Result) error {
	cfg := h.config

	line := make([]byte, c.LineBytes())
	start := time.Now()

	for i := uint32(0); i < cfg.CacheableSetSize; i++ {
		fillLine(line, cfg.ElemType, i)

		if err := c.Fill(i, line); err != nil {
			return fmt.Errorf("fill: %w", err)
		}
	}

	result.FillTime = time.Since(start)

	bytesFilled := uint64(cfg.CacheableSetSize) * uint64(c.LineBytes())
	result.FillGBPerSec = gbPerSec(bytesFilled, result.FillTime)

	return nil
}

func (h *Harness) runSynchronous(
	c *cache.Controller,
	schedule cache.IndexSchedule,
) (cache.UpdateStats, error) {
	var bar *monitoring.ProgressBar
	if h.monitor != nil {
		bar = h.monitor.CreateProgressBar(
			c.Name(), uint64(h.config.Iterations))
		defer h.monitor.CompleteProgressBar(bar)
	}

	var stats cache.UpdateStats
	start := time.Now()

	for i := 0; i < h.config.Iterations; i++ {
		remote, local := schedule.Next()

		if err := c.SetIndices(remote, local); err != nil {
			return stats, fmt.Errorf("iteration %d: %w", i, err)
		}

		s, err := c.Update()
		if err != nil {
			return stats, fmt.Errorf("iteration %d: %w", i, err)
		}

		stats.Updates += s.Updates
		stats.BytesFetched += s.BytesFetched
		stats.BytesScattered += s.BytesScattered
		stats.FetchTime += s.FetchTime
		stats.ScatterTime += s.ScatterTime

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	stats.TotalTime = time.Since(start)

	return stats, nil
}

func (h *Harness) runPipelined(
	p *cache.PipelinedController,
	schedule cache.IndexSchedule,
) (cache.UpdateStats, error) {
	var bar *monitoring.ProgressBar
	if h.monitor != nil {
		bar = h.monitor.CreateProgressBar(
			p.Name(), uint64(h.config.Iterations))
		defer h.monitor.CompleteProgressBar(bar)
	}

	stats, err := p.UpdateN(schedule, h.config.Iterations)

	if bar != nil {
		bar.IncrementFinished(stats.Updates)
	}

	return stats, err
}

func (h *Harness) record(result Result) {
	if h.recorder == nil {
		return
	}

	cfg := h.config

	h.recorder.InsertData(datarecording.RunInfoTable, datarecording.RunInfo{
		RunID:            result.RunID,
		CacheableSetSize: cfg.CacheableSetSize,
		TotalCacheLines:  cfg.TotalCacheLines,
		LineSize:         cfg.LineSize,
		FetchCount:       cfg.FetchCount,
		Iterations:       cfg.Iterations,
		Seed:             cfg.Seed,
		Pipelined:        cfg.Pipelined,
	})

	h.recorder.InsertData(datarecording.UpdateMetricsTable, datarecording.UpdateMetric{
		RunID:          result.RunID,
		Updates:        result.Stats.Updates,
		BytesFetched:   result.Stats.BytesFetched,
		BytesScattered: result.Stats.BytesScattered,
		FetchSeconds:   result.Stats.FetchTime.Seconds(),
		ScatterSeconds: result.Stats.ScatterTime.Seconds(),
		TotalSeconds:   result.Stats.TotalTime.Seconds(),
		GBPerSec:       result.FetchGBPerSec,
	})

	h.recorder.Flush()
}

func fillLine(line []byte, elemType cache.ElemType, value uint32) {
	switch elemType {
	case cache.Float32:
		bits := math.Float32bits(float32(value))
		for off := 0; off < len(line); off += 4 {
			binary.LittleEndian.PutUint32(line[off:], bits)
		}
	default:
		for off := 0; off < len(line); off += 4 {
			binary.LittleEndian.PutUint32(line[off:], value)
		}
	}
}

func gbPerSec(bytes uint64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}

	return 1e-9 * float64(bytes) / seconds
}
