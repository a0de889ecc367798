package datarecording

import (
	"context"
	"database/sql"
)

// Table names shared by the recorders and the reader.
const (
	RunInfoTable       = "run_info"
	UpdateMetricsTable = "update_metrics"
)

// RunInfo is the configuration row recorded for each benchmark run.
type RunInfo struct {
	RunID            string
	CacheableSetSize uint32
	TotalCacheLines  uint32
	LineSize         int
	FetchCount       int
	Iterations       int
	Seed             int64
	Pipelined        bool
}

// UpdateMetric is the data movement row recorded for each benchmark run.
type UpdateMetric struct {
	RunID          string
	Updates        uint64
	BytesFetched   uint64
	BytesScattered uint64
	FetchSeconds   float64
	ScatterSeconds float64
	TotalSeconds   float64
	GBPerSec       float64
}

// A ResultsReader reads recorded benchmark results back from a SQLite
// database written by a DataRecorder.
type ResultsReader struct {
	*sql.DB
}

// NewResultsReader opens a results database file.
func NewResultsReader(dbFilename string) *ResultsReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &ResultsReader{DB: db}
}

// NewResultsReaderWithDB creates a reader on an open database.
func NewResultsReaderWithDB(db *sql.DB) *ResultsReader {
	return &ResultsReader{DB: db}
}

// ListRuns returns the configuration of every recorded run.
func (r *ResultsReader) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT RunID, CacheableSetSize, TotalCacheLines, LineSize,
			FetchCount, Iterations, Seed, Pipelined
		FROM `+RunInfoTable+` ORDER BY RunID`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var run RunInfo

		err := rows.Scan(
			&run.RunID, &run.CacheableSetSize, &run.TotalCacheLines,
			&run.LineSize, &run.FetchCount, &run.Iterations,
			&run.Seed, &run.Pipelined)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// RunMetrics returns the data movement records of one run. A run that was
// never recorded yields an empty result, not an error.
func (r *ResultsReader) RunMetrics(
	ctx context.Context,
	runID string,
) ([]UpdateMetric, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT RunID, Updates, BytesFetched, BytesScattered,
			FetchSeconds, ScatterSeconds, TotalSeconds, GBPerSec
		FROM `+UpdateMetricsTable+` WHERE RunID = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []UpdateMetric
	for rows.Next() {
		var m UpdateMetric

		err := rows.Scan(
			&m.RunID, &m.Updates, &m.BytesFetched, &m.BytesScattered,
			&m.FetchSeconds, &m.ScatterSeconds, &m.TotalSeconds,
			&m.GBPerSec)
		if err != nil {
			return nil, err
		}

		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// Close closes the reader.
func (r *ResultsReader) Close() error {
	return r.DB.Close()
}
