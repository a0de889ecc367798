package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks one long-running action, such as a benchmark update
// loop. The run advances the finished count; the monitor serves consistent
// snapshots of it over HTTP.
type ProgressBar struct {
	sync.Mutex

	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
}

// IncrementFinished adds to the number of finished elements.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// progressRsp is the wire form of one progress bar.
type progressRsp struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Total          uint64  `json:"total"`
	Finished       uint64  `json:"finished"`
	Fraction       float64 `json:"fraction"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	rsp := progressRsp{
		ID:             b.ID,
		Name:           b.Name,
		Total:          b.Total,
		Finished:       b.Finished,
		ElapsedSeconds: time.Since(b.StartTime).Seconds(),
	}

	if b.Total > 0 {
		rsp.Fraction = float64(b.Finished) / float64(b.Total)
	}

	return rsp
}
