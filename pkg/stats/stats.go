package stats

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Trend tracks the rate of change of a value over its most recent samples.
type Trend struct {
	mu    sync.Mutex
	size  int
	start time.Time
	x     []float64
	y     []float64
}

func NewTrend(size int) *Trend {
	return &Trend{
		size: max(size, 2),
		x:    make([]float64, 0, size),
		y:    make([]float64, 0, size),
	}
}

func (t *Trend) Add(at time.Time, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.start.IsZero() {
		t.start = at
	}
	if len(t.x) == t.size {
		t.x = append(t.x[:0], t.x[1:]...)
		t.y = append(t.y[:0], t.y[1:]...)
	}
	t.x = append(t.x, at.Sub(t.start).Minutes())
	t.y = append(t.y, value)
}

// Slope returns the least squares rate of change per minute. It needs at least
// two samples spread over time.
func (t *Trend) Slope() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.x) < 2 || t.x[0] == t.x[len(t.x)-1] {
		return 0, false
	}
	_, m := stat.LinearRegression(t.x, t.y, nil, false)
	return m, true
}

// Reset drops every sample, so a gap in readings does not skew the slope.
func (t *Trend) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = time.Time{}
	t.x = t.x[:0]
	t.y = t.y[:0]
}
