package pipeline

import (
	"slices"
	"sync"
	"time"
)

type jobSample struct {
	at       time.Time
	duration time.Duration
	failed   bool
}

// Timings is a rolling-window aggregate of job processing times.
type Timings struct {
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
}

// JobStats records how long finished jobs took. Only completed jobs feed
// the latency figures; failures are counted.
type JobStats struct {
	mu      sync.Mutex
	samples []jobSample
	window  time.Duration
	now     func() time.Time
}

func NewJobStats(window time.Duration) *JobStats {
	if window <= 0 {
		window = time.Hour
	}
	return &JobStats{
		samples: make([]jobSample, 0, 64),
		window:  window,
		now:     time.Now,
	}
}

func (s *JobStats) Record(d time.Duration, failed bool) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, jobSample{at: now, duration: d, failed: failed})
}

func (s *JobStats) Snapshot() Timings {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())

	var t Timings
	var ms []int64
	var sum int64
	for _, sm := range s.samples {
		if sm.failed {
			t.Failed++
			continue
		}
		v := sm.duration.Milliseconds()
		ms = append(ms, v)
		sum += v
	}
	t.Completed = len(ms)
	if len(ms) == 0 {
		return t
	}
	slices.Sort(ms)
	t.MinMs = ms[0]
	t.MaxMs = ms[len(ms)-1]
	t.AvgMs = float64(sum) / float64(len(ms))
	t.P50Ms = percentile(ms, 50)
	t.P95Ms = percentile(ms, 95)
	return t
}

func (s *JobStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm jobSample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return float64(sorted[lower])
	}
	lo, hi := float64(sorted[lower]), float64(sorted[lower+1])
	return lo + (hi-lo)*(rank-float64(lower))
}
