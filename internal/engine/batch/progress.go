package batch

import (
	"sync"
	"time"
)

const percentMultiplier = 100

// ProgressCallback receives a snapshot after each chunk or unit completes.
type ProgressCallback func(snapshot ProgressSnapshot)

// Progress counts completed and failed work. Safe for concurrent use.
type Progress struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	start     time.Time
}

// NewProgress creates a tracker expecting total items.
func NewProgress(total int) *Progress {
	return &Progress{total: total, start: time.Now()}
}

// Add records n finished items. A non-nil err also counts them as failed.
func (p *Progress) Add(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed += n
	if err != nil {
		p.failed += n
	}
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressSnapshot{
		Total:     p.total,
		Completed: p.completed,
		Failed:    p.failed,
		Elapsed:   time.Since(p.start),
	}
}

// ProgressSnapshot is an immutable view of a Progress.
type ProgressSnapshot struct {
	Total     int
	Completed int
	Failed    int
	Elapsed   time.Duration
}

// PercentComplete returns the completion percentage (0-100).
func (s ProgressSnapshot) PercentComplete() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total) * percentMultiplier
}

// IsComplete reports whether every item has finished.
func (s ProgressSnapshot) IsComplete() bool {
	return s.Completed >= s.Total
}

// Succeeded returns the number of items that finished without error.
func (s ProgressSnapshot) Succeeded() int {
	return s.Completed - s.Failed
}
