package batch

import (
	"sync"
	"time"
)

const percentMultiplier = 100

// Progress tracks batch completion. It is safe for concurrent use.
type Progress struct {
	totalItems       int
	processedItems   int
	totalBatches     int
	processedBatches int
	batchSize        int
	start            time.Time
	lastUpdate       time.Time
	now              func() time.Time

	mu sync.Mutex
}

// ProgressSnapshot is a copy of the progress state.
type ProgressSnapshot struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	BatchSize        int
	Elapsed          time.Duration
	LastUpdate       time.Time
}

// NewProgress creates a tracker started now.
func NewProgress(totalItems, totalBatches, batchSize int) *Progress {
	return newProgressAt(totalItems, totalBatches, batchSize, time.Now)
}

func newProgressAt(totalItems, totalBatches, batchSize int, now func() time.Time) *Progress {
	t := now()
	return &Progress{
		totalItems:   totalItems,
		totalBatches: totalBatches,
		batchSize:    batchSize,
		start:        t,
		lastUpdate:   t,
		now:          now,
	}
}

// AddProcessed records one finished batch of n items.
func (p *Progress) AddProcessed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processedItems += n
	p.processedBatches++
	p.lastUpdate = p.now()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		TotalItems:       p.totalItems,
		ProcessedItems:   p.processedItems,
		TotalBatches:     p.totalBatches,
		ProcessedBatches: p.processedBatches,
		BatchSize:        p.batchSize,
		Elapsed:          p.lastUpdate.Sub(p.start),
		LastUpdate:       p.lastUpdate,
	}
}

// PercentComplete returns completion in [0, 100].
func (s ProgressSnapshot) PercentComplete() float64 {
	if s.TotalItems == 0 {
		return 0
	}
	return float64(s.ProcessedItems) / float64(s.TotalItems) * percentMultiplier
}

// IsComplete reports whether every item was processed.
func (s ProgressSnapshot) IsComplete() bool {
	return s.ProcessedItems >= s.TotalItems
}

// Remaining estimates the time left from the average time per item so far.
func (s ProgressSnapshot) Remaining() time.Duration {
	if s.ProcessedItems == 0 {
		return 0
	}
	perItem := s.Elapsed / time.Duration(s.ProcessedItems)
	return perItem * time.Duration(s.TotalItems-s.ProcessedItems)
}
