// Package progress tracks processed-item counts for long-running batch
// operations and reports throughput and ETA to a caller-supplied sink.
package progress

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Callback receives an immutable snapshot after every update. It is invoked
// synchronously from the updating goroutine; failures are logged and never
// propagated.
type Callback func(Snapshot)

// Snapshot is one observation of tracker state. Recomputed on every update,
// immutable once returned.
type Snapshot struct {
	ItemsDone      int
	ItemsTotal     int
	BatchIndex     int // 1-based batch currently (or last) in progress
	BatchTotal     int
	ItemsPerSecond float64
	ETASeconds     float64
	StartTime      time.Time
	CurrentTime    time.Time
}

// Percentage returns completion in [0, 100]. Zero totals report 0.
func (s Snapshot) Percentage() float64 {
	if s.ItemsTotal == 0 {
		return 0
	}
	return float64(s.ItemsDone) / float64(s.ItemsTotal) * 100
}

// ElapsedSeconds returns wall time since tracking started.
func (s Snapshot) ElapsedSeconds() float64 {
	return s.CurrentTime.Sub(s.StartTime).Seconds()
}

// FormatETA renders the ETA as a short human string.
func (s Snapshot) FormatETA() string {
	switch eta := s.ETASeconds; {
	case eta < 60:
		return fmt.Sprintf("%.0fs", eta)
	case eta < 3600:
		return fmt.Sprintf("%.1fm", eta/60)
	default:
		return fmt.Sprintf("%.1fh", eta/3600)
	}
}

// Tracker accumulates progress across files and batches. All counter
// mutation and callback invocation happen under one critical section so
// concurrent callers never observe a torn snapshot or interleaved updates.
type Tracker struct {
	mu sync.Mutex

	totalItems   int
	totalBatches int

	currentItem    int
	currentBatch   int
	startTime      time.Time
	lastUpdate     time.Time
	itemsPerSecond float64
	etaSeconds     float64

	callback Callback
	now      func() time.Time
}

// New creates a tracker for totalItems items processed in batches of
// batchSize. callback may be nil.
func New(totalItems, batchSize int, callback Callback) *Tracker {
	if batchSize <= 0 {
		batchSize = 1
	}
	now := time.Now()
	return &Tracker{
		totalItems:   totalItems,
		totalBatches: (totalItems + batchSize - 1) / batchSize,
		startTime:    now,
		lastUpdate:   now,
		callback:     callback,
		now:          time.Now,
	}
}

// Update advances the processed count by itemsProcessed. batchIndex, when
// >= 0, records that batch batchIndex (0-based) is in progress; the
// snapshot reports it 1-based. The instantaneous rate is recomputed from
// wall time since the previous update; a zero interval leaves the rate
// unchanged.
func (t *Tracker) Update(itemsProcessed, batchIndex int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.now()
	t.currentItem += itemsProcessed
	if batchIndex >= 0 {
		t.currentBatch = batchIndex + 1
	}

	if delta := current.Sub(t.lastUpdate).Seconds(); delta > 0 {
		t.itemsPerSecond = float64(itemsProcessed) / delta
	}

	remaining := t.totalItems - t.currentItem
	if t.itemsPerSecond > 0 {
		t.etaSeconds = float64(remaining) / t.itemsPerSecond
	} else {
		t.etaSeconds = 0
	}

	snap := t.snapshotLocked(current)
	t.lastUpdate = current

	if t.callback != nil {
		t.invoke(snap)
	}
}

// invoke runs the callback, recovering panics so progress reporting can
// never abort ingestion.
func (t *Tracker) invoke(snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("progress: callback failed: %v", r)
		}
	}()
	t.callback(snap)
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(t.now())
}

func (t *Tracker) snapshotLocked(current time.Time) Snapshot {
	return Snapshot{
		ItemsDone:      t.currentItem,
		ItemsTotal:     t.totalItems,
		BatchIndex:     t.currentBatch,
		BatchTotal:     t.totalBatches,
		ItemsPerSecond: t.itemsPerSecond,
		ETASeconds:     t.etaSeconds,
		StartTime:      t.startTime,
		CurrentTime:    current,
	}
}

// IsComplete reports whether every item has been processed.
func (t *Tracker) IsComplete() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentItem >= t.totalItems
}
