// Package progress provides thread-safe tracking of build progress.
package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the overall build state.
type Status string

const (
	// StatusBuilding indicates a build is in progress.
	StatusBuilding Status = "building"
	// StatusReady indicates the build completed.
	StatusReady Status = "ready"
	// StatusError indicates the build failed with an error.
	StatusError Status = "error"
)

// Snapshot is an immutable copy of build progress.
type Snapshot struct {
	Status         string  `json:"status"`
	Phase          string  `json:"phase"`
	Done           uint64  `json:"done"`
	Total          uint64  `json:"total"`
	ProgressPct    float64 `json:"progress_pct"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// Tracker tracks the phases of a build. The per-item counter is atomic so
// the builder can advance it from its worker goroutines without contending
// on the mutex.
type Tracker struct {
	mu sync.RWMutex

	status       Status
	phase        string
	total        uint64
	errorMessage string
	startTime    time.Time

	done atomic.Uint64
}

// NewTracker returns a tracker initialized for a starting build.
func NewTracker() *Tracker {
	return &Tracker{
		status:    StatusBuilding,
		startTime: time.Now(),
	}
}

// Phase enters a new build phase with the given number of units of work.
// The done counter resets.
func (t *Tracker) Phase(phase string, total uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phase = phase
	t.total = total
	t.done.Store(0)
}

// Advance records n completed units of work in the current phase.
func (t *Tracker) Advance(n uint64) {
	t.done.Add(n)
}

// SetError marks the build as failed.
func (t *Tracker) SetError(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusError
	t.errorMessage = message
}

// SetReady marks the build as complete.
func (t *Tracker) SetReady() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = StatusReady
}

// Snapshot returns an immutable copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	done := t.done.Load()
	var pct float64
	if t.total > 0 {
		pct = float64(done) / float64(t.total) * 100.0
	}

	return Snapshot{
		Status:         string(t.status),
		Phase:          t.phase,
		Done:           done,
		Total:          t.total,
		ProgressPct:    pct,
		ElapsedSeconds: int(time.Since(t.startTime).Seconds()),
		ErrorMessage:   t.errorMessage,
	}
}
