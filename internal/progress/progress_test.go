package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerPhases(t *testing.T) {
	tracker := NewTracker()

	tracker.Phase("drain updates", 10)
	tracker.Advance(4)

	snap := tracker.Snapshot()
	assert.Equal(t, string(StatusBuilding), snap.Status)
	assert.Equal(t, "drain updates", snap.Phase)
	assert.Equal(t, uint64(4), snap.Done)
	assert.Equal(t, uint64(10), snap.Total)
	assert.InDelta(t, 40.0, snap.ProgressPct, 0.001)

	// Entering a new phase resets the counter.
	tracker.Phase("insert items at level zero", 3)
	snap = tracker.Snapshot()
	assert.Equal(t, uint64(0), snap.Done)
	assert.Equal(t, uint64(3), snap.Total)
}

func TestTrackerTerminalStates(t *testing.T) {
	tracker := NewTracker()
	tracker.SetReady()
	assert.Equal(t, string(StatusReady), tracker.Snapshot().Status)

	tracker = NewTracker()
	tracker.SetError("boom")
	snap := tracker.Snapshot()
	assert.Equal(t, string(StatusError), snap.Status)
	assert.Equal(t, "boom", snap.ErrorMessage)
}

func TestTrackerConcurrentAdvance(t *testing.T) {
	tracker := NewTracker()
	tracker.Phase("insert items at level zero", 1000)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tracker.Advance(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1000), tracker.Snapshot().Done)
}

func TestSnapshotWithZeroTotal(t *testing.T) {
	tracker := NewTracker()
	tracker.Phase("write metadata", 0)
	assert.Zero(t, tracker.Snapshot().ProgressPct)
}
