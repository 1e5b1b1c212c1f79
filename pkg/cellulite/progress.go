package cellulite

// BuildPhase names one phase of a build, in execution order.
type BuildPhase string

const (
	PhaseDrainUpdates       BuildPhase = "drain updates"
	PhaseRemoveDeletedItems BuildPhase = "remove deleted items"
	PhaseSnapshotItems      BuildPhase = "snapshot items"
	PhaseInsertLevelZero    BuildPhase = "insert items at level zero"
	PhaseInsertRecursively  BuildPhase = "insert items recursively"
	PhaseWriteMetadata      BuildPhase = "write metadata"
)

// ProgressReporter receives build progress. Implementations must be safe
// for concurrent Advance calls; the level-zero phase advances from several
// goroutines.
type ProgressReporter interface {
	// Phase enters a new build phase with the given number of units.
	Phase(phase BuildPhase, total uint64)
	// Advance records n completed units in the current phase.
	Advance(n uint64)
}

type noopProgress struct{}

func (noopProgress) Phase(BuildPhase, uint64) {}
func (noopProgress) Advance(uint64)           {}
