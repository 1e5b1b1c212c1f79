package cmd

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/cellulite/internal/progress"
	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

// trackerReporter adapts the progress tracker to the build progress
// interface.
type trackerReporter struct {
	tracker *progress.Tracker
}

func (t trackerReporter) Phase(phase cellulite.BuildPhase, total uint64) {
	t.tracker.Phase(string(phase), total)
}

func (t trackerReporter) Advance(n uint64) {
	t.tracker.Advance(n)
}

// startProgressPrinter renders build progress to stderr while the build
// runs. It stays silent when stderr is not a terminal. The returned stop
// function clears the progress line; calling it more than once is safe.
func startProgressPrinter(tracker *progress.Tracker) (stop func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprint(os.Stderr, "\r\033[K")
				return
			case <-ticker.C:
				snap := tracker.Snapshot()
				if snap.Total > 0 {
					fmt.Fprintf(os.Stderr, "\r\033[K%s: %d/%d (%.0f%%)",
						snap.Phase, snap.Done, snap.Total, snap.ProgressPct)
				} else if snap.Phase != "" {
					fmt.Fprintf(os.Stderr, "\r\033[K%s", snap.Phase)
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}
