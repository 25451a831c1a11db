package pipeline

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain guards the package's errgroup fanout, adapter pool and watch
// debounce timer against goroutine leaks, the way the teacher's core
// package does for its own concurrent components.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
