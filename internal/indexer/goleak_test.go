package indexer

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the worker pool and watch-mode goroutines this package
// spawns never outlive their test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}
