package queue_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Workers are detached goroutines; the leak check proves every drain
// terminates and releases.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
