//go:build integration

package mdblocks

// Notes:
// - testPool is shared by every integration test and closed in TestMain
// - acquireConverter releases through t.Cleanup, even on test failure
// - pool size is capped at 4 so CI does not start too many browsers

import (
	"os"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Configuration
// ---------------------------------------------------------------------------

const testTimeout = 60 * time.Second

var testPool *ConverterPool

// ---------------------------------------------------------------------------
// TestMain - Integration Test Setup and Teardown
// ---------------------------------------------------------------------------

func TestMain(m *testing.M) {
	poolSize := min(ResolvePoolSize(0), 4)
	testPool = NewConverterPool(poolSize, WithTimeout(testTimeout))

	code := m.Run()

	_ = testPool.Close()
	os.Exit(code)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func acquireConverter(t *testing.T) *Converter {
	t.Helper()
	conv := testPool.Acquire()
	if conv == nil {
		t.Fatalf("Acquire() = nil, InitErr = %v", testPool.InitErr())
	}
	t.Cleanup(func() { testPool.Release(conv) })
	return conv
}
