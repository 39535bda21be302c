// Package leaktest provides goroutine and memory leak checks for tests of
// long-running components (worker pools, hubs, loops).
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

// GoroutineChecker compares the goroutine count before and after the code
// under test.
type GoroutineChecker struct {
	before int
	t      testing.TB
}

// NewGoroutineChecker records the current goroutine count as the baseline.
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()

	// Let background goroutines settle before taking the baseline.
	runtime.Gosched()
	time.Sleep(10 * time.Millisecond)

	return &GoroutineChecker{
		before: runtime.NumGoroutine(),
		t:      t,
	}
}

// Check fails the test if the goroutine count grew past the baseline by more
// than tolerance.
func (g *GoroutineChecker) Check(tolerance int) {
	g.t.Helper()

	// Give finishing goroutines a chance to exit before counting.
	runtime.Gosched()
	time.Sleep(50 * time.Millisecond)
	runtime.GC()
	time.Sleep(50 * time.Millisecond)

	after := runtime.NumGoroutine()
	leaked := after - g.before

	if leaked > tolerance {
		g.t.Errorf("Potential goroutine leak: before=%d, after=%d, leaked=%d (tolerance=%d)",
			g.before, after, leaked, tolerance)
	}
}

// MemoryChecker compares heap allocation before and after the code under
// test.
type MemoryChecker struct {
	before runtime.MemStats
	t      testing.TB
}

// NewMemoryChecker records current memory stats as the baseline.
func NewMemoryChecker(t testing.TB) *MemoryChecker {
	t.Helper()

	runtime.GC()
	time.Sleep(10 * time.Millisecond)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &MemoryChecker{
		before: m,
		t:      t,
	}
}

// Check fails the test if heap allocation grew by more than maxGrowthMB.
func (m *MemoryChecker) Check(maxGrowthMB float64) {
	m.t.Helper()

	runtime.GC()
	time.Sleep(50 * time.Millisecond)

	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	beforeMB := float64(m.before.Alloc) / 1024 / 1024
	afterMB := float64(after.Alloc) / 1024 / 1024
	growthMB := afterMB - beforeMB

	if growthMB > maxGrowthMB {
		m.t.Errorf("Potential memory leak: before=%.2fMB, after=%.2fMB, growth=%.2fMB (max=%.2fMB)",
			beforeMB, afterMB, growthMB, maxGrowthMB)
	}
}

// CheckNoGoroutineLeak runs fn and fails the test if any goroutine it
// started is still alive afterwards. fn must stop everything it starts.
func CheckNoGoroutineLeak(t *testing.T, fn func()) {
	t.Helper()

	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0)
}

// CheckNoMemoryLeak runs fn and fails the test if heap allocation grew by
// more than maxGrowthMB.
func CheckNoMemoryLeak(t *testing.T, maxGrowthMB float64, fn func()) {
	t.Helper()

	checker := NewMemoryChecker(t)
	fn()
	checker.Check(maxGrowthMB)
}

// WaitForGoroutines blocks until the goroutine count drops to target, or
// fails the test after timeout.
func WaitForGoroutines(t *testing.T, target int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		runtime.Gosched()
		if runtime.NumGoroutine() <= target {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Errorf("Timeout waiting for goroutines to complete: current=%d, target=%d",
		runtime.NumGoroutine(), target)
}
