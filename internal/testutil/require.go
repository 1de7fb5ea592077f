package testutil

import (
	"testing"
	"time"
)

// RequireReceive reads one value from ch within timeout, or fails the test.
func RequireReceive[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while %s", what)
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out after %v %s", timeout, what)
	}
	panic("unreachable")
}

// RequireClosed waits for ch to be closed within timeout, draining any
// values sent before the close.
func RequireClosed[T any](t testing.TB, ch <-chan T, timeout time.Duration, what string) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("timed out after %v %s", timeout, what)
		}
	}
}
