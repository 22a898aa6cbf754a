package uidmap

import "testing"

func TestResolveUidPassesThroughUnknownUids(t *testing.T) {
	tr := newTestTracker()

	if got := tr.ResolveUid(12345); got != 12345 {
		t.Errorf("expected unknown uid returned unchanged, got %d", got)
	}
}

func TestIsolatedUidLifecycle(t *testing.T) {
	tr := newTestTracker()

	tr.AssignIsolated(99001, 10007)
	if got := tr.ResolveUid(99001); got != 10007 {
		t.Errorf("expected isolated uid resolved to host, got %d", got)
	}

	// Reassignment overwrites in place.
	tr.AssignIsolated(99001, 10008)
	if got := tr.ResolveUid(99001); got != 10008 {
		t.Errorf("expected reassigned host uid, got %d", got)
	}

	tr.ReleaseIsolated(99001, 10008)
	if got := tr.ResolveUid(99001); got != 99001 {
		t.Errorf("expected released uid to resolve to itself, got %d", got)
	}

	// Releasing twice is harmless.
	tr.ReleaseIsolated(99001, 10008)
	if got := tr.Stats().Isolated; got != 0 {
		t.Errorf("expected empty isolated map, got %d", got)
	}
}
