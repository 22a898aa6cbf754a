package uidmap

import (
	"strings"
	"testing"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

// stubCodec produces blobs sized by their package names, so byte-accounting
// tests get deterministic costs.
type stubCodec struct{}

func (stubCodec) EncodeSnapshot(entries []types.PackageEntry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = append(buf, e.PackageName...)
		buf = append(buf, '|')
	}
	return buf
}

type stubGuardrail struct {
	bytes            uint64
	snapshots        int
	changes          int
	consumers        int
	droppedSnapshots int
	droppedChanges   int
}

func (g *stubGuardrail) SetUidMapBytes(n uint64)  { g.bytes = n }
func (g *stubGuardrail) SetUidMapSnapshots(n int) { g.snapshots = n }
func (g *stubGuardrail) SetUidMapChanges(n int)   { g.changes = n }
func (g *stubGuardrail) SetUidMapConsumers(n int) { g.consumers = n }
func (g *stubGuardrail) NoteUidMapDropped(snapshots, changes int) {
	g.droppedSnapshots += snapshots
	g.droppedChanges += changes
}

type recordingSink struct {
	changes   []types.ChangeRecord
	snapshots []types.SnapshotRecord
}

func (s *recordingSink) AppendChange(rec types.ChangeRecord)     { s.changes = append(s.changes, rec) }
func (s *recordingSink) AppendSnapshot(rec types.SnapshotRecord) { s.snapshots = append(s.snapshots, rec) }

func newTestTracker() *Tracker {
	return NewTracker(stubCodec{}, 1<<20)
}

func TestUpsertAndLookups(t *testing.T) {
	tr := newTestTracker()

	tr.Upsert(100, 10001, "com.Example.App", 1)
	tr.Upsert(200, 10001, "com.other", 5)
	tr.Upsert(300, 10002, "com.Example.App", 2)

	if !tr.HasApp(10001, "com.Example.App") {
		t.Error("expected (10001, com.Example.App) to exist")
	}
	if tr.HasApp(10001, "com.missing") {
		t.Error("did not expect (10001, com.missing)")
	}

	if v := tr.AppVersion(10001, "com.other"); v != 5 {
		t.Errorf("expected version 5, got %d", v)
	}
	if v := tr.AppVersion(10001, "com.missing"); v != 0 {
		t.Errorf("expected version 0 for missing package, got %d", v)
	}

	names := tr.AppNames(10001, false)
	if len(names) != 2 || names[0] != "com.Example.App" || names[1] != "com.other" {
		t.Errorf("unexpected names: %v", names)
	}
	normalized := tr.AppNames(10001, true)
	if normalized[0] != "com.example.app" {
		t.Errorf("expected normalized name, got %v", normalized)
	}

	uids := tr.UidsForPackage("com.Example.App")
	if len(uids) != 2 || uids[0] != 10001 || uids[1] != 10002 {
		t.Errorf("unexpected uids: %v", uids)
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	tr := newTestTracker()

	tr.Upsert(100, 10001, "com.foo", 1)
	tr.Upsert(200, 10001, "com.foo", 2)

	if v := tr.AppVersion(10001, "com.foo"); v != 2 {
		t.Errorf("expected version 2 after update, got %d", v)
	}
	if got := tr.Stats().Packages; got != 1 {
		t.Errorf("expected 1 package entry, got %d", got)
	}
	// Both the insert and the update logged a change.
	if got := tr.Stats().Changes; got != 2 {
		t.Errorf("expected 2 change records, got %d", got)
	}
}

func TestRemoveIsIdempotentButAlwaysLogs(t *testing.T) {
	tr := newTestTracker()

	tr.Upsert(100, 10001, "com.foo", 1)
	tr.Remove(200, 10001, "com.foo")
	tr.Remove(300, 10001, "com.foo")

	if tr.HasApp(10001, "com.foo") {
		t.Error("expected package removed")
	}
	if got := tr.Stats().Packages; got != 0 {
		t.Errorf("expected empty table, got %d entries", got)
	}
	// One upsert plus two removals: three change records.
	if got := tr.Stats().Changes; got != 3 {
		t.Errorf("expected 3 change records, got %d", got)
	}
}

func TestReplaceAllAppendsOneSnapshotAndNoChanges(t *testing.T) {
	tr := newTestTracker()

	tr.ReplaceAll(100, []types.PackageEntry{
		{PackageName: "com.a", VersionCode: 1, Uid: 10001},
		{PackageName: "com.b", VersionCode: 2, Uid: 10002},
	})

	stats := tr.Stats()
	if stats.Snapshots != 1 {
		t.Errorf("expected 1 snapshot, got %d", stats.Snapshots)
	}
	if stats.Changes != 0 {
		t.Errorf("expected no change records from replace, got %d", stats.Changes)
	}
	if stats.Packages != 2 {
		t.Errorf("expected 2 packages, got %d", stats.Packages)
	}

	// Replace wipes previous state entirely.
	tr.ReplaceAll(200, []types.PackageEntry{
		{PackageName: "com.c", VersionCode: 3, Uid: 10003},
	})
	if tr.HasApp(10001, "com.a") {
		t.Error("expected old entries gone after replace")
	}
	if tr.Stats().Snapshots != 2 {
		t.Errorf("expected 2 snapshots, got %d", tr.Stats().Snapshots)
	}
}

func TestDumpFormat(t *testing.T) {
	tr := newTestTracker()
	tr.Upsert(100, 10001, "com.foo", 7)

	var sb strings.Builder
	tr.Dump(&sb)
	if sb.String() != "com.foo, v7 (10001)\n" {
		t.Errorf("unexpected dump output: %q", sb.String())
	}
}

func TestClearHistoryKeepsLiveTable(t *testing.T) {
	tr := newTestTracker()
	g := &stubGuardrail{}
	tr.WithMetrics(g)

	tr.ReplaceAll(100, []types.PackageEntry{{PackageName: "com.a", VersionCode: 1, Uid: 10001}})
	tr.Upsert(200, 10002, "com.b", 1)

	tr.ClearHistory()

	stats := tr.Stats()
	if stats.Snapshots != 0 || stats.Changes != 0 || stats.BytesUsed != 0 {
		t.Errorf("expected empty history, got %+v", stats)
	}
	if stats.Packages != 2 {
		t.Errorf("expected live table untouched, got %d packages", stats.Packages)
	}
	if g.bytes != 0 || g.snapshots != 0 || g.changes != 0 {
		t.Errorf("expected guardrail reset, got %+v", g)
	}
}

func TestByteBudgetEvictsOldestSnapshotFirst(t *testing.T) {
	// Each snapshot of one entry named "com.aaaaaa" costs
	// len("com.aaaaaa|") + 8 = 19 bytes. A 30-byte budget holds one
	// snapshot but not two.
	tr := NewTracker(stubCodec{}, 30)
	g := &stubGuardrail{}
	tr.WithMetrics(g)

	entries := []types.PackageEntry{{PackageName: "com.aaaaaa", VersionCode: 1, Uid: 10001}}
	tr.ReplaceAll(100, entries)
	tr.ReplaceAll(200, entries)

	if got := tr.Stats().Snapshots; got != 1 {
		t.Errorf("expected exactly 1 snapshot retained, got %d", got)
	}
	if g.droppedSnapshots != 1 {
		t.Errorf("expected 1 dropped snapshot, got %d", g.droppedSnapshots)
	}
	if g.droppedChanges != 0 {
		t.Errorf("expected no dropped changes, got %d", g.droppedChanges)
	}
}

func TestByteBudgetDropsChangesOnlyAfterSnapshotsGone(t *testing.T) {
	// changeCost("com.foo") = 32 + 7 = 39; budget of 100 holds two
	// changes (78) but not three (117).
	tr := NewTracker(stubCodec{}, 100)
	g := &stubGuardrail{}
	tr.WithMetrics(g)

	tr.Upsert(100, 10001, "com.foo", 1)
	tr.Upsert(200, 10001, "com.foo", 2)
	tr.Upsert(300, 10001, "com.foo", 3)

	if g.droppedChanges != 1 {
		t.Errorf("expected 1 dropped change, got %d", g.droppedChanges)
	}
	if got := tr.Stats().Changes; got != 2 {
		t.Errorf("expected 2 retained changes, got %d", got)
	}
}

func TestEvictionTerminatesWithEmptyLogs(t *testing.T) {
	// Eviction must stop once both logs are empty, even though an
	// oversized record briefly pushed usage past the budget.
	tr := NewTracker(stubCodec{}, 10)
	tr.ReplaceAll(100, []types.PackageEntry{
		{PackageName: strings.Repeat("x", 100), VersionCode: 1, Uid: 10001},
	})

	stats := tr.Stats()
	if stats.Snapshots != 0 || stats.BytesUsed != 0 {
		t.Errorf("expected empty history after oversized drop, got %+v", stats)
	}
	if stats.Packages != 1 {
		t.Errorf("expected live table untouched, got %d packages", stats.Packages)
	}
}
