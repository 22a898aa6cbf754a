package uidmap

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
	"github.com/deviceos/pkgmap/internal/shared/types"
)

// Codec serializes the full table contents into the opaque snapshot blob.
// The tracker only sizes and stores the result.
type Codec interface {
	EncodeSnapshot(entries []types.PackageEntry) []byte
}

// Guardrail receives best-effort usage counters. Calls are fire-and-forget
// and never load-bearing for correctness.
type Guardrail interface {
	SetUidMapBytes(n uint64)
	SetUidMapSnapshots(n int)
	SetUidMapChanges(n int)
	SetUidMapConsumers(n int)
	NoteUidMapDropped(snapshots, changes int)
}

// SnapshotRequester asks an external authority to push a fresh full
// snapshot. The tracker neither awaits nor verifies a response.
type SnapshotRequester interface {
	TriggerSnapshot() error
}

// Tracker coordinates the live uid map, its bounded history, per-consumer
// watermarks, and event subscribers.
//
// Two independent lock domains: mu guards the table, history, watermarks,
// and subscriber set as one atomic unit; isoMu guards only the isolated uid
// table. Neither lock is ever acquired while holding the other.
type Tracker struct {
	mu         sync.Mutex
	table      *identityTable
	history    *historyLog
	watermarks map[string]int64
	subs       map[*Subscription]struct{}

	isoMu    sync.Mutex
	isolated map[int32]int32

	codec     Codec
	guardrail Guardrail
	requester SnapshotRequester
	logger    *logging.Logger
}

// NewTracker creates a tracker with the given snapshot codec and history
// byte budget.
func NewTracker(codec Codec, maxBytes uint64) *Tracker {
	return &Tracker{
		table:      newIdentityTable(),
		history:    newHistoryLog(maxBytes),
		watermarks: make(map[string]int64),
		subs:       make(map[*Subscription]struct{}),
		isolated:   make(map[int32]int32),
		codec:      codec,
		logger:     &logging.Logger{Logger: zap.NewNop()},
	}
}

// WithMetrics adds a guardrail metrics sink to the tracker
func (t *Tracker) WithMetrics(g Guardrail) *Tracker {
	t.guardrail = g
	return t
}

// WithCompanion adds the snapshot-trigger collaborator
func (t *Tracker) WithCompanion(r SnapshotRequester) *Tracker {
	t.requester = r
	return t
}

// WithLogger adds a logger to the tracker
func (t *Tracker) WithLogger(l *logging.Logger) *Tracker {
	t.logger = l
	return t
}

// ReplaceAll clears the table and installs entries as the new complete
// state, appending exactly one snapshot record built from it. A full
// replace is not a delta: no change record is logged.
func (t *Tracker) ReplaceAll(timestampNs int64, entries []types.PackageEntry) {
	t.mu.Lock()
	t.table.replace(entries)
	blob := t.codec.EncodeSnapshot(t.table.entries())
	t.history.appendSnapshot(types.SnapshotRecord{TimestampNs: timestampNs, Bytes: blob})
	t.enforceLimitLocked()
	t.updateGuardrailLocked()
	listeners := t.liveListenersLocked()
	t.mu.Unlock()

	// Listeners run outside the lock so a callback may re-enter the tracker.
	for _, l := range listeners {
		l.OnReplace(timestampNs)
	}
}

// Upsert adds or updates a single package at a uid. A change record with
// Deletion=false is logged whether it was an insert or a version update.
func (t *Tracker) Upsert(timestampNs int64, uid int32, pkg string, version int64) {
	t.mu.Lock()
	t.history.appendChange(types.ChangeRecord{
		TimestampNs: timestampNs,
		PackageName: pkg,
		Uid:         uid,
		VersionCode: version,
	})
	t.enforceLimitLocked()
	t.updateGuardrailLocked()
	t.table.upsert(uid, pkg, version)
	listeners := t.liveListenersLocked()
	t.mu.Unlock()

	for _, l := range listeners {
		l.OnUpsert(timestampNs, pkg, uid, version)
	}
}

// Remove removes a single package at a uid. Removal is idempotent at the
// table level but always logs a deletion change record.
func (t *Tracker) Remove(timestampNs int64, uid int32, pkg string) {
	t.mu.Lock()
	t.history.appendChange(types.ChangeRecord{
		Deletion:    true,
		TimestampNs: timestampNs,
		PackageName: pkg,
		Uid:         uid,
	})
	t.enforceLimitLocked()
	t.updateGuardrailLocked()
	t.table.remove(uid, pkg)
	listeners := t.liveListenersLocked()
	t.mu.Unlock()

	for _, l := range listeners {
		l.OnRemove(timestampNs, pkg, uid)
	}
}

// HasApp reports whether pkg is installed at uid.
func (t *Tracker) HasApp(uid int32, pkg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.has(uid, pkg)
}

// AppNames returns the package names hosted at uid, lowercased when
// normalized is set.
func (t *Tracker) AppNames(uid int32, normalized bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.names(uid, normalized)
}

// AppVersion returns the version code for (uid, pkg), or 0 when absent.
func (t *Tracker) AppVersion(uid int32, pkg string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.version(uid, pkg)
}

// UidsForPackage returns every uid hosting pkg.
func (t *Tracker) UidsForPackage(pkg string) []int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.uidsFor(pkg)
}

// Entries returns the full live table, ordered by uid then package name.
func (t *Tracker) Entries() []types.PackageEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.table.entries()
}

// BytesUsed returns the approximate memory cost of the retained history.
func (t *Tracker) BytesUsed() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.history.bytesUsed
}

// ClearHistory wipes both history logs and resets the byte counter. The
// live table is untouched.
func (t *Tracker) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history.clear()
	t.updateGuardrailLocked()
}

// Dump writes the live table as one "package, vN (uid)" line per entry.
func (t *Tracker) Dump(w io.Writer) {
	for _, e := range t.Entries() {
		fmt.Fprintf(w, "%s, v%d (%d)\n", e.PackageName, e.VersionCode, e.Uid)
	}
}

// Stats returns tracker statistics
func (t *Tracker) Stats() types.UidMapStats {
	t.isoMu.Lock()
	isolated := len(t.isolated)
	t.isoMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return types.UidMapStats{
		Packages:  t.table.len(),
		Snapshots: len(t.history.snapshots),
		Changes:   len(t.history.changes),
		BytesUsed: t.history.bytesUsed,
		Consumers: len(t.watermarks),
		Isolated:  isolated,
	}
}

func (t *Tracker) enforceLimitLocked() {
	snapshots, changes := t.history.enforceLimit()
	if (snapshots > 0 || changes > 0) && t.guardrail != nil {
		t.guardrail.NoteUidMapDropped(snapshots, changes)
	}
}

func (t *Tracker) updateGuardrailLocked() {
	if t.guardrail == nil {
		return
	}
	t.guardrail.SetUidMapBytes(t.history.bytesUsed)
	t.guardrail.SetUidMapSnapshots(len(t.history.snapshots))
	t.guardrail.SetUidMapChanges(len(t.history.changes))
	t.guardrail.SetUidMapConsumers(len(t.watermarks))
}
