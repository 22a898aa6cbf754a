package uidmap

import "github.com/deviceos/pkgmap/internal/shared/types"

// Approximate per-record memory costs. The byte counter is additive
// bookkeeping driven by these constants plus measured payload lengths, not
// real memory introspection.
const (
	// timestampFieldBytes is charged once per stored snapshot on top of its
	// serialized payload.
	timestampFieldBytes = 8
	// changeRecordBytes covers the fixed-width fields of a change record;
	// the package name is charged by measured length.
	changeRecordBytes = 32
)

func snapshotCost(rec types.SnapshotRecord) uint64 {
	return uint64(len(rec.Bytes)) + timestampFieldBytes
}

func changeCost(rec types.ChangeRecord) uint64 {
	return changeRecordBytes + uint64(len(rec.PackageName))
}

// historyLog holds the two bounded, time-ordered logs: full-state snapshots
// and incremental change deltas, with FIFO eviction against a byte budget.
// Not safe for concurrent use; the Tracker's main lock guards it.
type historyLog struct {
	snapshots []types.SnapshotRecord
	changes   []types.ChangeRecord
	bytesUsed uint64
	maxBytes  uint64
}

func newHistoryLog(maxBytes uint64) *historyLog {
	return &historyLog{maxBytes: maxBytes}
}

func (h *historyLog) appendSnapshot(rec types.SnapshotRecord) {
	h.snapshots = append(h.snapshots, rec)
	h.bytesUsed += snapshotCost(rec)
}

func (h *historyLog) appendChange(rec types.ChangeRecord) {
	h.changes = append(h.changes, rec)
	h.bytesUsed += changeCost(rec)
}

// enforceLimit drops oldest-first while over budget: snapshots before
// changes, since a newer snapshot supersedes any number of older deltas.
// Returns how many of each were dropped.
func (h *historyLog) enforceLimit() (droppedSnapshots, droppedChanges int) {
	for h.bytesUsed > h.maxBytes {
		switch {
		case len(h.snapshots) > 0:
			h.bytesUsed -= snapshotCost(h.snapshots[0])
			h.snapshots = h.snapshots[1:]
			droppedSnapshots++
		case len(h.changes) > 0:
			h.bytesUsed -= changeCost(h.changes[0])
			h.changes = h.changes[1:]
			droppedChanges++
		default:
			return
		}
	}
	return
}

// evictOlderThan drops every record with a timestamp strictly below
// cutoffNs. Unlike enforceLimit this removes all qualifying records in one
// pass: once every consumer has advanced past cutoffNs they are dead weight.
func (h *historyLog) evictOlderThan(cutoffNs int64) {
	kept := h.snapshots[:0]
	for _, rec := range h.snapshots {
		if rec.TimestampNs < cutoffNs {
			h.bytesUsed -= snapshotCost(rec)
			continue
		}
		kept = append(kept, rec)
	}
	h.snapshots = kept

	keptChanges := h.changes[:0]
	for _, rec := range h.changes {
		if rec.TimestampNs < cutoffNs {
			h.bytesUsed -= changeCost(rec)
			continue
		}
		keptChanges = append(keptChanges, rec)
	}
	h.changes = keptChanges
}

func (h *historyLog) clear() {
	h.snapshots = nil
	h.changes = nil
	h.bytesUsed = 0
}
