package uidmap

import (
	"go.uber.org/zap"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

// receiveEverything is the watermark assigned at registration: every record
// in the log is strictly newer than it, so the first drain replays all
// retained history.
const receiveEverything = -1

// Sink receives the records a drain emits, in log order. Emission happens
// under the tracker's main lock, so implementations must not call back into
// the tracker.
type Sink interface {
	AppendChange(rec types.ChangeRecord)
	AppendSnapshot(rec types.SnapshotRecord)
}

// RegisterConsumer creates the consumer's watermark at the
// receive-everything sentinel. When no snapshot exists yet the companion is
// asked to push one; it answering (or not) is invisible to the tracker, so
// a failure only means the first drain may legitimately emit nothing.
func (t *Tracker) RegisterConsumer(key string) {
	t.mu.Lock()
	t.watermarks[key] = receiveEverything
	needSnapshot := len(t.history.snapshots) == 0
	t.updateGuardrailLocked()
	t.mu.Unlock()

	if !needSnapshot || t.requester == nil {
		return
	}
	if err := t.requester.TriggerSnapshot(); err != nil {
		t.logger.Warn("snapshot trigger unavailable",
			zap.String("consumer", key),
			zap.Error(err),
		)
	}
}

// DeregisterConsumer removes the consumer's watermark. Records it alone was
// retaining become evictable, but the sweep runs on the next mutation or
// drain rather than here.
func (t *Tracker) DeregisterConsumer(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.watermarks, key)
	t.updateGuardrailLocked()
}

// Drain emits to sink every change record strictly newer than the
// consumer's watermark and every snapshot newer than it, but always at
// least the newest snapshot, since a consumer cannot bootstrap a uid view
// without one. It then advances the watermark to timestampNs and evicts
// whatever no consumer can still need; if that leaves the snapshot log
// empty, a fresh snapshot of the live table is synthesized so the log is
// never without one.
//
// Draining an unregistered consumer is a no-op.
func (t *Tracker) Drain(key string, timestampNs int64, sink Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()

	mark, ok := t.watermarks[key]
	if !ok {
		return
	}

	for _, rec := range t.history.changes {
		if rec.TimestampNs > mark {
			sink.AppendChange(rec)
		}
	}

	emitted := false
	for i, rec := range t.history.snapshots {
		last := i == len(t.history.snapshots)-1
		if rec.TimestampNs > mark || (last && !emitted) {
			sink.AppendSnapshot(rec)
			emitted = true
		}
	}

	prevMin := t.minWatermarkLocked()
	t.watermarks[key] = timestampNs
	newMin := t.minWatermarkLocked()

	// The retention floor moved forward: everything below it is provably
	// unneeded by any consumer.
	if newMin > prevMin {
		t.history.evictOlderThan(newMin)
		if len(t.history.snapshots) == 0 {
			blob := t.codec.EncodeSnapshot(t.table.entries())
			t.history.appendSnapshot(types.SnapshotRecord{
				TimestampNs: timestampNs,
				Bytes:       blob,
			})
		}
	}
	t.updateGuardrailLocked()
}

// minWatermarkLocked returns the minimum watermark across all registered
// consumers, or 0 when none are registered.
func (t *Tracker) minWatermarkLocked() int64 {
	var min int64
	first := true
	for _, mark := range t.watermarks {
		if first || mark < min {
			min = mark
			first = false
		}
	}
	if first {
		return 0
	}
	return min
}
