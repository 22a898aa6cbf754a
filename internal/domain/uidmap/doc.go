// Package uidmap tracks the live mapping from process identity (uid) to
// installed application identity (package name, version code) and keeps a
// bounded, replayable history of changes to it.
//
// Multiple independent consumers drain that history at their own pace: each
// holds a watermark (last timestamp fully processed) and retention is driven
// by the slowest one. Once every consumer has advanced past a record it is
// reclaimed eagerly; a byte budget with FIFO eviction bounds memory in the
// meantime. The snapshot log is never left empty: eviction that would drain
// it triggers synthesis of a fresh snapshot from the live table.
//
// Components:
//   - Tracker: coordinating object owning the table, history, watermarks,
//     and subscriber set under one lock
//   - identityTable: uid -> packages multi-map
//   - historyLog: snapshot and change deques with byte accounting
//   - Subscription: revocable listener handle, pruned lazily on broadcast
//   - isolated uid table: ephemeral uid -> parent uid, independently locked
//
// Collaborators are injected, never reached globally: a Codec serializes
// snapshot blobs, a Guardrail receives usage counters, a SnapshotRequester
// is poked when a consumer registers before any snapshot exists.
//
// Example Usage:
//
//	tracker := uidmap.NewTracker(codec, 256<<10).WithMetrics(metrics)
//	tracker.Upsert(ts, 10001, "com.example.app", 42)
//	tracker.RegisterConsumer("reader")
//	tracker.Drain("reader", time.Now().UnixNano(), sink)
package uidmap
