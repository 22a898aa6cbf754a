// Package codec serializes uid map state for storage and transport.
//
// Two wire shapes, both hand-encoded with protowire (no generated code):
//   - SnapshotCodec: a full table dump as repeated PackageInfo messages,
//     optionally zstd-compressed. The tracker stores the result opaquely
//     and only measures its length for byte accounting.
//   - ReportWriter/ParseReport: the per-consumer drain report, snapshots at
//     field 1 and changes at field 2.
//
// Example Usage:
//
//	sc := codec.NewSnapshotCodec(false)
//	blob := sc.EncodeSnapshot(entries)
//	entries, err := sc.DecodeSnapshot(blob)
//
//	w := codec.NewReportWriter()
//	tracker.Drain("reader", ts, w)
//	report, err := codec.ParseReport(w.Bytes())
package codec
