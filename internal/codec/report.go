package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

// Drain report layout: repeated snapshot messages at field 1 and repeated
// change messages at field 2, in the order the tracker emitted them.
const (
	fieldReportSnapshot = 1
	fieldReportChange   = 2

	fieldSnapshotTimestamp = 1
	fieldSnapshotPayload   = 2

	fieldChangeDeletion  = 1
	fieldChangeTimestamp = 2
	fieldChangePackage   = 3
	fieldChangeUid       = 4
	fieldChangeVersion   = 5
)

// ReportWriter accumulates drained records into a protowire report. It is
// the wire-facing implementation of the tracker's drain sink.
type ReportWriter struct {
	buf []byte
}

// NewReportWriter creates an empty report writer.
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// AppendChange appends one change record to the report.
func (w *ReportWriter) AppendChange(rec types.ChangeRecord) {
	var msg []byte
	msg = protowire.AppendTag(msg, fieldChangeDeletion, protowire.VarintType)
	msg = protowire.AppendVarint(msg, protowire.EncodeBool(rec.Deletion))
	msg = protowire.AppendTag(msg, fieldChangeTimestamp, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(rec.TimestampNs))
	msg = protowire.AppendTag(msg, fieldChangePackage, protowire.BytesType)
	msg = protowire.AppendString(msg, rec.PackageName)
	msg = protowire.AppendTag(msg, fieldChangeUid, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(int64(rec.Uid)))
	msg = protowire.AppendTag(msg, fieldChangeVersion, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(rec.VersionCode))

	w.buf = protowire.AppendTag(w.buf, fieldReportChange, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, msg)
}

// AppendSnapshot appends one snapshot record to the report. The payload
// stays opaque; consumers hand it back to the snapshot codec.
func (w *ReportWriter) AppendSnapshot(rec types.SnapshotRecord) {
	var msg []byte
	msg = protowire.AppendTag(msg, fieldSnapshotTimestamp, protowire.VarintType)
	msg = protowire.AppendVarint(msg, uint64(rec.TimestampNs))
	msg = protowire.AppendTag(msg, fieldSnapshotPayload, protowire.BytesType)
	msg = protowire.AppendBytes(msg, rec.Bytes)

	w.buf = protowire.AppendTag(w.buf, fieldReportSnapshot, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, msg)
}

// Bytes returns the accumulated report.
func (w *ReportWriter) Bytes() []byte {
	return w.buf
}

// Len returns the size of the accumulated report in bytes.
func (w *ReportWriter) Len() int {
	return len(w.buf)
}

// Report is a parsed drain report.
type Report struct {
	Snapshots []types.SnapshotRecord
	Changes   []types.ChangeRecord
}

// ParseReport decodes a drain report produced by ReportWriter.
func ParseReport(buf []byte) (Report, error) {
	var rep Report
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return rep, fmt.Errorf("parse report tag: %w", protowire.ParseError(n))
		}
		buf = buf[n:]
		if typ != protowire.BytesType {
			return rep, fmt.Errorf("unexpected report field %d (type %d)", num, typ)
		}
		msg, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return rep, fmt.Errorf("parse report record: %w", protowire.ParseError(n))
		}
		buf = buf[n:]

		switch num {
		case fieldReportSnapshot:
			rec, err := parseSnapshotRecord(msg)
			if err != nil {
				return rep, err
			}
			rep.Snapshots = append(rep.Snapshots, rec)
		case fieldReportChange:
			rec, err := parseChangeRecord(msg)
			if err != nil {
				return rep, err
			}
			rep.Changes = append(rep.Changes, rec)
		default:
			return rep, fmt.Errorf("unexpected report field %d", num)
		}
	}
	return rep, nil
}

func parseSnapshotRecord(msg []byte) (types.SnapshotRecord, error) {
	var rec types.SnapshotRecord
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return rec, fmt.Errorf("parse snapshot record tag: %w", protowire.ParseError(n))
		}
		msg = msg[n:]

		switch num {
		case fieldSnapshotTimestamp:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse snapshot timestamp: %w", protowire.ParseError(n))
			}
			rec.TimestampNs = int64(v)
			msg = msg[n:]
		case fieldSnapshotPayload:
			b, n := protowire.ConsumeBytes(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse snapshot payload: %w", protowire.ParseError(n))
			}
			rec.Bytes = append([]byte(nil), b...)
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return rec, fmt.Errorf("skip snapshot field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
		}
	}
	return rec, nil
}

func parseChangeRecord(msg []byte) (types.ChangeRecord, error) {
	var rec types.ChangeRecord
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return rec, fmt.Errorf("parse change record tag: %w", protowire.ParseError(n))
		}
		msg = msg[n:]

		switch num {
		case fieldChangeDeletion:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse change deletion: %w", protowire.ParseError(n))
			}
			rec.Deletion = protowire.DecodeBool(v)
			msg = msg[n:]
		case fieldChangeTimestamp:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse change timestamp: %w", protowire.ParseError(n))
			}
			rec.TimestampNs = int64(v)
			msg = msg[n:]
		case fieldChangePackage:
			s, n := protowire.ConsumeString(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse change package: %w", protowire.ParseError(n))
			}
			rec.PackageName = s
			msg = msg[n:]
		case fieldChangeUid:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse change uid: %w", protowire.ParseError(n))
			}
			rec.Uid = int32(int64(v))
			msg = msg[n:]
		case fieldChangeVersion:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return rec, fmt.Errorf("parse change version: %w", protowire.ParseError(n))
			}
			rec.VersionCode = int64(v)
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return rec, fmt.Errorf("skip change field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
		}
	}
	return rec, nil
}
