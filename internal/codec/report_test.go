package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

func TestReportRoundTrip(t *testing.T) {
	snap := NewSnapshotCodec(false)
	w := NewReportWriter()

	w.AppendSnapshot(types.SnapshotRecord{
		TimestampNs: 1000,
		Bytes:       snap.EncodeSnapshot(sampleEntries()),
	})
	w.AppendChange(types.ChangeRecord{
		Deletion:    false,
		TimestampNs: 2000,
		PackageName: "com.example.camera",
		Uid:         10042,
		VersionCode: 70123,
	})
	w.AppendChange(types.ChangeRecord{
		Deletion:    true,
		TimestampNs: 3000,
		PackageName: "com.example.shared",
		Uid:         10042,
	})

	require.Equal(t, len(w.Bytes()), w.Len())

	rep, err := ParseReport(w.Bytes())
	require.NoError(t, err)

	require.Len(t, rep.Snapshots, 1)
	assert.Equal(t, int64(1000), rep.Snapshots[0].TimestampNs)

	entries, err := snap.DecodeSnapshot(rep.Snapshots[0].Bytes)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), entries)

	require.Len(t, rep.Changes, 2)
	assert.Equal(t, types.ChangeRecord{
		TimestampNs: 2000,
		PackageName: "com.example.camera",
		Uid:         10042,
		VersionCode: 70123,
	}, rep.Changes[0])
	assert.True(t, rep.Changes[1].Deletion)
	assert.Equal(t, "com.example.shared", rep.Changes[1].PackageName)
}

func TestEmptyReport(t *testing.T) {
	w := NewReportWriter()
	assert.Zero(t, w.Len())

	rep, err := ParseReport(w.Bytes())
	require.NoError(t, err)
	assert.Empty(t, rep.Snapshots)
	assert.Empty(t, rep.Changes)
}

func TestParseReportRejectsTruncatedRecord(t *testing.T) {
	w := NewReportWriter()
	w.AppendChange(types.ChangeRecord{TimestampNs: 1, PackageName: "com.x", Uid: 1, VersionCode: 1})

	buf := w.Bytes()
	_, err := ParseReport(buf[:len(buf)-2])
	assert.Error(t, err)
}
