package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

func sampleEntries() []types.PackageEntry {
	return []types.PackageEntry{
		{PackageName: "android", VersionCode: 34, Uid: 1000},
		{PackageName: "com.example.camera", VersionCode: 70122, Uid: 10042},
		{PackageName: "com.example.shared", VersionCode: 3, Uid: 10042},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := NewSnapshotCodec(false)

	blob := c.EncodeSnapshot(sampleEntries())
	require.NotEmpty(t, blob)

	decoded, err := c.DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), decoded)
}

func TestSnapshotRoundTripCompressed(t *testing.T) {
	c := NewSnapshotCodec(true)

	blob := c.EncodeSnapshot(sampleEntries())
	require.NotEmpty(t, blob)

	decoded, err := c.DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), decoded)
}

func TestSnapshotEmptyTable(t *testing.T) {
	c := NewSnapshotCodec(false)

	blob := c.EncodeSnapshot(nil)
	assert.Empty(t, blob)

	decoded, err := c.DecodeSnapshot(blob)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestSnapshotNegativeUidSurvives(t *testing.T) {
	c := NewSnapshotCodec(false)
	in := []types.PackageEntry{{PackageName: "com.x", VersionCode: 1, Uid: -1}}

	decoded, err := c.DecodeSnapshot(c.EncodeSnapshot(in))
	require.NoError(t, err)
	assert.Equal(t, in, decoded)
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	c := NewSnapshotCodec(false)

	_, err := c.DecodeSnapshot([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestDecodeSnapshotRejectsCorruptFrame(t *testing.T) {
	c := NewSnapshotCodec(true)

	_, err := c.DecodeSnapshot([]byte("not a zstd frame"))
	assert.Error(t, err)
}
