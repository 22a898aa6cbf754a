package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/deviceos/pkgmap/internal/shared/types"
)

// Field numbering inside a snapshot payload: repeated PackageInfo messages
// carrying name, version, uid.
const (
	fieldSnapshotPackageInfo = 2

	fieldPackageName    = 1
	fieldPackageVersion = 2
	fieldPackageUid     = 3
)

// SnapshotCodec serializes full uid map states into the opaque blobs the
// tracker stores and sizes. With compression enabled the protowire payload
// is wrapped in a zstd frame; both sides of the wire must agree on the flag.
type SnapshotCodec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewSnapshotCodec creates a snapshot codec, optionally zstd-compressing
// the encoded payload.
func NewSnapshotCodec(compress bool) *SnapshotCodec {
	c := &SnapshotCodec{compress: compress}
	if compress {
		c.enc, _ = zstd.NewWriter(nil)
		c.dec, _ = zstd.NewReader(nil)
	}
	return c
}

// EncodeSnapshot serializes entries into a snapshot blob.
func (c *SnapshotCodec) EncodeSnapshot(entries []types.PackageEntry) []byte {
	var buf []byte
	for _, e := range entries {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldPackageName, protowire.BytesType)
		msg = protowire.AppendString(msg, e.PackageName)
		msg = protowire.AppendTag(msg, fieldPackageVersion, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(e.VersionCode))
		msg = protowire.AppendTag(msg, fieldPackageUid, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(int64(e.Uid)))

		buf = protowire.AppendTag(buf, fieldSnapshotPackageInfo, protowire.BytesType)
		buf = protowire.AppendBytes(buf, msg)
	}
	if c.compress {
		return c.enc.EncodeAll(buf, make([]byte, 0, len(buf)/2))
	}
	return buf
}

// DecodeSnapshot parses a snapshot blob back into package entries.
func (c *SnapshotCodec) DecodeSnapshot(blob []byte) ([]types.PackageEntry, error) {
	if c.compress {
		raw, err := c.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		blob = raw
	}

	var entries []types.PackageEntry
	for len(blob) > 0 {
		num, typ, n := protowire.ConsumeTag(blob)
		if n < 0 {
			return nil, fmt.Errorf("parse snapshot tag: %w", protowire.ParseError(n))
		}
		blob = blob[n:]
		if num != fieldSnapshotPackageInfo || typ != protowire.BytesType {
			return nil, fmt.Errorf("unexpected snapshot field %d (type %d)", num, typ)
		}
		msg, n := protowire.ConsumeBytes(blob)
		if n < 0 {
			return nil, fmt.Errorf("parse package info: %w", protowire.ParseError(n))
		}
		blob = blob[n:]

		entry, err := decodePackageEntry(msg)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodePackageEntry(msg []byte) (types.PackageEntry, error) {
	var e types.PackageEntry
	for len(msg) > 0 {
		num, typ, n := protowire.ConsumeTag(msg)
		if n < 0 {
			return e, fmt.Errorf("parse package entry tag: %w", protowire.ParseError(n))
		}
		msg = msg[n:]

		switch num {
		case fieldPackageName:
			s, n := protowire.ConsumeString(msg)
			if n < 0 {
				return e, fmt.Errorf("parse package name: %w", protowire.ParseError(n))
			}
			e.PackageName = s
			msg = msg[n:]
		case fieldPackageVersion:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return e, fmt.Errorf("parse package version: %w", protowire.ParseError(n))
			}
			e.VersionCode = int64(v)
			msg = msg[n:]
		case fieldPackageUid:
			v, n := protowire.ConsumeVarint(msg)
			if n < 0 {
				return e, fmt.Errorf("parse package uid: %w", protowire.ParseError(n))
			}
			e.Uid = int32(int64(v))
			msg = msg[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, msg)
			if n < 0 {
				return e, fmt.Errorf("skip package entry field %d: %w", num, protowire.ParseError(n))
			}
			msg = msg[n:]
		}
	}
	return e, nil
}
