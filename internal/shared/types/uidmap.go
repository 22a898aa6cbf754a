package types

// PackageEntry is one installed package hosted at a uid.
type PackageEntry struct {
	PackageName string `json:"package_name"`
	VersionCode int64  `json:"version_code"`
	Uid         int32  `json:"uid"`
}

// ChangeRecord is an immutable append-only fact: at TimestampNs, PackageName
// at Uid was added/updated (Deletion=false) or removed (Deletion=true).
type ChangeRecord struct {
	Deletion    bool   `json:"deletion"`
	TimestampNs int64  `json:"timestamp_ns"`
	PackageName string `json:"package_name"`
	Uid         int32  `json:"uid"`
	VersionCode int64  `json:"version_code"`
}

// SnapshotRecord is a full serialized dump of the uid map as of TimestampNs.
// Bytes is opaque to everything except the codec that produced it.
type SnapshotRecord struct {
	TimestampNs int64
	Bytes       []byte
}

// UidMapStats contains tracker statistics
type UidMapStats struct {
	Packages  int    `json:"packages"`
	Snapshots int    `json:"snapshots"`
	Changes   int    `json:"changes"`
	BytesUsed uint64 `json:"bytes_used"`
	Consumers int    `json:"consumers"`
	Isolated  int    `json:"isolated"`
}
