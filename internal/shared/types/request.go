package types

// ReplaceRequest installs a complete new uid map state
type ReplaceRequest struct {
	TimestampNs int64          `json:"timestamp_ns"`
	Entries     []PackageEntry `json:"entries"`
}

// UpsertRequest adds or updates a single package at a uid
type UpsertRequest struct {
	TimestampNs int64  `json:"timestamp_ns"`
	Uid         int32  `json:"uid"`
	PackageName string `json:"package_name" binding:"required"`
	VersionCode int64  `json:"version_code"`
}

// RemoveRequest removes a single package at a uid
type RemoveRequest struct {
	TimestampNs int64  `json:"timestamp_ns"`
	Uid         int32  `json:"uid"`
	PackageName string `json:"package_name" binding:"required"`
}

// ConsumerRequest registers a drain consumer; an empty key asks the
// server to generate one
type ConsumerRequest struct {
	Key string `json:"key"`
}

// DrainRequest advances a consumer's watermark to TimestampNs; zero means
// the server clock
type DrainRequest struct {
	TimestampNs int64 `json:"timestamp_ns"`
}

// IsolatedRequest maps an ephemeral isolated uid to its parent uid
type IsolatedRequest struct {
	IsolatedUid int32 `json:"isolated_uid" binding:"required"`
	ParentUid   int32 `json:"parent_uid"`
}
