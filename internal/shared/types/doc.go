// Package types provides shared data structures for the pkgmap service.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - PackageEntry: One installed package hosted at a uid
//   - ChangeRecord: Incremental add/update/remove fact
//   - SnapshotRecord: Full serialized uid map dump
//   - UidMapStats: Tracker statistics
//
// Request Types:
//   - ReplaceRequest, UpsertRequest, RemoveRequest: uid map mutations
//   - ConsumerRequest, DrainRequest: consumer lifecycle
//   - IsolatedRequest: isolated uid mapping
package types
