// Package main is the entry point for the pkgmap server.
//
// The server tracks which packages live at which uids, keeps a bounded
// replayable history of snapshots and changes, and serves it to drain
// consumers over REST plus a WebSocket event stream.
//
// Configuration:
//   - Environment variables (12-factor)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	PORT=8600 UIDMAP_MAX_BYTES=262144 ./server
//
//	# Development mode (colored logs, debug level)
//	LOG_DEV=true ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
