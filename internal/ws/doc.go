// Package ws streams uid map change events over WebSocket.
//
// Each connection subscribes one listener to the tracker and forwards its
// events as JSON frames. Delivery is best-effort: a client that cannot keep
// up loses frames rather than blocking the tracker's broadcast pass.
// Consumers that need lossless replay use the drain endpoint instead.
//
// Frame Types (Server → Client):
//   - replace: the full map was replaced
//   - upsert: a package was added or upgraded
//   - remove: a package was removed
//
// Example Usage:
//
//	handler := ws.NewHandler(tracker, logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
