// Package config provides 12-factor configuration management for pkgmap.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - History: retained history byte budget and snapshot compression
//   - Companion: snapshot-trigger companion service settings
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - UIDMAP_MAX_BYTES, UIDMAP_SNAPSHOT_COMPRESS
//   - COMPANION_ADDR, COMPANION_ENABLED
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
