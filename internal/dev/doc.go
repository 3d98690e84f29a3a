// Package dev provides the development server and live reload.
//
// This package implements:
//   - Polling file watcher for sources, static files, and config
//   - Rebuilds through internal/build
//   - WebSocket-based browser refresh and stylesheet hot swap
//   - Prometheus metrics and OpenTelemetry request spans
//
// # Architecture
//
//   - Watcher: polls the file system and reports batches of changes
//   - Compiler: serializes builds and remembers the latest result
//   - ReloadServer: notifies browsers of changes via WebSocket
//   - Server: chi router serving the build output plus the endpoints below
//
// # Usage
//
//	srv := dev.NewServer(dev.ServerOptions{Config: cfg})
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
//	/_inactive/reload     WebSocket for live reload (dev.hotReload)
//	/_inactive/reload.js  browser client, injected into index.html
//	/_inactive/metrics    Prometheus metrics (dev.metrics)
//
// # Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "reload"}                  // Full page reload
//	{"type": "css", "file": "/app.css"} // Refetch one stylesheet
//	{"type": "error", "error": "..."}   // Shows error overlay
//	{"type": "clear"}                   // Clears error overlay
package dev
