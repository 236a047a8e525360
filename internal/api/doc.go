// Package api implements the HTTP REST API and WebSocket server for Stockflow Core.
//
// This package provides:
//   - REST endpoints for supply group and controller management
//   - WebSocket hub for real-time engine event broadcasts
//   - JWT authentication with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - Prometheus /metrics and /healthz endpoints
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between operator tooling and the group store +
// controller registry. Mutations go straight to the in-memory layer,
// which persists through its repository; the translation engine picks
// up the changed state on its next signal cycle. Engine events
// (group.synced, controller.dropped) are broadcast to WebSocket
// clients through the shared hub.
//
// # Security
//
// Authentication uses JWT tokens with a built-in operator account.
// WebSocket connections use single-use tickets to prevent token leakage in URLs.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
