// Package internal contains the core implementation packages for mdv.
//
// The packages are organized by functional domain:
//
//   - apperr: the shared error taxonomy and its HTTP status mapping
//   - bus: bounded broadcast channels backing reload and command fan-out
//   - config: configuration loading and validation
//   - logging: structured logging
//   - remote: the remote-control command wire format
//   - render: markdown to HTML rendering
//   - server: the HTTP surface (API, viewer, SSE, WebSocket)
//   - watcher: per-workspace polling change detection
//   - workspace: the registry, path confinement, and the sync service
//
// Workspace state flows one way: the registry owns workspaces and their
// watchers, watchers publish to the reload bus, and the server fans events
// out to browsers. HTTP handlers reach everything through the sync service
// and never touch a watcher directly.
package internal
