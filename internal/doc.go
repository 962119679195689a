// Package internal contains the core implementation packages for plansketch.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the plansketch CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - types: shared shape, record, and event definitions
//   - geometry: pure geometric computation (distances, angles, areas, snapping)
//   - precision: feet-text measurement parsing, formatting, and scaling
//   - engine: canvas state machine with shape construction and undo/redo
//   - legacy: mapping between engine shapes and the external record schema
//   - codec: hierarchical, tagged-markup, and tabular wire formats
//   - reconcile: declared-vs-computed measurement comparison
//   - config: configuration management with validation
//   - logging: structured logging on top of log/slog
//   - errors: decode errors and per-record failure collection
//   - server: HTTP API, WebSocket event feed, and origin validation
//   - watcher: file system monitoring with debouncing for re-imports
//
// # Inter-Package Communication
//
// Packages communicate through well-defined types and interfaces:
//
//   - The engine owns canvas state and emits events to watchers
//   - The codec translates through the legacy record schema in both directions
//   - The server broadcasts engine events and exposes state over HTTP
//   - The watcher feeds changed export files back into the engine
//
// # Design Principles
//
// All internal packages follow these design principles:
//
//   - Immutable state snapshots with deep copies at package boundaries
//   - Lenient decoding: individual fields degrade, batches isolate failures
//   - Concurrent safety with proper mutex usage and race protection
//   - Testability with unit and property-based test coverage
//
// For detailed documentation, see the individual package documentation.
package internal
