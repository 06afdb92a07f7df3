// Package control
// Author: momentics <momentics@gmail.com>
//
// Hot-reload, runtime metrics, configuration control, structured logging
// and debug introspection layer for the fiber runtime.
//
// Provides concurrent-safe state handling primitives including:
//   - Immutable snapshot config reads and atomic updates
//   - Runtime observers for hot-reload
//   - Metrics telemetry contracts
//   - State export, debug hooks, and probe registration
//   - A package-wide structured logger and a bounded scheduler trace log
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
