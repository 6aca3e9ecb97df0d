// Package store provides durable storage for the task and cell graph.
//
// The store is a write-through cache, not a source of truth: the engine
// holds live state in memory and persists task records, global cell
// snapshots and dependency edges as they are created. The persisted
// graph backs offline inspection (the trace and inspect CLI commands)
// and warm-start diagnostics.
//
// All writes are idempotent. Re-running a graph against an existing
// database re-writes identical rows, which conflict-resolve to no-ops;
// content-addressed keys guarantee that equal work maps to equal rows.
package store
