// Package engine is the in-process scheduler and cell cache backing the
// cell reference layer. It implements node.Backend: it runs task
// functions, memoizes tasks by content-addressed invocation keys, owns the
// global and local cell tables, aggregates collectibles, and answers the
// resolution protocol.
//
// Concurrency model: every task runs in its own goroutine; completion is
// signalled by closing the task's done channel, so any number of waiters
// resume together. A task's fatal failure is recorded once and surfaced
// verbatim to every resolution, read and cast that transitively depends
// on it. Local cell state is confined to its owning execution and needs
// no cross-goroutine coordination.
package engine
