// Package cell provides the typed cell reference handle and its
// resolution protocol - the public surface of the memoized computation
// core.
//
// A Ref[T] is a copyable, comparable value wrapping a single node.Locator;
// its type parameter exists only at compile time and adds no runtime
// payload. Handles may be copied and compared from any number of
// concurrent executions without synchronization. Equality and hashing are
// purely locator-based: two handles that will eventually point at equal
// values are not equal until both resolve to the same settled locator.
//
// The operations that may suspend - Resolve, ResolveStronglyConsistent,
// Read, the dynamic casts, and the collectible drains - all take a
// context.Context carrying the active node.Backend, wait cooperatively,
// and surface upstream fatal failures verbatim.
package cell
