// Package value provides the constrained value vocabulary and the
// deterministic serialization the engine uses for content-addressed
// identity: memoization keys for tasks and content hashes for
// dedup-by-equality cell updates.
//
// Serialization follows RFC 8785 canonical JSON (UTF-16 key ordering, NFC
// normalized strings, no HTML escaping). Floats and nulls are rejected:
// they have no stable canonical form and would break hash determinism.
package value
