// Package registry holds the process-wide value type and trait registry.
//
// Every value that can live in a cell is registered once at startup under a
// stable name, together with its cell update mode and the set of traits
// (capability interfaces) its concrete type implements. Dynamic casts on
// cell references consult this table instead of relying on Go's runtime
// type assertions, so "does this value implement trait K" is answered the
// same way for every caller in the process.
//
// Lifecycle: registration happens during an explicit startup phase (package
// init or main). After that the registry is read-only and safe for
// arbitrarily many concurrent readers.
package registry
