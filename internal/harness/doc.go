// Package harness executes compiled computation graphs on the engine.
//
// It registers a small demo value vocabulary (Number, Text, the
// Diagnostic trait) and maps each declared task of a GraphSpec onto a
// memoized engine task built from the typed cell handle layer. The
// harness is what the run CLI command and the end-to-end tests drive;
// it exists so every layer of the module (registry, handles, engine,
// store) is exercised by one realistic consumer.
package harness
