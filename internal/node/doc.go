// Package node defines the untyped substrate of the cell reference layer:
// the Locator tagged union that identifies where a value lives (or will
// live), the SharedRef immutable snapshot handed out by reads, and the
// Backend contract the scheduler/cache collaborator implements.
//
// Locators are small comparable value types. Copying one is free, and two
// handles are equal exactly when their locators are equal - which is why
// unsettled locators must be resolved before identity comparisons mean
// anything. See the cell package for the typed layer on top.
package node
