// Package capture demonstrates how a closure created inside a counted loop
// observes the loop counter under two binding disciplines:
//   - Shared: one counter binding for the whole loop, updated in place. A
//     stored callback reads the value left after the final increment.
//   - PerIteration: a fresh binding per iteration. A stored callback reads
//     the value of the iteration that created it.
//
// Bindings live in parent-linked Env scopes; callbacks close over a scope,
// never over a copied value, so the difference between the disciplines
// comes entirely from whether the scope is cloned between iterations.
package capture
