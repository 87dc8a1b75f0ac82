// Package ast defines the validated, immutable representation of a formcode
// document: an ordered list of fieldsets, each holding an ordered list of
// fields. Values of these types are produced by the parser and consumed by
// the compiler, the structural diff and the exporters. Helpers in this
// package never mutate their input; positional edits such as Move return a
// deep copy.
package ast
