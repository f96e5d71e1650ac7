// Package sizeclass maps arbitrary byte sizes onto a small set of
// quantized allocation classes.
//
// The engine is pure: a Table is computed once from a Config and never
// mutated. Classification is O(1) — a table load for small sizes, a
// handful of bit operations above the lookup ceiling — and rounds every
// size up to the nearest class boundary (ceiling semantics, classified
// on size-1 so exact boundaries keep their own class).
//
// The boundary constants are policy, not format: any consistent Config
// produces a valid table, and the invariants (ceiling property,
// SizeClass/Size2Index agreement, monotonicity) hold for all of them.
package sizeclass
