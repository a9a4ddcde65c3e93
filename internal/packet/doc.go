// Package packet owns the BITS transmission contract.
//
// Ownership boundary:
// - packet tree model (literal and operator variants)
// - recursive decode over a bit sequence with explicit offsets
// - encode, structural validation, and tree formatting
package packet
