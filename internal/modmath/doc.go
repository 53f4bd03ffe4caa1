// Package modmath provides the exact big-integer arithmetic shared by the time-lock puzzle,
// the sigma protocol and the circuit witnesses.
//
// Overview:
//   - PowMod is square-and-multiply exponentiation, used by solvers and verifiers
//   - RepeatedSquare is the straight-line t-fold squaring that builds puzzle parameters
//   - Decompose/Compose convert between big integers and little-endian fixed-width limbs
//
// The puzzle's sequential hardness depends on RepeatedSquare never being replaced by a
// shortcut: without the group order there is no faster way to reach g^(2^t).
package modmath
