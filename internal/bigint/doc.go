// Package bigint implements non-native big-integer arithmetic inside gnark circuits.
//
// An integer is a little-endian sequence of limbs, each a native field element. The range
// state of the limbs is carried in the type:
//   - Integer[Fresh]: every limb is range-checked to LimbWidth bits
//   - Integer[Muled]: raw schoolbook products, limbs may exceed LimbWidth bits
//
// Mul only accepts Fresh operands, so a product has to go through Refresh (driven by a
// RefreshAux computed off-circuit) before it can be multiplied again. SquareMod composes
// Mul, Refresh and a hint-assisted modular reduction.
//
// All limb bounds are kept below the native field size, so limb equalities hold over the
// integers and not only modulo the field.
package bigint
