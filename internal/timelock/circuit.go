package timelock

import (
	"math/big"

	"github.com/consensys/gnark/frontend"

	"pvde/internal/bigint"
	"pvde/internal/modmath"
	"pvde/internal/sponge"
)

// KeyValidationCircuit proves knowledge of k with k² mod n = k_two and Hash(k) = k_hash.
// The modulus is compiled in as a constant.
type KeyValidationCircuit struct {
	KTwo  [modmath.LimbCount]frontend.Variable `gnark:",public"`
	KHash [2]frontend.Variable                 `gnark:",public"`

	K [modmath.LimbCount]frontend.Variable

	Modulus *big.Int `gnark:"-"`
}

// NewKeyValidationCircuit returns the empty circuit for modulus n, ready to compile.
func NewKeyValidationCircuit(n *big.Int) *KeyValidationCircuit {
	return &KeyValidationCircuit{Modulus: new(big.Int).Set(n)}
}

// Define declares the circuit constraints.
func (c *KeyValidationCircuit) Define(api frontend.API) error {
	chip := bigint.NewChip(api, modmath.LimbWidth)

	k := chip.AssignInteger(c.K[:])
	n := chip.Constant(c.Modulus, modmath.LimbCount)
	chip.AssertLimbsEqual(chip.SquareMod(k, n), c.KTwo[:])

	h, err := sponge.HashLimbs(api, k.Limbs, modmath.LimbWidth)
	if err != nil {
		return err
	}
	api.AssertIsEqual(h[0], c.KHash[0])
	api.AssertIsEqual(h[1], c.KHash[1])
	return nil
}

func limbAssignment(v *big.Int) [modmath.LimbCount]frontend.Variable {
	var out [modmath.LimbCount]frontend.Variable
	for i, l := range modmath.Decompose(v, modmath.LimbCount, modmath.LimbWidth) {
		out[i] = l
	}
	return out
}

// publicAssignment fills the public fields only; the witness of a verifier.
func publicAssignment(public *PublicInput) *KeyValidationCircuit {
	h := public.KHash.BigInts()
	return &KeyValidationCircuit{
		KTwo:  limbAssignment(public.KTwo),
		KHash: [2]frontend.Variable{h[0], h[1]},
	}
}

// assignment is the full witness for proving.
func assignment(public *PublicInput, secret *SecretInput) *KeyValidationCircuit {
	a := publicAssignment(public)
	a.K = limbAssignment(secret.K)
	return a
}
