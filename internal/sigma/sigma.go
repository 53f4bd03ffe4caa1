// Package sigma implements the non-interactive (Fiat-Shamir) proof of knowledge of an
// exponent s with o = g^s and k_two = y_two^s modulo a hidden-order modulus.
//
// The response z = r + s·c is deliberately left unreduced: the group order is unknown,
// so the verifier's exponentiations take the full-size z.
package sigma

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"pvde/internal/modmath"
	"pvde/internal/sponge"
)

// Param is the public statement shared by prover and verifier.
type Param struct {
	Modulus   *big.Int
	Generator *big.Int
	YTwo      *big.Int
}

// PublicInput is a complete proof: commitments, response and the claimed powers.
type PublicInput struct {
	R1   *big.Int `json:"r1"`
	R2   *big.Int `json:"r2"`
	Z    *big.Int `json:"z"`
	O    *big.Int `json:"o"`
	KTwo *big.Int `json:"k_two"`
}

// Generate builds a proof for exponent s with blinding r.
func Generate(param Param, r, s *big.Int) *PublicInput {
	n := param.Modulus
	r1 := modmath.PowMod(param.Generator, r, n)
	r2 := modmath.PowMod(param.YTwo, r, n)
	c := Challenge(r1, r2)

	z := new(big.Int).Mul(s, c)
	z.Add(z, r)

	return &PublicInput{
		R1:   r1,
		R2:   r2,
		Z:    z,
		O:    modmath.PowMod(param.Generator, s, n),
		KTwo: modmath.PowMod(param.YTwo, s, n),
	}
}

// Challenge hashes the limbs of r1 followed by the limbs of r2 and returns state word 1.
func Challenge(r1, r2 *big.Int) *big.Int {
	h := sponge.NewHash()
	h.Update(limbElements(r1)...)
	h.Update(limbElements(r2)...)
	st := h.Squeeze()
	c := st.Word(1)
	return c.BigInt(new(big.Int))
}

// Verify checks g^z ≡ r1·o^c and y_two^z ≡ r2·k_two^c (mod n).
func Verify(input *PublicInput, param Param) bool {
	if input == nil || input.R1 == nil || input.R2 == nil || input.Z == nil || input.O == nil || input.KTwo == nil {
		return false
	}
	if param.Modulus == nil || param.Modulus.Sign() <= 0 || param.Generator == nil || param.YTwo == nil {
		return false
	}
	if input.Z.Sign() < 0 {
		return false
	}
	for _, v := range []*big.Int{input.R1, input.R2, input.O, input.KTwo} {
		if !inRange(v, param.Modulus) {
			return false
		}
	}
	n := param.Modulus
	c := Challenge(input.R1, input.R2)

	lhs := modmath.PowMod(param.Generator, input.Z, n)
	rhs := new(big.Int).Mul(input.R1, modmath.PowMod(input.O, c, n))
	if lhs.Cmp(rhs.Mod(rhs, n)) != 0 {
		return false
	}

	lhs = modmath.PowMod(param.YTwo, input.Z, n)
	rhs = new(big.Int).Mul(input.R2, modmath.PowMod(input.KTwo, c, n))
	return lhs.Cmp(rhs.Mod(rhs, n)) == 0
}

func inRange(v, n *big.Int) bool {
	return v.Sign() >= 0 && v.BitLen() <= modmath.BitsLen && v.Cmp(n) < 0
}

func limbElements(v *big.Int) []fr.Element {
	limbs := modmath.Decompose(v, modmath.LimbCount, modmath.LimbWidth)
	out := make([]fr.Element, len(limbs))
	for i, l := range limbs {
		out[i].SetBigInt(l)
	}
	return out
}
