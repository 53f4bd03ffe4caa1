package modmath

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Non-native layout of a 2048-bit modulus.
const (
	BitsLen     = 2048
	LimbWidth   = 64
	LimbCount   = BitsLen / LimbWidth
	ExpLimbBits = 15
)

var one = big.NewInt(1)

// PowMod returns base^exp mod m using recursive square-and-multiply.
// exp must be non-negative and m positive.
func PowMod(base, exp, m *big.Int) *big.Int {
	if exp.Sign() < 0 {
		panic("modmath: negative exponent")
	}
	if m.Sign() <= 0 {
		panic("modmath: non-positive modulus")
	}
	b := new(big.Int).Mod(base, m)
	return powMod(b, exp, m)
}

func powMod(base, exp, m *big.Int) *big.Int {
	if exp.Sign() == 0 {
		return new(big.Int).Mod(one, m)
	}
	half := new(big.Int).Rsh(exp, 1)
	res := powMod(base, half, m)
	res.Mul(res, res)
	res.Mod(res, m)
	if exp.Bit(0) == 1 {
		res.Mul(res, base)
		res.Mod(res, m)
	}
	return res
}

// RepeatedSquare computes base^(2^t) mod m with t sequential squarings.
func RepeatedSquare(base *big.Int, t uint64, m *big.Int) *big.Int {
	y := new(big.Int).Mod(base, m)
	for i := uint64(0); i < t; i++ {
		y.Mul(y, y)
		y.Mod(y, m)
	}
	return y
}

// Decompose splits value into numLimbs little-endian limbs of limbWidth bits.
// It panics when value does not fit, which is a caller contract violation.
func Decompose(value *big.Int, numLimbs, limbWidth int) []*big.Int {
	if value.Sign() < 0 {
		panic("modmath: cannot decompose a negative value")
	}
	if value.BitLen() > numLimbs*limbWidth {
		panic(fmt.Sprintf("modmath: %d-bit value does not fit in %d limbs of %d bits", value.BitLen(), numLimbs, limbWidth))
	}
	mask := new(big.Int).Sub(new(big.Int).Lsh(one, uint(limbWidth)), one)
	rest := new(big.Int).Set(value)
	limbs := make([]*big.Int, numLimbs)
	for i := range limbs {
		limbs[i] = new(big.Int).And(rest, mask)
		rest.Rsh(rest, uint(limbWidth))
	}
	return limbs
}

// Compose is the inverse of Decompose. Limbs may exceed limbWidth bits; the
// result is the weighted sum either way.
func Compose(limbs []*big.Int, limbWidth int) *big.Int {
	res := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		res.Lsh(res, uint(limbWidth))
		res.Add(res, limbs[i])
	}
	return res
}

// RandomBits samples a uniform integer in [0, 2^bits) from r.
// A nil reader means crypto/rand.
func RandomBits(r io.Reader, bits int) (*big.Int, error) {
	if r == nil {
		r = rand.Reader
	}
	v, err := rand.Int(r, new(big.Int).Lsh(one, uint(bits)))
	if err != nil {
		return nil, fmt.Errorf("failed to sample %d random bits: %w", bits, err)
	}
	return v, nil
}
