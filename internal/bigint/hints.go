package bigint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/constraint/solver"

	"pvde/internal/modmath"
)

func init() {
	solver.RegisterHint(GetHints()...)
}

// GetHints returns the hints used by the chip. Provers solving a constraint system
// outside this package must have them registered, which the package init does.
func GetHints() []solver.Hint {
	return []solver.Hint{splitHint, divModHint}
}

// splitHint decomposes inputs[1] into len(outputs) chunks of inputs[0] bits.
func splitHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) != 2 {
		return fmt.Errorf("split hint expects 2 inputs, got %d", len(inputs))
	}
	w := int(inputs[0].Int64())
	v := inputs[1]
	if v.BitLen() > w*len(outputs) {
		return fmt.Errorf("split hint: %d-bit value does not fit in %d chunks of %d bits", v.BitLen(), len(outputs), w)
	}
	for i, chunk := range modmath.Decompose(v, len(outputs), w) {
		outputs[i].Set(chunk)
	}
	return nil
}

// divModHint computes q = x / n and r = x mod n over the integers.
// inputs: [limbWidth, len(x), x limbs..., n limbs...]; outputs: q limbs then r limbs,
// with as many r limbs as n limbs.
func divModHint(_ *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	if len(inputs) < 2 {
		return errors.New("div-mod hint: missing header")
	}
	w := int(inputs[0].Int64())
	nbX := int(inputs[1].Int64())
	if len(inputs) < 2+nbX+1 {
		return errors.New("div-mod hint: missing operands")
	}
	xLimbs := inputs[2 : 2+nbX]
	nLimbs := inputs[2+nbX:]
	nbR := len(nLimbs)
	nbQ := len(outputs) - nbR
	if nbQ <= 0 {
		return errors.New("div-mod hint: not enough outputs")
	}

	x := modmath.Compose(xLimbs, w)
	n := modmath.Compose(nLimbs, w)
	if n.Sign() == 0 {
		return errors.New("div-mod hint: zero modulus")
	}
	q, r := new(big.Int).QuoRem(x, n, new(big.Int))
	if q.BitLen() > nbQ*w {
		return fmt.Errorf("div-mod hint: quotient needs %d bits, %d limbs available", q.BitLen(), nbQ)
	}
	for i, limb := range modmath.Decompose(q, nbQ, w) {
		outputs[i].Set(limb)
	}
	for i, limb := range modmath.Decompose(r, nbR, w) {
		outputs[nbQ+i].Set(limb)
	}
	return nil
}
