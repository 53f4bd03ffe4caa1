package bigint

import (
	"github.com/consensys/gnark/frontend"
)

// RangeType is the phantom range state of an Integer.
type RangeType interface {
	Fresh | Muled
}

// Fresh marks integers whose limbs are all range-checked to the limb width.
type Fresh struct{}

// Muled marks integers produced by Mul whose limbs may overflow the limb width.
type Muled struct{}

// Integer is a limb-encoded integer in range state R.
type Integer[R RangeType] struct {
	Limbs []frontend.Variable
}

// NumLimbs returns the number of limbs.
func (x Integer[R]) NumLimbs() int {
	return len(x.Limbs)
}

// ExtendLimbs returns x with count zero limbs appended. x itself is not modified.
func ExtendLimbs[R RangeType](x Integer[R], count int) Integer[R] {
	if count < 0 {
		panic("bigint: negative limb extension")
	}
	limbs := make([]frontend.Variable, len(x.Limbs), len(x.Limbs)+count)
	copy(limbs, x.Limbs)
	for i := 0; i < count; i++ {
		limbs = append(limbs, 0)
	}
	return Integer[R]{Limbs: limbs}
}

// ToMuled re-tags a Fresh integer so it can be fed to Refresh together with products.
func ToMuled(x Integer[Fresh]) Integer[Muled] {
	limbs := make([]frontend.Variable, len(x.Limbs))
	copy(limbs, x.Limbs)
	return Integer[Muled]{Limbs: limbs}
}
