package bigint

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/rangecheck"

	"pvde/internal/modmath"
)

// Chip builds non-native integer constraints over a single limb width.
type Chip struct {
	api       frontend.API
	rc        frontend.Rangechecker
	limbWidth int
}

// NewChip returns a chip for limbWidth-bit limbs.
func NewChip(api frontend.API, limbWidth int) *Chip {
	// Refresh splits values into at most three chunks; keep them below the field size.
	if 3*limbWidth >= api.Compiler().FieldBitLen() {
		panic(fmt.Sprintf("bigint: limb width %d too large for a %d-bit field", limbWidth, api.Compiler().FieldBitLen()))
	}
	return &Chip{
		api:       api,
		rc:        rangecheck.New(api),
		limbWidth: limbWidth,
	}
}

// LimbWidth returns the limb width of the chip.
func (c *Chip) LimbWidth() int {
	return c.limbWidth
}

// AssignInteger range-checks witness limbs and returns them as a Fresh integer.
func (c *Chip) AssignInteger(limbs []frontend.Variable) Integer[Fresh] {
	out := make([]frontend.Variable, len(limbs))
	for i, l := range limbs {
		c.checkLimb(l)
		out[i] = l
	}
	return Integer[Fresh]{Limbs: out}
}

// Constant embeds value as a Fresh integer of numLimbs constant limbs.
func (c *Chip) Constant(value *big.Int, numLimbs int) Integer[Fresh] {
	limbs := modmath.Decompose(value, numLimbs, c.limbWidth)
	out := make([]frontend.Variable, numLimbs)
	for i, l := range limbs {
		out[i] = l
	}
	return Integer[Fresh]{Limbs: out}
}

// Mul is the schoolbook product of two Fresh integers.
func (c *Chip) Mul(a, b Integer[Fresh]) Integer[Muled] {
	if len(a.Limbs) == 0 || len(b.Limbs) == 0 {
		panic("bigint: multiplication of an empty integer")
	}
	out := make([]frontend.Variable, len(a.Limbs)+len(b.Limbs)-1)
	for i := range out {
		out[i] = 0
	}
	for i, ai := range a.Limbs {
		for j, bj := range b.Limbs {
			out[i+j] = c.api.Add(out[i+j], c.api.Mul(ai, bj))
		}
	}
	return Integer[Muled]{Limbs: out}
}

// Refresh carries a product back into LimbWidth-bit limbs. Position i is split into
// aux.IncreasedLimbs[i]+1 chunks, the split is asserted exact, the low chunk stays and
// the others are added to the following positions.
func (c *Chip) Refresh(m Integer[Muled], aux RefreshAux) Integer[Fresh] {
	if aux.LimbWidth != c.limbWidth {
		panic(fmt.Sprintf("bigint: refresh aux for %d-bit limbs used with %d-bit chip", aux.LimbWidth, c.limbWidth))
	}
	if len(m.Limbs) != aux.NumMuledLimbs() {
		panic(fmt.Sprintf("bigint: refresh aux expects %d limbs, got %d", aux.NumMuledLimbs(), len(m.Limbs)))
	}
	work := make([]frontend.Variable, aux.NumFreshLimbs())
	copy(work, m.Limbs)
	for i := len(m.Limbs); i < len(work); i++ {
		work[i] = 0
	}

	fieldBits := c.api.Compiler().FieldBitLen()
	out := make([]frontend.Variable, len(work))
	for cur, extra := range aux.IncreasedLimbs {
		if (extra+1)*c.limbWidth >= fieldBits {
			panic(fmt.Sprintf("bigint: position %d splits into %d chunks of %d bits, too wide for a %d-bit field", cur, extra+1, c.limbWidth, fieldBits))
		}
		if extra == 0 {
			c.checkLimb(work[cur])
			out[cur] = work[cur]
			continue
		}
		chunks := c.split(work[cur], extra+1)
		out[cur] = chunks[0]
		for j := 1; j < len(chunks); j++ {
			work[cur+j] = c.api.Add(work[cur+j], chunks[j])
		}
	}
	return Integer[Fresh]{Limbs: out}
}

// Add returns a+b with one more limb than the longer operand.
func (c *Chip) Add(a, b Integer[Fresh]) Integer[Fresh] {
	a, b = c.align(a, b)
	out := make([]frontend.Variable, len(a.Limbs)+1)
	var carry frontend.Variable = 0
	for i := range a.Limbs {
		acc := c.api.Add(a.Limbs[i], b.Limbs[i], carry)
		parts := c.splitUnchecked(acc, 2)
		c.checkLimb(parts[0])
		c.api.AssertIsBoolean(parts[1])
		out[i] = parts[0]
		carry = parts[1]
	}
	out[len(a.Limbs)] = carry
	return Integer[Fresh]{Limbs: out}
}

// AssertLess asserts a < b with a borrow chain computing b − a − 1 ≥ 0.
func (c *Chip) AssertLess(a, b Integer[Fresh]) {
	a, b = c.align(a, b)
	base := new(big.Int).Lsh(big.NewInt(1), uint(c.limbWidth))
	var borrow frontend.Variable = 0
	for i := range a.Limbs {
		// t = b_i − a_i − borrow_in − [i == 0] + 2^w lies in [0, 2^(w+1)).
		t := c.api.Sub(c.api.Add(b.Limbs[i], base), a.Limbs[i], borrow)
		if i == 0 {
			t = c.api.Sub(t, 1)
		}
		parts := c.splitUnchecked(t, 2)
		c.checkLimb(parts[0])
		c.api.AssertIsBoolean(parts[1])
		borrow = c.api.Sub(1, parts[1])
	}
	c.api.AssertIsEqual(borrow, 0)
}

// Mod reduces x modulo n. The quotient gets nbQ limbs; the remainder as many limbs as n.
// It constrains q·n + r == x and r < n.
func (c *Chip) Mod(x, n Integer[Fresh], nbQ int) (q, r Integer[Fresh]) {
	inputs := make([]frontend.Variable, 0, 2+len(x.Limbs)+len(n.Limbs))
	inputs = append(inputs, c.limbWidth, len(x.Limbs))
	inputs = append(inputs, x.Limbs...)
	inputs = append(inputs, n.Limbs...)
	res, err := c.api.Compiler().NewHint(divModHint, nbQ+len(n.Limbs), inputs...)
	if err != nil {
		panic(fmt.Sprintf("bigint: div-mod hint: %v", err))
	}
	q = c.AssignInteger(res[:nbQ])
	r = c.AssignInteger(res[nbQ:])

	qn := c.Refresh(c.Mul(q, n), NewRefreshAux(c.limbWidth, nbQ, len(n.Limbs)))
	c.AssertEqual(c.Add(qn, r), x)
	c.AssertLess(r, n)
	return q, r
}

// SquareMod returns a·a mod n.
func (c *Chip) SquareMod(a, n Integer[Fresh]) Integer[Fresh] {
	sq := c.Refresh(c.Mul(a, a), NewRefreshAux(c.limbWidth, len(a.Limbs), len(a.Limbs)))
	_, r := c.Mod(sq, n, c.quotientLimbs(sq, n))
	return r
}

// AssertEqual asserts limb-wise equality after extending the shorter integer.
func (c *Chip) AssertEqual(a, b Integer[Fresh]) {
	a, b = c.align(a, b)
	for i := range a.Limbs {
		c.api.AssertIsEqual(a.Limbs[i], b.Limbs[i])
	}
}

// AssertLimbsEqual asserts that x equals the given limbs, which are typically public inputs.
// Missing high limbs of either side must be zero.
func (c *Chip) AssertLimbsEqual(x Integer[Fresh], limbs []frontend.Variable) {
	c.AssertEqual(x, Integer[Fresh]{Limbs: limbs})
}

// quotientLimbs sizes the quotient of x / n. With a constant modulus the bound uses its
// bit length. A witness modulus may have zero high limbs, so the quotient gets as many
// limbs as x.
func (c *Chip) quotientLimbs(x, n Integer[Fresh]) int {
	v, ok := c.constantValue(n)
	if !ok || v.Sign() <= 0 {
		return len(x.Limbs)
	}
	qBits := len(x.Limbs)*c.limbWidth - v.BitLen() + 1
	if qBits < 1 {
		qBits = 1
	}
	return (qBits + c.limbWidth - 1) / c.limbWidth
}

func (c *Chip) constantValue(x Integer[Fresh]) (*big.Int, bool) {
	limbs := make([]*big.Int, len(x.Limbs))
	for i, l := range x.Limbs {
		v, ok := c.api.Compiler().ConstantValue(l)
		if !ok {
			return nil, false
		}
		limbs[i] = v
	}
	return modmath.Compose(limbs, c.limbWidth), true
}

func (c *Chip) align(a, b Integer[Fresh]) (Integer[Fresh], Integer[Fresh]) {
	switch {
	case len(a.Limbs) < len(b.Limbs):
		a = ExtendLimbs(a, len(b.Limbs)-len(a.Limbs))
	case len(b.Limbs) < len(a.Limbs):
		b = ExtendLimbs(b, len(a.Limbs)-len(b.Limbs))
	}
	return a, b
}

// split decomposes v into n range-checked chunks and asserts the decomposition.
func (c *Chip) split(v frontend.Variable, n int) []frontend.Variable {
	chunks := c.splitUnchecked(v, n)
	for _, ch := range chunks {
		c.checkLimb(ch)
	}
	return chunks
}

// splitUnchecked decomposes v into n chunks and asserts v == Σ chunk_j·2^(w·j).
// Chunks are left for the caller to bound.
func (c *Chip) splitUnchecked(v frontend.Variable, n int) []frontend.Variable {
	chunks, err := c.api.Compiler().NewHint(splitHint, n, c.limbWidth, v)
	if err != nil {
		panic(fmt.Sprintf("bigint: split hint: %v", err))
	}
	var recomposed frontend.Variable = 0
	for j := len(chunks) - 1; j >= 0; j-- {
		if j != len(chunks)-1 {
			recomposed = c.api.Mul(recomposed, new(big.Int).Lsh(big.NewInt(1), uint(c.limbWidth)))
		}
		recomposed = c.api.Add(recomposed, chunks[j])
	}
	c.api.AssertIsEqual(v, recomposed)
	return chunks
}

// checkLimb bounds v to the limb width. Constants are checked at compile time.
func (c *Chip) checkLimb(v frontend.Variable) {
	if cv, ok := c.api.Compiler().ConstantValue(v); ok {
		if cv.BitLen() > c.limbWidth {
			panic(fmt.Sprintf("bigint: constant limb %s exceeds %d bits", cv, c.limbWidth))
		}
		return
	}
	c.rc.Check(v, c.limbWidth)
}
