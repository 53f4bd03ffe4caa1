package bigint

import (
	"math/big"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/test"

	"pvde/internal/modmath"
)

const (
	testWidth = 16
	testLimbs = 4
)

func TestRefreshAuxExample(t *testing.T) {
	aux := NewRefreshAux(32, 1, 1)
	if !reflect.DeepEqual(aux.IncreasedLimbs, []int{1, 0}) {
		t.Fatalf("unexpected increased limbs: %v", aux.IncreasedLimbs)
	}
}

func TestRefreshAuxSymmetry(t *testing.T) {
	for _, w := range []int{16, 32, 64} {
		for l := 1; l <= 9; l++ {
			for r := 1; r <= 9; r++ {
				lr := NewRefreshAux(w, l, r).IncreasedLimbs
				rl := NewRefreshAux(w, r, l).IncreasedLimbs
				if !reflect.DeepEqual(lr, rl) {
					t.Fatalf("w=%d L=%d R=%d: %v != %v", w, l, r, lr, rl)
				}
			}
		}
	}
}

func TestRefreshAuxFullWidth(t *testing.T) {
	aux := NewRefreshAux(modmath.LimbWidth, modmath.LimbCount, modmath.LimbCount)
	if aux.NumFreshLimbs() != 2*modmath.LimbCount {
		t.Errorf("expected %d refreshed limbs, got %d", 2*modmath.LimbCount, aux.NumFreshLimbs())
	}
	for i, extra := range aux.IncreasedLimbs {
		if extra > 2 {
			t.Errorf("position %d spills into %d limbs", i, extra)
		}
	}
}

// carryPlan tracks the exact chunks of the worst-case product through L+R positions.
func carryPlan(w, l, r int) []int {
	maxLimb := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(w)), big.NewInt(1))
	maxProduct := new(big.Int).Mul(maxLimb, maxLimb)
	vals := make([]*big.Int, l+r)
	for i := range vals {
		vals[i] = new(big.Int)
	}
	for i := 0; i < l; i++ {
		for j := 0; j < r; j++ {
			vals[i+j].Add(vals[i+j], maxProduct)
		}
	}
	plan := make([]int, 0, l+r)
	for cur := range vals {
		chunks := modmath.Decompose(vals[cur], (vals[cur].BitLen()+w-1)/w+1, w)
		n := 1
		for i, ch := range chunks {
			if ch.Sign() != 0 {
				n = i + 1
			}
		}
		plan = append(plan, n-1)
		for j := 1; j < n && cur+j < len(vals); j++ {
			vals[cur+j].Add(vals[cur+j], chunks[j])
		}
	}
	return plan
}

func TestRefreshAuxMatchesCarryPlan(t *testing.T) {
	cases := []struct {
		w, l, r int
	}{
		{32, 1, 1},
		{16, 4, 4},
		{32, 5, 9},
		{64, 1, 32},
		{32, 200, 17},
		{modmath.LimbWidth, modmath.LimbCount, modmath.LimbCount},
	}
	for _, tc := range cases {
		aux := NewRefreshAux(tc.w, tc.l, tc.r)
		if aux.NumFreshLimbs() != tc.l+tc.r {
			t.Errorf("w=%d L=%d R=%d: expected %d refreshed limbs, got %d", tc.w, tc.l, tc.r, tc.l+tc.r, aux.NumFreshLimbs())
		}
		if want := carryPlan(tc.w, tc.l, tc.r); !reflect.DeepEqual(aux.IncreasedLimbs, want) {
			t.Errorf("w=%d L=%d R=%d: got %v, want %v", tc.w, tc.l, tc.r, aux.IncreasedLimbs, want)
		}
	}

	// 64-bit limbs, 32 by 32: one spill at the bottom, two in the middle, one then none at the top.
	want := make([]int, 2*modmath.LimbCount)
	for i := range want {
		want[i] = 2
	}
	want[0], want[len(want)-2], want[len(want)-1] = 1, 1, 0
	if got := NewRefreshAux(64, 32, 32).IncreasedLimbs; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected plan for 2048-bit squaring: %v", got)
	}
}

type mulCircuit struct {
	A, B    [testLimbs]frontend.Variable
	Product [2 * testLimbs]frontend.Variable `gnark:",public"`
}

func (c *mulCircuit) Define(api frontend.API) error {
	chip := NewChip(api, testWidth)
	a := chip.AssignInteger(c.A[:])
	b := chip.AssignInteger(c.B[:])
	p := chip.Refresh(chip.Mul(a, b), NewRefreshAux(testWidth, testLimbs, testLimbs))
	chip.AssertLimbsEqual(p, c.Product[:])
	return nil
}

type squareModCircuit struct {
	A       [testLimbs]frontend.Variable
	Out     [testLimbs]frontend.Variable `gnark:",public"`
	Modulus *big.Int                     `gnark:"-"`
}

func (c *squareModCircuit) Define(api frontend.API) error {
	chip := NewChip(api, testWidth)
	a := chip.AssignInteger(c.A[:])
	n := chip.Constant(c.Modulus, testLimbs)
	chip.AssertLimbsEqual(chip.SquareMod(a, n), c.Out[:])
	return nil
}

type witnessModCircuit struct {
	A   [testLimbs]frontend.Variable
	N   [testLimbs]frontend.Variable
	Out [testLimbs]frontend.Variable `gnark:",public"`
}

func (c *witnessModCircuit) Define(api frontend.API) error {
	chip := NewChip(api, testWidth)
	a := chip.AssignInteger(c.A[:])
	n := chip.AssignInteger(c.N[:])
	chip.AssertLimbsEqual(chip.SquareMod(a, n), c.Out[:])
	return nil
}

type wideRefreshCircuit struct {
	A, B frontend.Variable
}

func (c *wideRefreshCircuit) Define(api frontend.API) error {
	chip := NewChip(api, testWidth)
	m := chip.Mul(chip.AssignInteger([]frontend.Variable{c.A}), chip.AssignInteger([]frontend.Variable{c.B}))
	plan := RefreshAux{LimbWidth: testWidth, NumLimbsL: 1, NumLimbsR: 1, IncreasedLimbs: []int{16, 0}}
	chip.Refresh(m, plan)
	return nil
}

type lessCircuit struct {
	A, B [testLimbs]frontend.Variable
}

func (c *lessCircuit) Define(api frontend.API) error {
	chip := NewChip(api, testWidth)
	chip.AssertLess(chip.AssignInteger(c.A[:]), chip.AssignInteger(c.B[:]))
	return nil
}

func assign(dst []frontend.Variable, v *big.Int) {
	for i, l := range modmath.Decompose(v, len(dst), testWidth) {
		dst[i] = l
	}
}

func randBits(rng *rand.Rand, bits int) *big.Int {
	return new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
}

func TestMulRefresh(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	maxVal := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), testWidth*testLimbs), big.NewInt(1))
	pairs := [][2]*big.Int{
		{maxVal, maxVal},
		{big.NewInt(0), maxVal},
		{randBits(rng, 64), randBits(rng, 64)},
		{randBits(rng, 33), randBits(rng, 17)},
	}
	for _, p := range pairs {
		var assignment mulCircuit
		assign(assignment.A[:], p[0])
		assign(assignment.B[:], p[1])
		assign(assignment.Product[:], new(big.Int).Mul(p[0], p[1]))
		if err := test.IsSolved(&mulCircuit{}, &assignment, ecc.BN254.ScalarField()); err != nil {
			t.Fatalf("product of %s and %s not accepted: %v", p[0], p[1], err)
		}
	}

	var bad mulCircuit
	assign(bad.A[:], big.NewInt(3))
	assign(bad.B[:], big.NewInt(5))
	assign(bad.Product[:], big.NewInt(16))
	if err := test.IsSolved(&mulCircuit{}, &bad, ecc.BN254.ScalarField()); err == nil {
		t.Fatal("wrong product accepted")
	}
}

func TestSquareMod(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	moduli := []*big.Int{
		new(big.Int).SetUint64(0xffffffffffffffc5), // full width
		big.NewInt(1000003),                        // short modulus, long quotient
	}
	for _, n := range moduli {
		for i := 0; i < 4; i++ {
			a := randBits(rng, testWidth*testLimbs)
			want := new(big.Int).Exp(a, big.NewInt(2), n)

			circuit := squareModCircuit{Modulus: n}
			var assignment squareModCircuit
			assign(assignment.A[:], a)
			assign(assignment.Out[:], want)
			if err := test.IsSolved(&circuit, &assignment, ecc.BN254.ScalarField()); err != nil {
				t.Fatalf("a=%s n=%s: %v", a, n, err)
			}

			// the unreduced square shifted by n is not canonical
			wrong := new(big.Int).Add(want, n)
			if wrong.BitLen() <= testWidth*testLimbs {
				assign(assignment.Out[:], wrong)
				if err := test.IsSolved(&circuit, &assignment, ecc.BN254.ScalarField()); err == nil {
					t.Fatalf("non-canonical remainder accepted for a=%s n=%s", a, n)
				}
			}
		}
	}
}

func TestSquareModWitnessModulus(t *testing.T) {
	// the modulus limbs above the first two are zero
	n := big.NewInt(1000003)
	a, _ := new(big.Int).SetString("2923494716283604109", 10)
	var assignment witnessModCircuit
	assign(assignment.A[:], a)
	assign(assignment.N[:], n)
	assign(assignment.Out[:], new(big.Int).Exp(a, big.NewInt(2), n))

	if err := test.IsSolved(&witnessModCircuit{}, &assignment, ecc.BN254.ScalarField()); err != nil {
		t.Fatalf("test engine: %v", err)
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &witnessModCircuit{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	w, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("witness: %v", err)
	}
	if err := ccs.IsSolved(w); err != nil {
		t.Fatalf("r1cs: %v", err)
	}

	assign(assignment.Out[:], new(big.Int).Add(new(big.Int).Exp(a, big.NewInt(2), n), n))
	w, err = frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		t.Fatalf("witness: %v", err)
	}
	if err := ccs.IsSolved(w); err == nil {
		t.Fatal("non-canonical remainder accepted")
	}
}

func TestRefreshRejectsWidePlan(t *testing.T) {
	_, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &wideRefreshCircuit{})
	if err == nil || !strings.Contains(err.Error(), "too wide") {
		t.Fatalf("expected a field width error, got %v", err)
	}
}

func TestAssertLess(t *testing.T) {
	cases := []struct {
		a, b int64
		ok   bool
	}{
		{0, 1, true},
		{41, 42, true},
		{42, 42, false},
		{43, 42, false},
		{65535, 65536, true},
	}
	for _, tc := range cases {
		var assignment lessCircuit
		assign(assignment.A[:], big.NewInt(tc.a))
		assign(assignment.B[:], big.NewInt(tc.b))
		err := test.IsSolved(&lessCircuit{}, &assignment, ecc.BN254.ScalarField())
		if tc.ok && err != nil {
			t.Errorf("%d < %d rejected: %v", tc.a, tc.b, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%d < %d accepted", tc.a, tc.b)
		}
	}
}

func TestExtendLimbs(t *testing.T) {
	x := Integer[Fresh]{Limbs: []frontend.Variable{1, 2}}
	y := ExtendLimbs(x, 3)
	if y.NumLimbs() != 5 || x.NumLimbs() != 2 {
		t.Fatalf("unexpected limb counts %d and %d", y.NumLimbs(), x.NumLimbs())
	}
	if m := ToMuled(y); m.NumLimbs() != 5 {
		t.Fatalf("re-tag changed limb count to %d", m.NumLimbs())
	}
}
