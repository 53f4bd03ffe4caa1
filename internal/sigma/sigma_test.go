package sigma

import (
	"math/big"
	"testing"

	"pvde/internal/modmath"
)

// rsa100 is small enough for fast tests and still needs no factorization to use.
var rsa100, _ = new(big.Int).SetString("1522605027922533360535618378132637429718068114961380688657908494580122963258952897654000350692006139", 10)

func testParam(t uint64) Param {
	g := big.NewInt(5)
	y := modmath.RepeatedSquare(g, t, rsa100)
	return Param{
		Modulus:   rsa100,
		Generator: g,
		YTwo:      new(big.Int).Exp(y, big.NewInt(2), rsa100),
	}
}

func random(tb testing.TB) *big.Int {
	v, err := modmath.RandomBits(nil, 128)
	if err != nil {
		tb.Fatal(err)
	}
	return v
}

func TestCompleteness(t *testing.T) {
	param := testParam(64)
	for i := 0; i < 16; i++ {
		in := Generate(param, random(t), random(t))
		if !Verify(in, param) {
			t.Fatalf("honest proof %d rejected", i)
		}
	}
}

func TestResponseIsUnreduced(t *testing.T) {
	param := testParam(8)
	r, s := random(t), random(t)
	in := Generate(param, r, s)
	c := Challenge(in.R1, in.R2)
	want := new(big.Int).Add(r, new(big.Int).Mul(s, c))
	if in.Z.Cmp(want) != 0 {
		t.Fatalf("z = %s, want r + s*c = %s", in.Z, want)
	}
}

func TestMutatedFieldsRejected(t *testing.T) {
	param := testParam(64)
	one := big.NewInt(1)
	mutations := map[string]func(*PublicInput){
		"r1":    func(p *PublicInput) { p.R1 = new(big.Int).Add(p.R1, one) },
		"r2":    func(p *PublicInput) { p.R2 = new(big.Int).Add(p.R2, one) },
		"z":     func(p *PublicInput) { p.Z = new(big.Int).Add(p.Z, one) },
		"o":     func(p *PublicInput) { p.O = new(big.Int).Add(p.O, one) },
		"k_two": func(p *PublicInput) { p.KTwo = new(big.Int).Add(p.KTwo, one) },
		"nil z": func(p *PublicInput) { p.Z = nil },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := Generate(param, random(t), random(t))
			mutate(in)
			if Verify(in, param) {
				t.Errorf("mutated %s accepted", name)
			}
		})
	}
}

func TestChallengeDependsOnBothCommitments(t *testing.T) {
	a, b := big.NewInt(12345), big.NewInt(67890)
	if Challenge(a, b).Cmp(Challenge(b, a)) == 0 {
		t.Error("challenge ignores commitment order")
	}
}

func TestIncompleteParamRejected(t *testing.T) {
	param := testParam(64)
	in := Generate(param, random(t), random(t))
	cases := map[string]Param{
		"no modulus":   {Generator: param.Generator, YTwo: param.YTwo},
		"zero modulus": {Modulus: new(big.Int), Generator: param.Generator, YTwo: param.YTwo},
		"no generator": {Modulus: param.Modulus, YTwo: param.YTwo},
		"no y_two":     {Modulus: param.Modulus, Generator: param.Generator},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if Verify(in, p) {
				t.Errorf("accepted with %s", name)
			}
		})
	}
}
