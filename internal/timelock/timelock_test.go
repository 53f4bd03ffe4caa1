package timelock

import (
	"bytes"
	"errors"
	"math/big"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/test"
	"github.com/renproject/surge/surgeutil"

	"pvde/internal/config"
	"pvde/internal/modmath"
	"pvde/internal/sigma"
	"pvde/internal/zkp"
)

const testT = 64

var rsa2048, _ = new(big.Int).SetString(config.RSA2048, 10)

func testParam() Param {
	return GenerateParam(big.NewInt(5), rsa2048, testT)
}

func newPuzzle(t *testing.T, param Param) (*PublicInput, *SecretInput) {
	t.Helper()
	pub, sec, err := GeneratePuzzle(nil, param)
	if err != nil {
		t.Fatalf("GeneratePuzzle: %v", err)
	}
	return pub, sec
}

func TestGenerateParam(t *testing.T) {
	param := testParam()
	exp := new(big.Int).Lsh(big.NewInt(1), testT)
	if want := modmath.PowMod(param.Generator, exp, rsa2048); param.Y.Cmp(want) != 0 {
		t.Fatalf("y = %v, want g^(2^t)", param.Y)
	}
	if want := modmath.PowMod(param.Y, big.NewInt(2), rsa2048); param.YTwo.Cmp(want) != 0 {
		t.Fatalf("y_two is not y^2")
	}
}

func TestSolveRecoversKey(t *testing.T) {
	param := testParam()
	pub, sec := newPuzzle(t, param)

	if k := Solve(pub.O, testT, param.Modulus); k.Cmp(sec.K) != 0 {
		t.Fatalf("Solve(o) = %v, want %v", k, sec.K)
	}
	if DecryptionKey(pub.O, testT, param.Modulus) != pub.KHash {
		t.Fatal("decryption key does not match the published key hash")
	}
	kTwo := new(big.Int).Mul(sec.K, sec.K)
	if kTwo.Mod(kTwo, param.Modulus).Cmp(pub.KTwo) != 0 {
		t.Fatal("k_two is not k^2 mod n")
	}
	if !sigma.Verify(pub.Sigma(), param.Sigma()) {
		t.Fatal("sigma protocol rejected an honest puzzle")
	}
}

func TestGeneratePuzzleNeedsY(t *testing.T) {
	_, _, err := GeneratePuzzle(nil, testParam().Public())
	if !errors.Is(err, ErrIncompleteParam) {
		t.Fatalf("expected ErrIncompleteParam, got %v", err)
	}
}

func TestExportImportParam(t *testing.T) {
	param := testParam()
	path := filepath.Join(t.TempDir(), "param.json")

	if err := ExportParam(path, param.Public()); err != nil {
		t.Fatal(err)
	}
	got, err := ImportParam(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Y != nil {
		t.Error("public param carries y")
	}
	if got.Generator.Cmp(param.Generator) != 0 || got.Modulus.Cmp(param.Modulus) != 0 || got.YTwo.Cmp(param.YTwo) != 0 {
		t.Errorf("imported param differs: %+v", got)
	}

	if err := ExportParam(path, Param{Generator: big.NewInt(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportParam(path); !errors.Is(err, ErrIncompleteParam) {
		t.Errorf("expected ErrIncompleteParam, got %v", err)
	}
}

func TestKeyValidationCircuit(t *testing.T) {
	param := testParam()
	pub, sec := newPuzzle(t, param)
	circuit := NewKeyValidationCircuit(param.Modulus)

	if err := test.IsSolved(circuit, assignment(pub, sec), ecc.BN254.ScalarField()); err != nil {
		t.Fatalf("honest witness rejected: %v", err)
	}

	t.Run("wrong key hash", func(t *testing.T) {
		bad := *pub
		bad.KHash[1][31] ^= 1
		if err := test.IsSolved(circuit, assignment(&bad, sec), ecc.BN254.ScalarField()); err == nil {
			t.Fatal("accepted a wrong key hash")
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		k := new(big.Int).Add(sec.K, big.NewInt(1))
		if err := test.IsSolved(circuit, assignment(pub, &SecretInput{K: k}), ecc.BN254.ScalarField()); err == nil {
			t.Fatal("accepted a key that does not square to k_two")
		}
	})
}

func TestVerifyChecksSigmaFirst(t *testing.T) {
	param := testParam()
	pub, _ := newPuzzle(t, param)
	pub.Z = new(big.Int).Add(pub.Z, big.NewInt(1))

	// Empty keys make the succinct verifier fail with an error if it is ever reached.
	ok, err := Verify(zkp.Groth16(), &zkp.Keys{}, param.Public(), pub, nil)
	if err != nil || ok {
		t.Fatalf("Verify = %v, %v; want false, nil", ok, err)
	}
}

func TestVerifyRejectsIncompleteParam(t *testing.T) {
	param := testParam()
	pub, _ := newPuzzle(t, param)
	ok, err := Verify(zkp.Groth16(), &zkp.Keys{}, Param{Generator: param.Generator}, pub, nil)
	if err != nil || ok {
		t.Fatalf("Verify = %v, %v; want false, nil", ok, err)
	}
}

func TestProveVerify(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping key-validation setup in short mode")
	}
	param := testParam()
	b := zkp.Groth16()
	sys, err := Setup(b, nil, param)
	if err != nil {
		t.Fatal(err)
	}
	pub, sec := newPuzzle(t, param)

	proof, err := Prove(sys, pub, sec)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := Verify(b, sys.Keys, param.Public(), pub, proof)
	if err != nil || !ok {
		t.Fatalf("honest proof: ok=%v err=%v", ok, err)
	}

	t.Run("tampered key hash", func(t *testing.T) {
		bad := *pub
		bad.KHash[0][31] ^= 1
		ok, err := Verify(b, sys.Keys, param.Public(), &bad, proof)
		if err != nil || ok {
			t.Fatalf("ok=%v err=%v, want rejection", ok, err)
		}
	})

	t.Run("tampered key", func(t *testing.T) {
		k := new(big.Int).Add(sec.K, big.NewInt(1))
		if _, err := Prove(sys, pub, &SecretInput{K: k}); err == nil {
			t.Fatal("proved a key that does not match k_two")
		}
	})

	t.Run("bundle", func(t *testing.T) {
		data, err := NewBundle(pub, proof).MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		var bundle Bundle
		if err := bundle.UnmarshalBinary(data); err != nil {
			t.Fatal(err)
		}
		gotPub, gotProof, err := bundle.Open()
		if err != nil {
			t.Fatal(err)
		}
		ok, err := Verify(b, sys.Keys, param.Public(), gotPub, gotProof)
		if err != nil || !ok {
			t.Fatalf("bundled proof: ok=%v err=%v", ok, err)
		}
	})
}

func TestBundleCodec(t *testing.T) {
	typ := reflect.TypeOf(Bundle{})
	if err := surgeutil.MarshalUnmarshalCheck(typ); err != nil {
		t.Fatal(err)
	}
	surgeutil.Fuzz(typ)

	pub, _ := newPuzzle(t, testParam())
	data, err := NewBundle(pub, []byte{1, 2, 3}).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	var b Bundle
	if err := b.UnmarshalBinary(append(data, 0)); err == nil {
		t.Fatal("trailing byte accepted")
	}
	if err := b.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	got, proof, err := b.Open()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(proof, []byte{1, 2, 3}) || got.KHash != pub.KHash || got.Z.Cmp(pub.Z) != 0 || got.KTwo.Cmp(pub.KTwo) != 0 {
		t.Fatal("bundle round-trip changed the public input")
	}
}
