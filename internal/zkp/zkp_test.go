package zkp

import (
	"bytes"
	"os"
	"testing"

	"github.com/consensys/gnark/frontend"
)

// squareCircuit proves knowledge of X with X·X == Y.
type squareCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *squareCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.X, c.X), c.Y)
	return nil
}

// cubeCircuit is a different statement, used to change the digest.
type cubeCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *cubeCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.X, c.X, c.X), c.Y)
	return nil
}

func TestBackends(t *testing.T) {
	for _, b := range []Backend{Groth16(), Plonk()} {
		t.Run(b.Name(), func(t *testing.T) {
			ccs, err := Compile(b, &squareCircuit{})
			if err != nil {
				t.Fatal(err)
			}
			keys, err := b.Setup(ccs)
			if err != nil {
				t.Fatal(err)
			}
			proof, err := b.Prove(ccs, keys, &squareCircuit{X: 7, Y: 49})
			if err != nil {
				t.Fatal(err)
			}

			ok, err := b.Verify(keys, &squareCircuit{Y: 49}, proof)
			if err != nil || !ok {
				t.Fatalf("valid proof: ok=%v err=%v", ok, err)
			}

			ok, err = b.Verify(keys, &squareCircuit{Y: 50}, proof)
			if err != nil || ok {
				t.Fatalf("wrong public input: ok=%v err=%v", ok, err)
			}

			ok, err = b.Verify(keys, &squareCircuit{Y: 49}, proof[:len(proof)/2])
			if err != nil || ok {
				t.Fatalf("truncated proof: ok=%v err=%v", ok, err)
			}

			if _, err := b.Prove(ccs, keys, &squareCircuit{X: 7, Y: 50}); err == nil {
				t.Fatal("proved a false statement")
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"groth16", "plonk"} {
		b, err := ByName(name)
		if err != nil || b.Name() != name {
			t.Fatalf("ByName(%q) = %v, %v", name, b, err)
		}
	}
	if _, err := ByName("stark"); err == nil {
		t.Fatal("unknown backend accepted")
	}
}

func vkBytes(t *testing.T, keys *Keys) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := keys.VerifyingKey.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSetupOrLoadKeys(t *testing.T) {
	b := Groth16()
	store := NewKeyStore(t.TempDir())

	square, err := Compile(b, &squareCircuit{})
	if err != nil {
		t.Fatal(err)
	}
	first, err := store.SetupOrLoadKeys(b, "toy", square)
	if err != nil {
		t.Fatal(err)
	}
	pkPath, vkPath, digestPath := store.Paths(b, "toy")
	for _, p := range []string{pkPath, vkPath, digestPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("%s not written: %v", p, err)
		}
	}

	t.Run("reload", func(t *testing.T) {
		again, err := store.SetupOrLoadKeys(b, "toy", square)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(vkBytes(t, first), vkBytes(t, again)) {
			t.Fatal("keys regenerated although the circuit is unchanged")
		}
		proof, err := b.Prove(square, again, &squareCircuit{X: 3, Y: 9})
		if err != nil {
			t.Fatal(err)
		}
		verifier, err := store.LoadVerifyingKey(b, "toy")
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := b.Verify(verifier, &squareCircuit{Y: 9}, proof); err != nil || !ok {
			t.Fatalf("verify with loaded key: ok=%v err=%v", ok, err)
		}
	})

	t.Run("digest mismatch", func(t *testing.T) {
		cube, err := Compile(b, &cubeCircuit{})
		if err != nil {
			t.Fatal(err)
		}
		regenerated, err := store.SetupOrLoadKeys(b, "toy", cube)
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Equal(vkBytes(t, first), vkBytes(t, regenerated)) {
			t.Fatal("stale keys loaded for a changed circuit")
		}
		want, err := Digest(cube)
		if err != nil {
			t.Fatal(err)
		}
		got, err := store.StoredDigest(b, "toy")
		if err != nil || !bytes.Equal(got, want) {
			t.Fatalf("stored digest not updated: %x vs %x (%v)", got, want, err)
		}
	})
}
