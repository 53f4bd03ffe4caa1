package encryption

import (
	"fmt"
	"math/rand"
	"reflect"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/renproject/surge"
)

// Bundle carries a ciphertext, its key hash and the encryption proof.
type Bundle struct {
	Ciphertext string
	KeyHash    []byte
	Proof      []byte
}

// NewBundle packs a public input and its proof.
func NewBundle(public *PublicInput, proof []byte) Bundle {
	keyHash := make([]byte, 0, 2*fr.Bytes)
	keyHash = append(keyHash, public.KeyHash[0][:]...)
	keyHash = append(keyHash, public.KeyHash[1][:]...)
	return Bundle{
		Ciphertext: public.Ciphertext,
		KeyHash:    keyHash,
		Proof:      append([]byte(nil), proof...),
	}
}

// Open unpacks the public input and proof.
func (b Bundle) Open() (*PublicInput, []byte, error) {
	if len(b.KeyHash) != 2*fr.Bytes {
		return nil, nil, fmt.Errorf("bundle: key hash has %d bytes, want %d", len(b.KeyHash), 2*fr.Bytes)
	}
	public := &PublicInput{Ciphertext: b.Ciphertext}
	copy(public.KeyHash[0][:], b.KeyHash[:fr.Bytes])
	copy(public.KeyHash[1][:], b.KeyHash[fr.Bytes:])
	return public, append([]byte(nil), b.Proof...), nil
}

// Generate implements the quick.Generator interface.
func (b Bundle) Generate(rand *rand.Rand, size int) reflect.Value {
	words := make([]byte, 1+rand.Intn(size+1))
	for i := range words {
		words[i] = "0123456789,"[rand.Intn(11)]
	}
	keyHash := make([]byte, 2*fr.Bytes)
	rand.Read(keyHash)
	proof := make([]byte, 1+rand.Intn(size+1))
	rand.Read(proof)
	return reflect.ValueOf(Bundle{Ciphertext: string(words), KeyHash: keyHash, Proof: proof})
}

// SizeHint implements the surge.SizeHinter interface.
func (b Bundle) SizeHint() int {
	return surge.SizeHint(b.Ciphertext) +
		surge.SizeHint(b.KeyHash) +
		surge.SizeHint(b.Proof)
}

// Marshal implements the surge.Marshaler interface.
func (b Bundle) Marshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := surge.Marshal(b.Ciphertext, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	buf, rem, err = surge.Marshal(b.KeyHash, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	return surge.Marshal(b.Proof, buf, rem)
}

// Unmarshal implements the surge.Unmarshaler interface.
func (b *Bundle) Unmarshal(buf []byte, rem int) ([]byte, int, error) {
	buf, rem, err := surge.Unmarshal(&b.Ciphertext, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	buf, rem, err = surge.Unmarshal(&b.KeyHash, buf, rem)
	if err != nil {
		return buf, rem, err
	}
	return surge.Unmarshal(&b.Proof, buf, rem)
}

// MarshalBinary encodes the bundle.
func (b Bundle) MarshalBinary() ([]byte, error) {
	buf := make([]byte, b.SizeHint())
	if _, _, err := b.Marshal(buf, len(buf)); err != nil {
		return nil, fmt.Errorf("bundle: %w", err)
	}
	return buf, nil
}

// UnmarshalBinary decodes a bundle, rejecting trailing bytes.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	rest, _, err := b.Unmarshal(data, len(data))
	if err != nil {
		return fmt.Errorf("bundle: %w", err)
	}
	if len(rest) != 0 {
		return fmt.Errorf("bundle: %d trailing bytes", len(rest))
	}
	return nil
}
