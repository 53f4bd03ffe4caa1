package timelock

import (
	"fmt"
	"math/big"
	"math/rand"
	"reflect"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/renproject/surge"

	"pvde/internal/sponge"
)

// Bundle is the binary envelope a puzzle setter hands to verifiers: the public input
// and the key-validation proof. Integers are stored big-endian.
type Bundle struct {
	R1    []byte
	R2    []byte
	Z     []byte
	O     []byte
	KTwo  []byte
	KHash []byte
	Proof []byte
}

// NewBundle packs a public input and its proof.
func NewBundle(public *PublicInput, proof []byte) Bundle {
	kHash := make([]byte, 0, 2*fr.Bytes)
	kHash = append(kHash, public.KHash[0][:]...)
	kHash = append(kHash, public.KHash[1][:]...)
	return Bundle{
		R1:    public.R1.Bytes(),
		R2:    public.R2.Bytes(),
		Z:     public.Z.Bytes(),
		O:     public.O.Bytes(),
		KTwo:  public.KTwo.Bytes(),
		KHash: kHash,
		Proof: append([]byte(nil), proof...),
	}
}

// Open unpacks the public input and proof.
func (b Bundle) Open() (*PublicInput, []byte, error) {
	if len(b.KHash) != 2*fr.Bytes {
		return nil, nil, fmt.Errorf("bundle: key hash has %d bytes, want %d", len(b.KHash), 2*fr.Bytes)
	}
	var h sponge.HashValue
	copy(h[0][:], b.KHash[:fr.Bytes])
	copy(h[1][:], b.KHash[fr.Bytes:])
	return &PublicInput{
		R1:    new(big.Int).SetBytes(b.R1),
		R2:    new(big.Int).SetBytes(b.R2),
		Z:     new(big.Int).SetBytes(b.Z),
		O:     new(big.Int).SetBytes(b.O),
		KTwo:  new(big.Int).SetBytes(b.KTwo),
		KHash: h,
	}, append([]byte(nil), b.Proof...), nil
}

func (b *Bundle) fields() []*[]byte {
	return []*[]byte{&b.R1, &b.R2, &b.Z, &b.O, &b.KTwo, &b.KHash, &b.Proof}
}

// Generate implements the quick.Generator interface.
func (b Bundle) Generate(rand *rand.Rand, size int) reflect.Value {
	var out Bundle
	for _, f := range out.fields() {
		*f = make([]byte, 1+rand.Intn(size+1))
		rand.Read(*f)
	}
	return reflect.ValueOf(out)
}

// SizeHint implements the surge.SizeHinter interface.
func (b Bundle) SizeHint() int {
	size := 0
	for _, f := range b.fields() {
		size += surge.SizeHint(*f)
	}
	return size
}

// Marshal implements the surge.Marshaler interface.
func (b Bundle) Marshal(buf []byte, rem int) ([]byte, int, error) {
	var err error
	for _, f := range b.fields() {
		if buf, rem, err = surge.Marshal(*f, buf, rem); err != nil {
			return buf, rem, err
		}
	}
	return buf, rem, nil
}

// Unmarshal implements the surge.Unmarshaler interface.
func (b *Bundle) Unmarshal(buf []byte, rem int) ([]byte, int, error) {
	var err error
	for _, f := range b.fields() {
		if buf, rem, err = surge.Unmarshal(f, buf, rem); err != nil {
			return buf, rem, err
		}
	}
	return buf, rem, nil
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
