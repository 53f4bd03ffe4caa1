package sponge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"pvde/internal/modmath"
)

// LimbsPerElement is how many limbs are packed into one field element before hashing.
const LimbsPerElement = 3

// HashValue is a two-word hash output, each word a 32-byte big-endian field element.
// It doubles as the symmetric key of the cipher.
type HashValue [2][fr.Bytes]byte

// Get returns word i. It panics when i is not 0 or 1.
func (h HashValue) Get(i int) [fr.Bytes]byte {
	if i < 0 || i >= len(h) {
		panic(fmt.Sprintf("sponge: hash value index %d out of range", i))
	}
	return h[i]
}

// Elements decodes both words, rejecting non-canonical encodings.
func (h HashValue) Elements() ([2]fr.Element, error) {
	var e [2]fr.Element
	for i := range h {
		if err := e[i].SetBytesCanonical(h[i][:]); err != nil {
			return e, fmt.Errorf("hash word %d: %w", i, err)
		}
	}
	return e, nil
}

// BigInts returns both words as integers, the form used in circuit assignments.
func (h HashValue) BigInts() [2]*big.Int {
	return [2]*big.Int{
		new(big.Int).SetBytes(h[0][:]),
		new(big.Int).SetBytes(h[1][:]),
	}
}

// HashValueFromElements encodes two field elements.
func HashValueFromElements(e [2]fr.Element) HashValue {
	return HashValue{e[0].Bytes(), e[1].Bytes()}
}

// MarshalJSON encodes the words as hex strings.
func (h HashValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{hex.EncodeToString(h[0][:]), hex.EncodeToString(h[1][:])})
}

// UnmarshalJSON decodes the hex form written by MarshalJSON.
func (h *HashValue) UnmarshalJSON(data []byte) error {
	var words [2]string
	if err := json.Unmarshal(data, &words); err != nil {
		return fmt.Errorf("failed to decode hash value: %w", err)
	}
	for i, w := range words {
		b, err := hex.DecodeString(w)
		if err != nil {
			return fmt.Errorf("failed to decode hash word %d: %w", i, err)
		}
		if len(b) != fr.Bytes {
			return fmt.Errorf("hash word %d has %d bytes, want %d", i, len(b), fr.Bytes)
		}
		copy(h[i][:], b)
	}
	return nil
}

// HashElements runs a hash-mode sponge over elems and returns the squeezed state.
func HashElements(elems ...fr.Element) State {
	s := NewHash()
	s.Update(elems...)
	return s.Squeeze()
}

// GroupLimbs packs limbs LimbsPerElement at a time as l0 + l1·2^w + l2·2^(2w).
// The last group holds whatever limbs remain.
func GroupLimbs(limbs []*big.Int, limbWidth int) []fr.Element {
	out := make([]fr.Element, 0, (len(limbs)+LimbsPerElement-1)/LimbsPerElement)
	for start := 0; start < len(limbs); start += LimbsPerElement {
		end := min(start+LimbsPerElement, len(limbs))
		var e fr.Element
		e.SetBigInt(modmath.Compose(limbs[start:end], limbWidth))
		out = append(out, e)
	}
	return out
}

// Hash derives the two-word hash of a puzzle solution k: k is split into LimbCount
// limbs of LimbWidth bits, packed with GroupLimbs and hashed; the output is state
// words 1 and 2.
func Hash(k *big.Int) HashValue {
	limbs := modmath.Decompose(k, modmath.LimbCount, modmath.LimbWidth)
	st := HashElements(GroupLimbs(limbs, modmath.LimbWidth)...)
	return HashValueFromElements([2]fr.Element{st[1], st[2]})
}
