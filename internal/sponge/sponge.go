package sponge

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Sponge geometry and message layout.
const (
	Width           = 3
	Rate            = Width - 1
	FullRounds      = 8
	PartialRounds   = 56
	MessageCapacity = 11
	CipherSize      = MessageCapacity + 1
)

// Mode selects how the capacity and rate words are initialized.
type Mode int

const (
	ModeHash Mode = iota
	ModeEncryption
)

func (m Mode) String() string {
	switch m {
	case ModeHash:
		return "hash"
	case ModeEncryption:
		return "encryption"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Phase is the lifecycle state of a Sponge.
type Phase int

const (
	Uninitialized Phase = iota
	Absorbing
	Squeezed
)

// ErrInvalidCipherText is returned when the recomputed parity word does not match.
var ErrInvalidCipherText = errors.New("invalid cipher text")

// State is the full sponge state; word 0 is the capacity.
type State [Width]fr.Element

// Word returns state word i.
func (s State) Word(i int) fr.Element {
	return s[i]
}

var permutation = sync.OnceValue(func() *poseidon2.Permutation {
	return poseidon2.NewPermutation(Width, FullRounds, PartialRounds)
})

// DomainTag returns the capacity initialization of mode: 2^64 for hashing and
// 2^64 + MessageCapacity for encryption.
func DomainTag(mode Mode) *big.Int {
	tag := new(big.Int).Lsh(big.NewInt(1), 64)
	if mode == ModeEncryption {
		tag.Add(tag, big.NewInt(MessageCapacity))
	}
	return tag
}

// Sponge is a duplex sponge over the Poseidon2 permutation. The zero value is
// Uninitialized and must not be used.
type Sponge struct {
	state     State
	absorbing []fr.Element
	mode      Mode
	phase     Phase
}

// NewHash returns a sponge in hash mode.
func NewHash() *Sponge {
	s := &Sponge{mode: ModeHash, phase: Absorbing}
	s.state[0].SetBigInt(DomainTag(ModeHash))
	return s
}

// NewEncryption returns a sponge in encryption mode keyed with key0, key1.
func NewEncryption(key0, key1 fr.Element) *Sponge {
	s := &Sponge{mode: ModeEncryption, phase: Absorbing}
	s.state[0].SetBigInt(DomainTag(ModeEncryption))
	s.state[1] = key0
	s.state[2] = key1
	return s
}

// Mode returns the initialization mode.
func (s *Sponge) Mode() Mode {
	return s.mode
}

// Phase returns the lifecycle state.
func (s *Sponge) Phase() Phase {
	return s.phase
}

// State returns a copy of the current state.
func (s *Sponge) State() State {
	return s.state
}

// Update queues elements for absorption. No permutation is applied until Squeeze.
func (s *Sponge) Update(elems ...fr.Element) {
	s.mustBeInitialized()
	s.absorbing = append(s.absorbing, elems...)
	s.phase = Absorbing
}

// Squeeze absorbs the queued elements Rate at a time, adding each chunk into the rate
// words and permuting. When nothing was queued or the last chunk was full, one blank
// permutation follows. It returns the resulting state.
func (s *Sponge) Squeeze() State {
	s.mustBeInitialized()
	lastFull := true
	for start := 0; start < len(s.absorbing); start += Rate {
		end := min(start+Rate, len(s.absorbing))
		s.addRate(s.absorbing[start:end])
		s.permute()
		lastFull = end-start == Rate
	}
	if lastFull {
		s.permute()
	}
	s.absorbing = s.absorbing[:0]
	s.phase = Squeezed
	return s.state
}

// AbsorbAndRelease encrypts up to Rate message words: each rate word becomes
// word + m and is released as ciphertext before the permutation is applied.
func (s *Sponge) AbsorbAndRelease(chunk []fr.Element) []fr.Element {
	s.mustEncryptChunk(len(chunk))
	out := make([]fr.Element, len(chunk))
	for j := range chunk {
		s.state[1+j].Add(&s.state[1+j], &chunk[j])
		out[j] = s.state[1+j]
	}
	s.permute()
	return out
}

// ReleaseAndRecover is the inverse of AbsorbAndRelease: m = c − word, then the rate
// word is set to c and the permutation is applied.
func (s *Sponge) ReleaseAndRecover(chunk []fr.Element) []fr.Element {
	s.mustEncryptChunk(len(chunk))
	out := make([]fr.Element, len(chunk))
	for j := range chunk {
		out[j].Sub(&chunk[j], &s.state[1+j])
		s.state[1+j] = chunk[j]
	}
	s.permute()
	return out
}

func (s *Sponge) addRate(chunk []fr.Element) {
	for j := range chunk {
		s.state[1+j].Add(&s.state[1+j], &chunk[j])
	}
}

func (s *Sponge) permute() {
	if err := permutation().Permutation(s.state[:]); err != nil {
		// only reachable with a state of the wrong width
		panic(fmt.Sprintf("sponge: permutation failed: %v", err))
	}
}

func (s *Sponge) mustBeInitialized() {
	if s.phase == Uninitialized {
		panic("sponge: use of an uninitialized sponge")
	}
}

func (s *Sponge) mustEncryptChunk(n int) {
	s.mustBeInitialized()
	if s.mode != ModeEncryption {
		panic("sponge: absorb-and-release on a " + s.mode.String() + " sponge")
	}
	if len(s.absorbing) != 0 {
		panic("sponge: absorb-and-release with queued input")
	}
	if n == 0 || n > Rate {
		panic(fmt.Sprintf("sponge: chunk of %d words, rate is %d", n, Rate))
	}
}

// Encrypt encrypts a full message under key. After one blank permutation the message is
// processed Rate words at a time; the final rate word 0 is appended as parity.
func Encrypt(msg [MessageCapacity]fr.Element, key [2]fr.Element) [CipherSize]fr.Element {
	s := NewEncryption(key[0], key[1])
	s.Squeeze()

	var ct [CipherSize]fr.Element
	for start := 0; start < MessageCapacity; start += Rate {
		end := min(start+Rate, MessageCapacity)
		copy(ct[start:end], s.AbsorbAndRelease(msg[start:end]))
	}
	ct[MessageCapacity] = s.state[1]
	return ct
}

// Decrypt recovers the message and checks the parity word.
func Decrypt(ct [CipherSize]fr.Element, key [2]fr.Element) ([MessageCapacity]fr.Element, error) {
	s := NewEncryption(key[0], key[1])
	s.Squeeze()

	var msg [MessageCapacity]fr.Element
	for start := 0; start < MessageCapacity; start += Rate {
		end := min(start+Rate, MessageCapacity)
		copy(msg[start:end], s.ReleaseAndRecover(ct[start:end]))
	}
	if !s.state[1].Equal(&ct[MessageCapacity]) {
		return [MessageCapacity]fr.Element{}, ErrInvalidCipherText
	}
	return msg, nil
}
