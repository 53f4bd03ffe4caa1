package sponge

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	gposeidon2 "github.com/consensys/gnark/std/permutation/poseidon2"
)

// CircuitSponge is the in-circuit twin of Sponge. It applies the same permutation with
// the same round constants, so squeezed words and ciphertexts match the native values.
type CircuitSponge struct {
	api       frontend.API
	perm      *gposeidon2.Permutation
	state     []frontend.Variable
	absorbing []frontend.Variable
	mode      Mode
}

func newCircuitSponge(api frontend.API, mode Mode) (*CircuitSponge, error) {
	perm, err := gposeidon2.NewPoseidon2FromParameters(api, Width, FullRounds, PartialRounds)
	if err != nil {
		return nil, fmt.Errorf("failed to build permutation: %w", err)
	}
	state := make([]frontend.Variable, Width)
	state[0] = DomainTag(mode)
	for i := 1; i < Width; i++ {
		state[i] = 0
	}
	return &CircuitSponge{api: api, perm: perm, state: state, mode: mode}, nil
}

// NewCircuitHash returns an in-circuit sponge in hash mode.
func NewCircuitHash(api frontend.API) (*CircuitSponge, error) {
	return newCircuitSponge(api, ModeHash)
}

// NewCircuitEncryption returns an in-circuit sponge in encryption mode keyed with key.
func NewCircuitEncryption(api frontend.API, key [2]frontend.Variable) (*CircuitSponge, error) {
	s, err := newCircuitSponge(api, ModeEncryption)
	if err != nil {
		return nil, err
	}
	s.state[1] = key[0]
	s.state[2] = key[1]
	return s, nil
}

// State returns the current state words.
func (s *CircuitSponge) State() []frontend.Variable {
	out := make([]frontend.Variable, len(s.state))
	copy(out, s.state)
	return out
}

// Update queues elements for absorption.
func (s *CircuitSponge) Update(elems ...frontend.Variable) {
	s.absorbing = append(s.absorbing, elems...)
}

// Squeeze mirrors Sponge.Squeeze.
func (s *CircuitSponge) Squeeze() ([]frontend.Variable, error) {
	lastFull := true
	for start := 0; start < len(s.absorbing); start += Rate {
		end := min(start+Rate, len(s.absorbing))
		for j, e := range s.absorbing[start:end] {
			s.state[1+j] = s.api.Add(s.state[1+j], e)
		}
		if err := s.perm.Permutation(s.state); err != nil {
			return nil, err
		}
		lastFull = end-start == Rate
	}
	if lastFull {
		if err := s.perm.Permutation(s.state); err != nil {
			return nil, err
		}
	}
	s.absorbing = s.absorbing[:0]
	return s.State(), nil
}

// AbsorbAndRelease mirrors Sponge.AbsorbAndRelease.
func (s *CircuitSponge) AbsorbAndRelease(chunk []frontend.Variable) ([]frontend.Variable, error) {
	if s.mode != ModeEncryption {
		return nil, fmt.Errorf("absorb-and-release on a %s sponge", s.mode)
	}
	if len(chunk) == 0 || len(chunk) > Rate {
		return nil, fmt.Errorf("chunk of %d words, rate is %d", len(chunk), Rate)
	}
	out := make([]frontend.Variable, len(chunk))
	for j := range chunk {
		s.state[1+j] = s.api.Add(s.state[1+j], chunk[j])
		out[j] = s.state[1+j]
	}
	if err := s.perm.Permutation(s.state); err != nil {
		return nil, err
	}
	return out, nil
}

// GroupLimbsCircuit is the in-circuit GroupLimbs.
func GroupLimbsCircuit(api frontend.API, limbs []frontend.Variable, limbWidth int) []frontend.Variable {
	out := make([]frontend.Variable, 0, (len(limbs)+LimbsPerElement-1)/LimbsPerElement)
	for start := 0; start < len(limbs); start += LimbsPerElement {
		end := min(start+LimbsPerElement, len(limbs))
		var acc frontend.Variable = 0
		for j, l := range limbs[start:end] {
			weight := new(big.Int).Lsh(big.NewInt(1), uint(j*limbWidth))
			acc = api.Add(acc, api.Mul(l, weight))
		}
		out = append(out, acc)
	}
	return out
}

// HashLimbs is the in-circuit Hash over already range-checked limbs.
func HashLimbs(api frontend.API, limbs []frontend.Variable, limbWidth int) ([2]frontend.Variable, error) {
	h, err := NewCircuitHash(api)
	if err != nil {
		return [2]frontend.Variable{}, err
	}
	h.Update(GroupLimbsCircuit(api, limbs, limbWidth)...)
	st, err := h.Squeeze()
	if err != nil {
		return [2]frontend.Variable{}, err
	}
	return [2]frontend.Variable{st[1], st[2]}, nil
}

// EncryptCircuit is the in-circuit Encrypt; it returns CipherSize words.
func EncryptCircuit(api frontend.API, key [2]frontend.Variable, msg []frontend.Variable) ([]frontend.Variable, error) {
	if len(msg) != MessageCapacity {
		return nil, fmt.Errorf("message has %d words, want %d", len(msg), MessageCapacity)
	}
	s, err := NewCircuitEncryption(api, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.Squeeze(); err != nil {
		return nil, err
	}
	ct := make([]frontend.Variable, 0, CipherSize)
	for start := 0; start < MessageCapacity; start += Rate {
		end := min(start+Rate, MessageCapacity)
		words, err := s.AbsorbAndRelease(msg[start:end])
		if err != nil {
			return nil, err
		}
		ct = append(ct, words...)
	}
	return append(ct, s.state[1]), nil
}
