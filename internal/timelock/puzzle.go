package timelock

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"pvde/internal/logging"
	"pvde/internal/modmath"
	"pvde/internal/sigma"
	"pvde/internal/sponge"
)

const (
	// SecretBits is the size of the puzzle exponent s.
	SecretBits = 128
	// BlindingBits sizes the sigma blinding r so that r hides s·c statistically.
	BlindingBits = 512
)

// PublicInput is everything a solver and a verifier see of a puzzle.
type PublicInput struct {
	R1    *big.Int         `json:"r1"`
	R2    *big.Int         `json:"r2"`
	Z     *big.Int         `json:"z"`
	O     *big.Int         `json:"o"`
	KTwo  *big.Int         `json:"k_two"`
	KHash sponge.HashValue `json:"k_hash"`
}

// SecretInput is the witness of the key-validation proof.
type SecretInput struct {
	K *big.Int `json:"k"`
}

// Sigma returns the sigma-protocol part of the input.
func (p *PublicInput) Sigma() *sigma.PublicInput {
	return &sigma.PublicInput{R1: p.R1, R2: p.R2, Z: p.Z, O: p.O, KTwo: p.KTwo}
}

// GeneratePuzzle draws a fresh exponent s and returns the puzzle for k = Y^s.
// A nil reader means crypto/rand.
func GeneratePuzzle(rand io.Reader, param Param) (*PublicInput, *SecretInput, error) {
	if param.Y == nil {
		return nil, nil, fmt.Errorf("%w: y is required to set a puzzle", ErrIncompleteParam)
	}
	s, err := modmath.RandomBits(rand, SecretBits)
	if err != nil {
		return nil, nil, fmt.Errorf("sample exponent: %w", err)
	}
	k := modmath.PowMod(param.Y, s, param.Modulus)
	pub, err := GeneratePublicInput(rand, param, k, s)
	if err != nil {
		return nil, nil, err
	}
	return pub, &SecretInput{K: k}, nil
}

// GeneratePublicInput builds the public input for key k = Y^s. Only the blinding r is
// sampled; s must be the exponent k was derived with or the proofs will not verify.
func GeneratePublicInput(rand io.Reader, param Param, k, s *big.Int) (*PublicInput, error) {
	if err := param.validate(); err != nil {
		return nil, err
	}
	r, err := modmath.RandomBits(rand, BlindingBits)
	if err != nil {
		return nil, fmt.Errorf("sample blinding: %w", err)
	}
	in := sigma.Generate(param.Sigma(), r, s)
	return &PublicInput{
		R1:    in.R1,
		R2:    in.R2,
		Z:     in.Z,
		O:     in.O,
		KTwo:  in.KTwo,
		KHash: sponge.Hash(k),
	}, nil
}

// Solve returns o^(2^t) mod n by t sequential squarings.
func Solve(o *big.Int, t uint64, n *big.Int) *big.Int {
	start := time.Now()
	k := modmath.RepeatedSquare(o, t, n)
	logging.Component("timelock").Debug().
		Uint64("t", t).
		Dur("took", time.Since(start)).
		Msg("puzzle solved")
	return k
}

// DecryptionKey solves the puzzle and hashes the result into a symmetric key.
func DecryptionKey(o *big.Int, t uint64, n *big.Int) sponge.HashValue {
	return sponge.Hash(Solve(o, t, n))
}
