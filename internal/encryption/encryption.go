// Package encryption proves that a ciphertext is the sponge encryption of some message
// under the key whose hash was published with a time-lock puzzle.
//
// The statement is public (Ciphertext, KeyHash) and secret (K, Message): the limbs of K
// hash to KeyHash, and encrypting Message under KeyHash yields Ciphertext including its
// parity word. Together with a key-validation proof for the same KeyHash, a verifier
// learns that solving the puzzle will decrypt the ciphertext.
package encryption

import (
	"fmt"
	"math/big"
	"time"

	"github.com/consensys/gnark/frontend"

	"pvde/internal/bigint"
	"pvde/internal/logging"
	"pvde/internal/modmath"
	"pvde/internal/sponge"
	"pvde/internal/zkp"
)

// CircuitName keys the encryption circuit in a zkp.KeyStore.
const CircuitName = "encryption"

// PublicInput is the ciphertext in wire form and the hash of the puzzle key.
type PublicInput struct {
	Ciphertext string           `json:"ciphertext"`
	KeyHash    sponge.HashValue `json:"key_hash"`
}

// SecretInput is known to the encryptor only.
type SecretInput struct {
	Plaintext string   `json:"plaintext"`
	K         *big.Int `json:"k"`
}

// Circuit is the encryption statement.
type Circuit struct {
	Ciphertext [sponge.CipherSize]frontend.Variable `gnark:",public"`
	KeyHash    [2]frontend.Variable                 `gnark:",public"`

	K       [modmath.LimbCount]frontend.Variable
	Message [sponge.MessageCapacity]frontend.Variable
}

// NewEncryptionCircuit returns the empty circuit, ready to compile.
func NewEncryptionCircuit() *Circuit {
	return &Circuit{}
}

// Define declares the circuit constraints.
func (c *Circuit) Define(api frontend.API) error {
	chip := bigint.NewChip(api, modmath.LimbWidth)
	k := chip.AssignInteger(c.K[:])

	h, err := sponge.HashLimbs(api, k.Limbs, modmath.LimbWidth)
	if err != nil {
		return err
	}
	api.AssertIsEqual(h[0], c.KeyHash[0])
	api.AssertIsEqual(h[1], c.KeyHash[1])

	ct, err := sponge.EncryptCircuit(api, c.KeyHash, c.Message[:])
	if err != nil {
		return err
	}
	for i := range c.Ciphertext {
		api.AssertIsEqual(ct[i], c.Ciphertext[i])
	}
	return nil
}

// Encrypt encrypts plaintext under the hash of k and returns the public input.
func Encrypt(plaintext string, k *big.Int) (*PublicInput, error) {
	keyHash := sponge.Hash(k)
	ct, err := sponge.EncryptString(plaintext, keyHash)
	if err != nil {
		return nil, err
	}
	return &PublicInput{Ciphertext: ct, KeyHash: keyHash}, nil
}

// Setup compiles the encryption circuit and obtains its keys. A nil store runs a fresh
// setup without persisting anything.
func Setup(b zkp.Backend, store *zkp.KeyStore) (*zkp.System, error) {
	return zkp.Setup(b, store, CircuitName, NewEncryptionCircuit())
}

// Prove produces the encryption proof.
func Prove(sys *zkp.System, public *PublicInput, secret *SecretInput) ([]byte, error) {
	if secret == nil || secret.K == nil || secret.K.Sign() < 0 || secret.K.BitLen() > modmath.BitsLen {
		return nil, fmt.Errorf("encryption proof: key missing or wider than %d bits", modmath.BitsLen)
	}
	pub, err := publicAssignment(public)
	if err != nil {
		return nil, fmt.Errorf("encryption proof: %w", err)
	}
	msg, err := sponge.PlaintextToMessage(secret.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("encryption proof: %w", err)
	}

	a := pub
	for i, l := range modmath.Decompose(secret.K, modmath.LimbCount, modmath.LimbWidth) {
		a.K[i] = l
	}
	for i := range msg {
		a.Message[i] = msg[i].BigInt(new(big.Int))
	}
	return sys.Prove(a)
}

// Verify checks an encryption proof. Malformed public inputs are rejected, not errors.
func Verify(b zkp.Backend, keys *zkp.Keys, public *PublicInput, proof []byte) (bool, error) {
	log := logging.Component("encryption")
	if public == nil {
		return false, nil
	}
	a, err := publicAssignment(public)
	if err != nil {
		log.Debug().Err(err).Msg("malformed public input")
		return false, nil
	}

	start := time.Now()
	ok, err := b.Verify(keys, a, proof)
	if err != nil {
		return false, fmt.Errorf("encryption proof: %w", err)
	}
	log.Debug().Bool("ok", ok).Dur("took", time.Since(start)).Msg("encryption proof checked")
	return ok, nil
}

func publicAssignment(public *PublicInput) (*Circuit, error) {
	ct, err := sponge.ParseCiphertext(public.Ciphertext)
	if err != nil {
		return nil, err
	}
	h, err := public.KeyHash.Elements()
	if err != nil {
		return nil, fmt.Errorf("key hash: %w", err)
	}
	a := &Circuit{KeyHash: [2]frontend.Variable{h[0].BigInt(new(big.Int)), h[1].BigInt(new(big.Int))}}
	for i := range ct {
		a.Ciphertext[i] = ct[i].BigInt(new(big.Int))
	}
	return a, nil
}
