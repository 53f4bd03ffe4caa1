// keystore.go - On-disk persistence of circuit keys.
//
// Each circuit gets three files under the store directory, named after the circuit and
// the backend: <name>_<backend>.pk, .vk and .digest. The digest is BLAKE2b-256 over the
// serialised constraint system; keys whose digest no longer matches the compiled circuit
// (a changed modulus, say) are regenerated instead of loaded.
package zkp

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensys/gnark/constraint"
	"golang.org/x/crypto/blake2b"
)

// KeyStore is a directory of circuit keys.
type KeyStore struct {
	Dir string
}

// NewKeyStore returns a store rooted at dir. The directory is created on first save.
func NewKeyStore(dir string) *KeyStore {
	return &KeyStore{Dir: dir}
}

// Paths returns the proving key, verifying key and digest file paths for a circuit.
func (s *KeyStore) Paths(b Backend, circuit string) (pk, vk, digest string) {
	base := filepath.Join(s.Dir, circuit+"_"+b.Name())
	return base + ".pk", base + ".vk", base + ".digest"
}

// SaveKey writes a key to disk.
func SaveKey(path string, k Key) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = k.WriteTo(f)
	return err
}

// LoadKey reads a key from disk into k.
func LoadKey(path string, k Key) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = k.ReadFrom(f)
	return err
}

// Digest fingerprints a compiled constraint system.
func Digest(ccs constraint.ConstraintSystem) ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := ccs.WriteTo(h); err != nil {
		return nil, fmt.Errorf("serialize constraint system: %w", err)
	}
	return h.Sum(nil), nil
}

// SaveKeys writes both keys and the circuit digest.
func (s *KeyStore) SaveKeys(b Backend, circuit string, ccs constraint.ConstraintSystem, keys *Keys) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	digest, err := Digest(ccs)
	if err != nil {
		return err
	}
	pkPath, vkPath, digestPath := s.Paths(b, circuit)
	if err := SaveKey(pkPath, keys.ProvingKey); err != nil {
		return fmt.Errorf("save proving key: %w", err)
	}
	if err := SaveKey(vkPath, keys.VerifyingKey); err != nil {
		return fmt.Errorf("save verifying key: %w", err)
	}
	if err := os.WriteFile(digestPath, []byte(hex.EncodeToString(digest)+"\n"), 0o644); err != nil {
		return fmt.Errorf("save circuit digest: %w", err)
	}
	return nil
}

// LoadKeys reads both keys of a circuit.
func (s *KeyStore) LoadKeys(b Backend, circuit string) (*Keys, error) {
	pkPath, vkPath, _ := s.Paths(b, circuit)
	keys := b.NewKeys()
	if err := LoadKey(pkPath, keys.ProvingKey); err != nil {
		return nil, fmt.Errorf("load proving key: %w", err)
	}
	if err := LoadKey(vkPath, keys.VerifyingKey); err != nil {
		return nil, fmt.Errorf("load verifying key: %w", err)
	}
	return keys, nil
}

// LoadVerifyingKey reads only the verifying key, for parties that never prove.
func (s *KeyStore) LoadVerifyingKey(b Backend, circuit string) (*Keys, error) {
	_, vkPath, _ := s.Paths(b, circuit)
	keys := b.NewKeys()
	keys.ProvingKey = nil
	if err := LoadKey(vkPath, keys.VerifyingKey); err != nil {
		return nil, fmt.Errorf("load verifying key: %w", err)
	}
	return keys, nil
}

// StoredDigest returns the digest recorded next to the keys.
func (s *KeyStore) StoredDigest(b Backend, circuit string) ([]byte, error) {
	_, _, digestPath := s.Paths(b, circuit)
	raw, err := os.ReadFile(digestPath)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(strings.TrimSpace(string(raw)))
}

// SetupOrLoadKeys loads the circuit keys when they exist and match ccs; otherwise it runs
// the backend setup and saves fresh keys.
func (s *KeyStore) SetupOrLoadKeys(b Backend, circuit string, ccs constraint.ConstraintSystem) (*Keys, error) {
	digest, err := Digest(ccs)
	if err != nil {
		return nil, err
	}

	stored, err := s.StoredDigest(b, circuit)
	switch {
	case err == nil && bytes.Equal(stored, digest):
		keys, err := s.LoadKeys(b, circuit)
		if err == nil {
			log().Debug().Str("circuit", circuit).Str("backend", b.Name()).Msg("keys loaded")
			return keys, nil
		}
		log().Warn().Err(err).Str("circuit", circuit).Msg("stored keys unreadable, regenerating")
	case err == nil:
		log().Info().Str("circuit", circuit).Msg("circuit changed since setup, regenerating keys")
	case !errors.Is(err, os.ErrNotExist):
		log().Warn().Err(err).Str("circuit", circuit).Msg("stored digest unreadable, regenerating")
	}

	keys, err := b.Setup(ccs)
	if err != nil {
		return nil, err
	}
	if err := s.SaveKeys(b, circuit, ccs, keys); err != nil {
		return nil, err
	}
	return keys, nil
}
