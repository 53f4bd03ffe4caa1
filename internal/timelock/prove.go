package timelock

import (
	"fmt"
	"time"

	"pvde/internal/logging"
	"pvde/internal/modmath"
	"pvde/internal/sigma"
	"pvde/internal/zkp"
)

// CircuitName keys the key-validation circuit in a zkp.KeyStore.
const CircuitName = "key_validation"

// Setup compiles the key-validation circuit for param's modulus and obtains its keys.
// A nil store runs a fresh setup without persisting anything.
func Setup(b zkp.Backend, store *zkp.KeyStore, param Param) (*zkp.System, error) {
	if err := param.validate(); err != nil {
		return nil, err
	}
	return zkp.Setup(b, store, CircuitName, NewKeyValidationCircuit(param.Modulus))
}

// Prove produces the key-validation proof for a puzzle.
func Prove(sys *zkp.System, public *PublicInput, secret *SecretInput) ([]byte, error) {
	if secret == nil || secret.K == nil {
		return nil, fmt.Errorf("key-validation proof: missing secret key")
	}
	if secret.K.Sign() < 0 || secret.K.BitLen() > modmath.BitsLen {
		return nil, fmt.Errorf("key-validation proof: key does not fit in %d bits", modmath.BitsLen)
	}
	if !fits(public) {
		return nil, fmt.Errorf("key-validation proof: malformed public input")
	}
	return sys.Prove(assignment(public, secret))
}

// Verify checks the sigma protocol and then the key-validation proof. The succinct
// verifier is not run when the sigma protocol already fails.
func Verify(b zkp.Backend, keys *zkp.Keys, param Param, public *PublicInput, proof []byte) (bool, error) {
	log := logging.Component("timelock")
	if public == nil || !fits(public) {
		log.Debug().Msg("malformed public input")
		return false, nil
	}
	if !sigma.Verify(public.Sigma(), param.Sigma()) {
		log.Debug().Msg("sigma protocol rejected")
		return false, nil
	}
	if _, err := public.KHash.Elements(); err != nil {
		log.Debug().Err(err).Msg("non-canonical key hash")
		return false, nil
	}

	start := time.Now()
	ok, err := b.Verify(keys, publicAssignment(public), proof)
	if err != nil {
		return false, fmt.Errorf("key-validation proof: %w", err)
	}
	log.Debug().Bool("ok", ok).Dur("took", time.Since(start)).Msg("key-validation proof checked")
	return ok, nil
}

func fits(public *PublicInput) bool {
	return public.KTwo != nil && public.KTwo.Sign() >= 0 && public.KTwo.BitLen() <= modmath.BitsLen
}
