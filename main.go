// main.go - End-to-end verifiable delay encryption scenario.
//
// This walks through the whole protocol with the configured modulus and delay:
//   - The setter derives the puzzle parameter y = g^(2^t) and sets a puzzle for key k
//   - The setter proves k² = k_two and Hash(k) = k_hash (sigma protocol + key-validation proof)
//   - An encryptor encrypts a message under Hash(k) and proves the encryption
//   - A solver recovers k from o = g^s by t squarings and decrypts
//   - A proof attempt for a tampered key must fail
//
// Usage:
//   go run main.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"pvde/internal/config"
	"pvde/internal/encryption"
	"pvde/internal/logging"
	"pvde/internal/metrics"
	"pvde/internal/sigma"
	"pvde/internal/sponge"
	"pvde/internal/timelock"
	"pvde/internal/zkp"
)

// scenarioResult records what each step of the scenario observed.
type scenarioResult struct {
	Solved             bool
	Plaintext          string
	SigmaVerified      bool
	KeyProofVerified   bool
	EncryptionVerified bool
	TamperedRejected   bool
}

// runScenario executes the protocol once for plaintext.
func runScenario(cfg *config.Config, plaintext string, mc *metrics.Collector) (*scenarioResult, error) {
	log := logging.Component("scenario")
	res := &scenarioResult{}

	g, n, t, err := cfg.Puzzle()
	if err != nil {
		return nil, err
	}
	backend, err := cfg.ProofBackend()
	if err != nil {
		return nil, err
	}
	store := zkp.NewKeyStore(cfg.KeyDir)

	// 1. Puzzle parameter and puzzle
	start := time.Now()
	param := timelock.GenerateParam(g, n, t)
	log.Info().Uint64("t", t).Dur("took", time.Since(start)).Msg("puzzle parameter derived")

	public, secret, err := timelock.GeneratePuzzle(nil, param)
	if err != nil {
		return nil, err
	}

	// 2. Solving recovers the key
	start = time.Now()
	k := timelock.Solve(public.O, t, n)
	mc.RecordSolve(t, time.Since(start))
	res.Solved = k.Cmp(secret.K) == 0
	if !res.Solved {
		return res, errors.New("solved key differs from the puzzle key")
	}

	// 3. Encryption under Hash(k), decryption with the solved key
	enc, err := encryption.Encrypt(plaintext, secret.K)
	if err != nil {
		return res, err
	}
	key := timelock.DecryptionKey(public.O, t, n)
	res.Plaintext, err = sponge.DecryptString(enc.Ciphertext, key)
	if err != nil {
		return res, err
	}

	// 4. Sigma protocol
	res.SigmaVerified = sigma.Verify(public.Sigma(), param.Sigma())

	// 5. Key-validation proof
	start = time.Now()
	kv, err := timelock.Setup(backend, store, param)
	if err != nil {
		return res, err
	}
	mc.RecordSetup(timelock.CircuitName, time.Since(start))

	start = time.Now()
	proof, err := timelock.Prove(kv, public, secret)
	if err != nil {
		return res, err
	}
	mc.RecordProofGeneration(timelock.CircuitName, time.Since(start))

	start = time.Now()
	res.KeyProofVerified, err = timelock.Verify(backend, kv.Keys, param.Public(), public, proof)
	if err != nil {
		return res, err
	}
	mc.RecordVerification(timelock.CircuitName, res.KeyProofVerified, time.Since(start))

	// 6. A tampered key either fails to prove or fails to verify
	tampered := &timelock.SecretInput{K: new(big.Int).Xor(secret.K, big.NewInt(0xff))}
	if badProof, err := timelock.Prove(kv, public, tampered); err != nil {
		res.TamperedRejected = true
	} else {
		ok, err := timelock.Verify(backend, kv.Keys, param.Public(), public, badProof)
		if err != nil {
			return res, err
		}
		res.TamperedRejected = !ok
	}
	mc.RecordVerification(timelock.CircuitName, !res.TamperedRejected, 0)

	// 7. Encryption proof
	start = time.Now()
	es, err := encryption.Setup(backend, store)
	if err != nil {
		return res, err
	}
	mc.RecordSetup(encryption.CircuitName, time.Since(start))

	start = time.Now()
	encProof, err := encryption.Prove(es, enc, &encryption.SecretInput{Plaintext: plaintext, K: secret.K})
	if err != nil {
		return res, err
	}
	mc.RecordProofGeneration(encryption.CircuitName, time.Since(start))

	start = time.Now()
	res.EncryptionVerified, err = encryption.Verify(backend, es.Keys, enc, encProof)
	if err != nil {
		return res, err
	}
	mc.RecordVerification(encryption.CircuitName, res.EncryptionVerified, time.Since(start))

	return res, nil
}

func main() {
	cfg := config.DefaultConfig()
	logger, err := logging.NewLogger(cfg.LogLevel, "", "")
	if err != nil {
		panic(err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	logger.Info("=== Verifiable Delay Encryption: t=%d, %s ===", cfg.T, cfg.Backend)

	mc := metrics.NewCollector()
	res, err := runScenario(cfg, "stompesi", mc)
	if err != nil {
		logger.Error("scenario failed: %v", err)
		return
	}

	logger.Info("puzzle solved:             %v", res.Solved)
	logger.Info("decrypted plaintext:       %q", res.Plaintext)
	logger.Info("sigma protocol verified:   %v", res.SigmaVerified)
	logger.Info("key-validation verified:   %v", res.KeyProofVerified)
	logger.Info("encryption proof verified: %v", res.EncryptionVerified)
	logger.Info("tampered key rejected:     %v", res.TamperedRejected)

	summary, _ := json.MarshalIndent(mc.GetMetricsSummary(), "", "  ")
	fmt.Println(string(summary))
}
