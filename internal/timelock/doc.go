// Package timelock implements a verifiable time-lock puzzle over an RSA group.
//
// Overview:
//   - A puzzle setter publishes o = g^s together with k_two = k^2 and a hash of the key
//     k = g^(s·2^t); anyone can recover k from o by t sequential squarings (Solve)
//   - A sigma protocol binds o and k_two to the same exponent s
//   - A succinct proof (Groth16 or PLONK) shows that the hidden k squares to k_two and
//     hashes to k_hash, so the solver knows in advance the key it will recover
//
// Security Model:
//   - The modulus must come from a trusted setup; its factorisation is a trapdoor
//   - The modulus is a constant of the key-validation circuit, so keys are per modulus
//   - Blinding values are drawn from crypto/rand unless a reader is injected
//
// Usage:
//   - GenerateParam once per (g, n, t), then GeneratePuzzle per key
//   - Setup compiles the key-validation circuit and obtains its keys
//   - Prove/Verify wrap the succinct proof; Verify checks the sigma protocol first
package timelock
