// Package sponge implements the permutation cipher used for key hashing and message encryption.
//
// Overview:
//   - One Poseidon2 permutation core (BN254, t=3) operated as a duplex sponge
//   - Hash mode: capacity seeded with a hash domain tag, rate words zero
//   - Encryption mode: capacity seeded with an encryption domain tag, rate words set to the key
//   - Encrypt/Decrypt work on fixed MessageCapacity-word messages plus one parity word
//   - Every native function has an in-circuit twin (circuit.go) producing identical values
//
// Security Model:
//   - The parity word is the cipher's only integrity check; it is not a MAC
//   - A sponge instance is owned by one call and never shared or reused across messages
package sponge
