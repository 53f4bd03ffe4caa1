// backend.go - Proof-system abstraction over gnark's Groth16 and PLONK backends on BN254.
package zkp

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/rs/zerolog"

	"pvde/internal/logging"
)

// Curve is the pairing curve every circuit is compiled for; its scalar field is the
// native field of the sponge.
const Curve = ecc.BN254

// Key is a serialisable proving or verifying key.
type Key interface {
	io.WriterTo
	io.ReaderFrom
}

// Keys holds the key pair of one compiled circuit. A verifier may hold only VerifyingKey.
type Keys struct {
	ProvingKey   Key
	VerifyingKey Key
}

// Backend is a succinct proof system.
type Backend interface {
	Name() string
	// Builder is the constraint-system builder the backend proves over.
	Builder() frontend.NewBuilder
	Setup(ccs constraint.ConstraintSystem) (*Keys, error)
	Prove(ccs constraint.ConstraintSystem, keys *Keys, assignment frontend.Circuit) ([]byte, error)
	// Verify reports false for a proof that does not verify; errors are reserved for
	// faults such as a missing key or an unbuildable witness.
	Verify(keys *Keys, publicAssignment frontend.Circuit, proof []byte) (bool, error)
	// NewKeys returns empty keys to deserialise into.
	NewKeys() *Keys
}

func log() *zerolog.Logger { return logging.Component("zkp") }

// Compile compiles circuit for the backend's arithmetisation.
func Compile(b Backend, circuit frontend.Circuit) (constraint.ConstraintSystem, error) {
	start := time.Now()
	ccs, err := frontend.Compile(Curve.ScalarField(), b.Builder(), circuit)
	if err != nil {
		return nil, fmt.Errorf("compile circuit: %w", err)
	}
	log().Debug().
		Str("backend", b.Name()).
		Int("constraints", ccs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("circuit compiled")
	return ccs, nil
}

// ByName resolves "groth16" or "plonk".
func ByName(name string) (Backend, error) {
	switch name {
	case "groth16", "":
		return Groth16(), nil
	case "plonk":
		return Plonk(), nil
	default:
		return nil, fmt.Errorf("unknown proof backend %q", name)
	}
}

func fullWitness(assignment frontend.Circuit) (witness.Witness, error) {
	w, err := frontend.NewWitness(assignment, Curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness: %w", err)
	}
	return w, nil
}

func publicWitness(assignment frontend.Circuit) (witness.Witness, error) {
	w, err := frontend.NewWitness(assignment, Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return nil, fmt.Errorf("build public witness: %w", err)
	}
	return w, nil
}

type groth16Backend struct{}

// Groth16 is the default backend: circuit-specific setup, constant-size proofs.
func Groth16() Backend { return groth16Backend{} }

func (groth16Backend) Name() string                 { return "groth16" }
func (groth16Backend) Builder() frontend.NewBuilder { return r1cs.NewBuilder }

func (groth16Backend) NewKeys() *Keys {
	return &Keys{
		ProvingKey:   groth16.NewProvingKey(Curve),
		VerifyingKey: groth16.NewVerifyingKey(Curve),
	}
}

func (groth16Backend) Setup(ccs constraint.ConstraintSystem) (*Keys, error) {
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return &Keys{ProvingKey: pk, VerifyingKey: vk}, nil
}

func (groth16Backend) Prove(ccs constraint.ConstraintSystem, keys *Keys, assignment frontend.Circuit) ([]byte, error) {
	pk, ok := keys.ProvingKey.(groth16.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("groth16 prove: missing or foreign proving key")
	}
	w, err := fullWitness(assignment)
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(ccs, pk, w)
	if err != nil {
		return nil, fmt.Errorf("groth16 prove: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

func (groth16Backend) Verify(keys *Keys, publicAssignment frontend.Circuit, proof []byte) (bool, error) {
	vk, ok := keys.VerifyingKey.(groth16.VerifyingKey)
	if !ok {
		return false, fmt.Errorf("groth16 verify: missing or foreign verifying key")
	}
	w, err := publicWitness(publicAssignment)
	if err != nil {
		return false, err
	}
	p := groth16.NewProof(Curve)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		log().Debug().Err(err).Msg("malformed groth16 proof")
		return false, nil
	}
	if err := groth16.Verify(p, vk, w); err != nil {
		log().Debug().Err(err).Msg("groth16 proof rejected")
		return false, nil
	}
	return true, nil
}

type plonkBackend struct{}

// Plonk proves over a KZG commitment with an SRS generated locally by unsafekzg.
// The SRS toxic waste is known to this process, so keys made here are for testing
// and private deployments only.
func Plonk() Backend { return plonkBackend{} }

func (plonkBackend) Name() string                 { return "plonk" }
func (plonkBackend) Builder() frontend.NewBuilder { return scs.NewBuilder }

func (plonkBackend) NewKeys() *Keys {
	return &Keys{
		ProvingKey:   plonk.NewProvingKey(Curve),
		VerifyingKey: plonk.NewVerifyingKey(Curve),
	}
}

func (plonkBackend) Setup(ccs constraint.ConstraintSystem) (*Keys, error) {
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, fmt.Errorf("kzg srs: %w", err)
	}
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, fmt.Errorf("plonk setup: %w", err)
	}
	return &Keys{ProvingKey: pk, VerifyingKey: vk}, nil
}

func (plonkBackend) Prove(ccs constraint.ConstraintSystem, keys *Keys, assignment frontend.Circuit) ([]byte, error) {
	pk, ok := keys.ProvingKey.(plonk.ProvingKey)
	if !ok {
		return nil, fmt.Errorf("plonk prove: missing or foreign proving key")
	}
	w, err := fullWitness(assignment)
	if err != nil {
		return nil, err
	}
	proof, err := plonk.Prove(ccs, pk, w)
	if err != nil {
		return nil, fmt.Errorf("plonk prove: %w", err)
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize proof: %w", err)
	}
	return buf.Bytes(), nil
}

func (plonkBackend) Verify(keys *Keys, publicAssignment frontend.Circuit, proof []byte) (bool, error) {
	vk, ok := keys.VerifyingKey.(plonk.VerifyingKey)
	if !ok {
		return false, fmt.Errorf("plonk verify: missing or foreign verifying key")
	}
	w, err := publicWitness(publicAssignment)
	if err != nil {
		return false, err
	}
	p := plonk.NewProof(Curve)
	if _, err := p.ReadFrom(bytes.NewReader(proof)); err != nil {
		log().Debug().Err(err).Msg("malformed plonk proof")
		return false, nil
	}
	if err := plonk.Verify(p, vk, w); err != nil {
		log().Debug().Err(err).Msg("plonk proof rejected")
		return false, nil
	}
	return true, nil
}
