package zkp

import (
	"fmt"
	"time"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
)

// System is a compiled circuit together with its keys.
type System struct {
	Name    string
	Backend Backend
	CCS     constraint.ConstraintSystem
	Keys    *Keys
}

// Setup compiles circuit and obtains its keys, from store when one is given.
func Setup(b Backend, store *KeyStore, name string, circuit frontend.Circuit) (*System, error) {
	ccs, err := Compile(b, circuit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	start := time.Now()
	var keys *Keys
	if store != nil {
		keys, err = store.SetupOrLoadKeys(b, name, ccs)
	} else {
		keys, err = b.Setup(ccs)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	log().Info().
		Str("circuit", name).
		Str("backend", b.Name()).
		Int("constraints", ccs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("proving system ready")

	return &System{Name: name, Backend: b, CCS: ccs, Keys: keys}, nil
}

// Prove proves a full assignment.
func (s *System) Prove(assignment frontend.Circuit) ([]byte, error) {
	start := time.Now()
	proof, err := s.Backend.Prove(s.CCS, s.Keys, assignment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	log().Debug().Str("circuit", s.Name).Dur("took", time.Since(start)).Msg("proof generated")
	return proof, nil
}

// Verify checks proof against the public part of assignment.
func (s *System) Verify(publicAssignment frontend.Circuit, proof []byte) (bool, error) {
	return s.Backend.Verify(s.Keys, publicAssignment, proof)
}
