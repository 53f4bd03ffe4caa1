package timelock

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"pvde/internal/modmath"
	"pvde/internal/sigma"
)

// Param is the public puzzle parameter. Y = g^(2^t) is only needed to set puzzles; a
// parameter imported by solvers and verifiers may omit it.
type Param struct {
	Generator *big.Int `json:"g"`
	Modulus   *big.Int `json:"n"`
	Y         *big.Int `json:"y,omitempty"`
	YTwo      *big.Int `json:"y_two"`
}

// ErrIncompleteParam is returned for a parameter missing a required field.
var ErrIncompleteParam = errors.New("incomplete time-lock puzzle parameter")

// GenerateParam performs the t sequential squarings of g.
func GenerateParam(g, n *big.Int, t uint64) Param {
	y := modmath.RepeatedSquare(g, t, n)
	yTwo := new(big.Int).Mul(y, y)
	return Param{
		Generator: new(big.Int).Set(g),
		Modulus:   new(big.Int).Set(n),
		Y:         y,
		YTwo:      yTwo.Mod(yTwo, n),
	}
}

// Sigma returns the statement of the sigma protocol.
func (p Param) Sigma() sigma.Param {
	return sigma.Param{Modulus: p.Modulus, Generator: p.Generator, YTwo: p.YTwo}
}

// Public strips the setter-only Y.
func (p Param) Public() Param {
	p.Y = nil
	return p
}

func (p Param) validate() error {
	if p.Generator == nil || p.Modulus == nil || p.YTwo == nil {
		return ErrIncompleteParam
	}
	if p.Modulus.Sign() <= 0 || p.Modulus.BitLen() > modmath.BitsLen {
		return fmt.Errorf("modulus must be positive and at most %d bits", modmath.BitsLen)
	}
	return nil
}

// ExportParam writes the parameter as JSON.
func ExportParam(path string, p Param) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode param: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write param: %w", err)
	}
	return nil
}

// ImportParam reads a parameter written by ExportParam.
func ImportParam(path string) (Param, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Param{}, fmt.Errorf("read param: %w", err)
	}
	var p Param
	if err := json.Unmarshal(data, &p); err != nil {
		return Param{}, fmt.Errorf("decode param: %w", err)
	}
	if err := p.validate(); err != nil {
		return Param{}, err
	}
	return p, nil
}
