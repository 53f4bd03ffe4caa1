// main.go - Command-line front end for verifiable delay encryption.
//
// Subcommands:
//   param    derive y = g^(2^t) from the config and write the puzzle parameter
//   setup    compile both circuits and generate (or load) their keys
//   puzzle   set a fresh puzzle and write its proof bundle and secret key
//   verify   check a puzzle bundle
//   solve    verify a puzzle bundle and recover the symmetric key by sequential squaring
//   encrypt  encrypt a message under a puzzle key and prove the encryption
//   decrypt  verify an encryption bundle against its puzzle, solve, and decrypt
//
// Usage:
//   pvde [-config pvde.json] <subcommand> [flags]
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"pvde/internal/config"
	"pvde/internal/encryption"
	"pvde/internal/logging"
	"pvde/internal/metrics"
	"pvde/internal/sponge"
	"pvde/internal/timelock"
	"pvde/internal/zkp"
)

// app is the state shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Collector
	backend zkp.Backend
	store   *zkp.KeyStore
}

type command struct {
	usage string
	run   func(a *app, args []string) error
}

var commands = map[string]command{
	"param":   {"write the puzzle parameter", (*app).param},
	"setup":   {"generate or load circuit keys", (*app).setup},
	"puzzle":  {"set a new puzzle", (*app).puzzle},
	"verify":  {"verify a puzzle bundle", (*app).verify},
	"solve":   {"solve a puzzle bundle", (*app).solve},
	"encrypt": {"encrypt under a puzzle key", (*app).encrypt},
	"decrypt": {"decrypt an encryption bundle", (*app).decrypt},
}

func main() {
	configPath := flag.String("config", "pvde.json", "configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	auditPath := ""
	if cfg.EnableAudit {
		auditPath = cfg.AuditLogPath
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFile, auditPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	backend, err := cfg.ProofBackend()
	if err != nil {
		logger.Fatal("%v", err)
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewCollector(),
		backend: backend,
		store:   zkp.NewKeyStore(cfg.KeyDir),
	}

	if err := cmd.run(a, flag.Args()[1:]); err != nil {
		a.metrics.RecordError(flag.Arg(0))
		logger.Error("%s: %v", flag.Arg(0), err)
		logger.Close()
		os.Exit(1)
	}
	summary, _ := json.Marshal(a.metrics.GetMetricsSummary())
	logger.Debug("metrics: %s", summary)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: pvde [-config file] <subcommand> [flags]\n\nsubcommands:\n")
	for _, name := range []string{"param", "setup", "puzzle", "verify", "solve", "encrypt", "decrypt"} {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].usage)
	}
}

func (a *app) param(args []string) error {
	fs := flag.NewFlagSet("param", flag.ExitOnError)
	out := fs.String("out", a.cfg.ParamPath, "parameter file")
	public := fs.Bool("public", false, "omit y, for solvers and verifiers")
	fs.Parse(args)

	g, n, t, err := a.cfg.Puzzle()
	if err != nil {
		return err
	}
	start := time.Now()
	param := timelock.GenerateParam(g, n, t)
	a.metrics.RecordParam(t, time.Since(start))
	a.logger.Info("derived y with %d squarings in %v", t, time.Since(start))

	if *public {
		param = param.Public()
	}
	if err := timelock.ExportParam(*out, param); err != nil {
		return err
	}
	a.logger.Info("parameter written to %s", *out)
	return nil
}

func (a *app) loadParam() (timelock.Param, error) {
	param, err := timelock.ImportParam(a.cfg.ParamPath)
	if err != nil {
		return timelock.Param{}, fmt.Errorf("%w (run `pvde param` first)", err)
	}
	return param, nil
}

func (a *app) keyValidation(param timelock.Param) (*zkp.System, error) {
	start := time.Now()
	sys, err := timelock.Setup(a.backend, a.store, param)
	if err != nil {
		return nil, err
	}
	a.metrics.RecordSetup(timelock.CircuitName, time.Since(start))
	a.metrics.SetGauge(metrics.MetricConstraints, float64(sys.CCS.GetNbConstraints()), map[string]string{"circuit": timelock.CircuitName})
	return sys, nil
}

func (a *app) encryptionSystem() (*zkp.System, error) {
	start := time.Now()
	sys, err := encryption.Setup(a.backend, a.store)
	if err != nil {
		return nil, err
	}
	a.metrics.RecordSetup(encryption.CircuitName, time.Since(start))
	a.metrics.SetGauge(metrics.MetricConstraints, float64(sys.CCS.GetNbConstraints()), map[string]string{"circuit": encryption.CircuitName})
	return sys, nil
}

func (a *app) setup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	fs.Parse(args)

	param, err := a.loadParam()
	if err != nil {
		return err
	}
	if _, err := a.keyValidation(param); err != nil {
		return err
	}
	if _, err := a.encryptionSystem(); err != nil {
		return err
	}
	a.logger.Info("%s keys ready in %s", a.backend.Name(), a.cfg.KeyDir)
	return nil
}

func (a *app) puzzle(args []string) error {
	fs := flag.NewFlagSet("puzzle", flag.ExitOnError)
	out := fs.String("out", "puzzle.bin", "puzzle bundle")
	secretPath := fs.String("secret", "secret.json", "secret key file")
	fs.Parse(args)

	param, err := a.loadParam()
	if err != nil {
		return err
	}
	sys, err := a.keyValidation(param)
	if err != nil {
		return err
	}
	public, secret, err := timelock.GeneratePuzzle(nil, param)
	if err != nil {
		return err
	}

	start := time.Now()
	proof, err := timelock.Prove(sys, public, secret)
	if err != nil {
		return err
	}
	a.metrics.RecordProofGeneration(timelock.CircuitName, time.Since(start))

	if err := writeBundle(*out, timelock.NewBundle(public, proof)); err != nil {
		return err
	}
	if err := writeJSON(*secretPath, secret, 0o600); err != nil {
		return err
	}
	a.logger.Audit("puzzle_created", map[string]interface{}{"bundle": *out, "backend": a.backend.Name()})
	a.logger.Info("puzzle written to %s, secret to %s", *out, *secretPath)
	return nil
}

func (a *app) readPuzzle(path string) (*timelock.PublicInput, timelock.Param, error) {
	param, err := a.loadParam()
	if err != nil {
		return nil, param, err
	}
	var bundle timelock.Bundle
	if err := readBundle(path, &bundle); err != nil {
		return nil, param, err
	}
	public, proof, err := bundle.Open()
	if err != nil {
		return nil, param, err
	}

	keys, err := a.store.LoadVerifyingKey(a.backend, timelock.CircuitName)
	if err != nil {
		return nil, param, err
	}
	start := time.Now()
	ok, err := timelock.Verify(a.backend, keys, param.Public(), public, proof)
	a.metrics.RecordVerification(timelock.CircuitName, ok, time.Since(start))
	if err != nil {
		return nil, param, err
	}
	if !ok {
		a.logger.Warn("puzzle %s rejected", path)
		return nil, param, errors.New("puzzle proof rejected")
	}
	return public, param, nil
}

func (a *app) verify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	in := fs.String("in", "puzzle.bin", "puzzle bundle")
	fs.Parse(args)

	if _, _, err := a.readPuzzle(*in); err != nil {
		return err
	}
	a.logger.Info("puzzle %s verified", *in)
	return nil
}

func (a *app) solve(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	in := fs.String("in", "puzzle.bin", "puzzle bundle")
	fs.Parse(args)

	public, param, err := a.readPuzzle(*in)
	if err != nil {
		return err
	}
	start := time.Now()
	key := timelock.DecryptionKey(public.O, a.cfg.T, param.Modulus)
	a.metrics.RecordSolve(a.cfg.T, time.Since(start))
	if key != public.KHash {
		return errors.New("recovered key does not match the published key hash")
	}

	out, err := json.Marshal(key)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func (a *app) encrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	secretPath := fs.String("secret", "secret.json", "secret key file")
	message := fs.String("message", "", "plaintext")
	out := fs.String("out", "cipher.bin", "encryption bundle")
	fs.Parse(args)

	var secret timelock.SecretInput
	if err := readJSON(*secretPath, &secret); err != nil {
		return err
	}
	if secret.K == nil {
		return fmt.Errorf("%s holds no key", *secretPath)
	}
	public, err := encryption.Encrypt(*message, secret.K)
	if err != nil {
		return err
	}
	sys, err := a.encryptionSystem()
	if err != nil {
		return err
	}
	start := time.Now()
	proof, err := encryption.Prove(sys, public, &encryption.SecretInput{Plaintext: *message, K: secret.K})
	if err != nil {
		return err
	}
	a.metrics.RecordProofGeneration(encryption.CircuitName, time.Since(start))

	if err := writeBundle(*out, encryption.NewBundle(public, proof)); err != nil {
		return err
	}
	a.logger.Info("ciphertext written to %s", *out)
	return nil
}

func (a *app) decrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	puzzlePath := fs.String("puzzle", "puzzle.bin", "puzzle bundle")
	in := fs.String("in", "cipher.bin", "encryption bundle")
	fs.Parse(args)

	puzzle, param, err := a.readPuzzle(*puzzlePath)
	if err != nil {
		return err
	}
	var bundle encryption.Bundle
	if err := readBundle(*in, &bundle); err != nil {
		return err
	}
	public, proof, err := bundle.Open()
	if err != nil {
		return err
	}
	if public.KeyHash != puzzle.KHash {
		return errors.New("ciphertext was not made under this puzzle's key")
	}

	keys, err := a.store.LoadVerifyingKey(a.backend, encryption.CircuitName)
	if err != nil {
		return err
	}
	start := time.Now()
	ok, err := encryption.Verify(a.backend, keys, public, proof)
	a.metrics.RecordVerification(encryption.CircuitName, ok, time.Since(start))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("encryption proof rejected")
	}

	start = time.Now()
	key := timelock.DecryptionKey(puzzle.O, a.cfg.T, param.Modulus)
	a.metrics.RecordSolve(a.cfg.T, time.Since(start))
	plaintext, err := sponge.DecryptString(public.Ciphertext, key)
	if err != nil {
		return err
	}
	a.logger.Audit("decrypt", map[string]interface{}{"bundle": *in})
	fmt.Println(plaintext)
	return nil
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

type binaryUnmarshaler interface {
	UnmarshalBinary([]byte) error
}

func writeBundle(path string, b binaryMarshaler) error {
	data, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readBundle(path string, b binaryUnmarshaler) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b.UnmarshalBinary(data)
}

func writeJSON(path string, v interface{}, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
