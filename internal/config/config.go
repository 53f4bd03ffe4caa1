// config.go - Configuration for the delay-encryption tools
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"pvde/internal/zkp"
)

// RSA2048 is the RSA-2048 challenge modulus; nobody is known to hold its factorisation.
const RSA2048 = "25195908475657893494027183240048398571429282126204032027777137836043662020707595556264018525880784406918290641249515082189298559149176184502808489120072844992687392807287776735971418347270261896375014971824691165077613379859095700097330459748808428401797429100642458691817195118746121515172654632282216869987549182422433637259085141865462043576798423387184774447920739934236584823824281198163815010674810451660377306056201619676256133844143603833904414952634432190114657544454178424020924616515723350778707749817125772467962926386356373289912154831438167899885040445364023527381951378636564391212010397122822120720357"

// Config represents the application configuration
type Config struct {
	// Puzzle settings
	Generator string `json:"generator"`
	Modulus   string `json:"modulus"`
	T         uint64 `json:"t"`

	// Proof system
	Backend string `json:"backend"`
	KeyDir  string `json:"key_dir"`

	// File paths
	ParamPath string `json:"param_path"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Security
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Generator:    "5",
		Modulus:      RSA2048,
		T:            2048,
		Backend:      zkp.Groth16().Name(),
		KeyDir:       "keys",
		ParamPath:    "param.json",
		LogLevel:     "info",
		LogFile:      "pvde.log",
		EnableAudit:  true,
		AuditLogPath: "audit.log",
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	g, n, err := c.parse()
	if err != nil {
		return err
	}
	if n.Sign() <= 0 || n.Bit(0) == 0 {
		return fmt.Errorf("modulus must be a positive odd integer")
	}
	if n.BitLen() > 2048 {
		return fmt.Errorf("modulus exceeds 2048 bits")
	}
	if g.Cmp(big.NewInt(1)) <= 0 || g.Cmp(n) >= 0 {
		return fmt.Errorf("generator must lie in (1, modulus)")
	}
	if c.T == 0 {
		return fmt.Errorf("t must be positive")
	}
	if _, err := zkp.ByName(c.Backend); err != nil {
		return err
	}
	if c.KeyDir == "" {
		return fmt.Errorf("key_dir must be set")
	}
	return nil
}

// Puzzle returns the (g, n, t) triple the puzzle parameter is derived from.
func (c *Config) Puzzle() (*big.Int, *big.Int, uint64, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, 0, err
	}
	g, n, _ := c.parse()
	return g, n, c.T, nil
}

// ProofBackend resolves the configured backend name.
func (c *Config) ProofBackend() (zkp.Backend, error) {
	return zkp.ByName(c.Backend)
}

func (c *Config) parse() (*big.Int, *big.Int, error) {
	g, ok := new(big.Int).SetString(c.Generator, 10)
	if !ok {
		return nil, nil, fmt.Errorf("generator %q is not a decimal integer", c.Generator)
	}
	n, ok := new(big.Int).SetString(c.Modulus, 10)
	if !ok {
		return nil, nil, fmt.Errorf("modulus is not a decimal integer")
	}
	return g, n, nil
}
