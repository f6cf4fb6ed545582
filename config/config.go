package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the operator-facing node configuration loaded from TOML. Only the
// fields consumed by the block production core live here; defaults mirror the
// historical command line flags.
type Config struct {
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`

	// BlockMaxSize bounds assembled block bytes; clamped to
	// [1000, MaxBlockSize-1000] when the assembler runs.
	BlockMaxSize uint32 `toml:"BlockMaxSize"`
	// BurnBlockWindow is the trailing block count consulted by the fuel
	// rate controller.
	BurnBlockWindow uint32 `toml:"BurnBlockWindow"`
	// GenBlockForce bypasses the stale-tip gate outside mainnet.
	GenBlockForce bool `toml:"GenBlockForce"`
	// MineToTarget stops mining after this many blocks on non-main
	// networks; zero means mine forever.
	MineToTarget int32 `toml:"MineToTarget"`

	MetricsAddress string `toml:"MetricsAddress"`
}

// Load reads the configuration at path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Network resolves the configured network name.
func (c *Config) Network() (NetworkID, error) {
	return ParseNetworkID(c.NetworkName)
}

// Validate rejects configurations the core cannot operate with.
func Validate(cfg *Config) error {
	if _, err := ParseNetworkID(cfg.NetworkName); err != nil {
		return err
	}
	if cfg.BlockMaxSize > MaxBlockSize {
		return fmt.Errorf("BlockMaxSize %d exceeds consensus maximum %d", cfg.BlockMaxSize, MaxBlockSize)
	}
	if cfg.BurnBlockWindow == 0 {
		return fmt.Errorf("BurnBlockWindow must be positive")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "./wicchain-data"
	}
	if cfg.BlockMaxSize == 0 {
		cfg.BlockMaxSize = DefaultBlockMaxSize
	}
	if cfg.BurnBlockWindow == 0 {
		cfg.BurnBlockWindow = DefaultBurnBlockWindow
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:         "./wicchain-data",
		NetworkName:     "main",
		BlockMaxSize:    DefaultBlockMaxSize,
		BurnBlockWindow: DefaultBurnBlockWindow,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
