// Package config provides centralized configuration for the pair daemon.
// ALL pair parameters (collaborator identities, fees, timeouts, RPC bind
// address) MUST be defined here. No hardcoded values should exist elsewhere
// in the codebase.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klingon-exchange/klingon-pair/internal/actor"
)

// NetworkType distinguishes a production deployment from a test one. The
// defaults in this package are the same for both; pairnoded's -testnet flag
// only selects a separate data directory.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// IdentityConfig holds the pair's fixed collaborator identities.
type IdentityConfig struct {
	// Token0 and Token1 are the pair's two token contracts, canonically
	// ordered so Token0 sorts before Token1.
	Token0 actor.ID `yaml:"token0"`
	Token1 actor.ID `yaml:"token1"`

	// FeeTo is the protocol-fee recipient. The zero identity disables the
	// protocol fee entirely.
	FeeTo actor.ID `yaml:"fee_to"`

	// Treasury is the recipient of the optional treasury surcharge. The
	// zero identity disables the surcharge.
	Treasury actor.ID `yaml:"treasury"`

	// Admin may pause new operations and recover a paused pair.
	Admin actor.ID `yaml:"admin"`

	// Factory may change FeeTo and is the only caller recognized by
	// change-fee-to.
	Factory actor.ID `yaml:"factory"`
}

// FeeConfig holds the pair's basis-point fee parameters.
type FeeConfig struct {
	// TreasuryFeeBPS is loaded from the config file but not read by the
	// pair: the surcharge rate is the constant ammmath.TreasuryFeeBPS, and
	// the surcharge is disabled only by a zero Identity.Treasury.
	TreasuryFeeBPS uint16 `yaml:"treasury_fee_bps"`
}

// DefaultFeeConfig returns the default fee configuration, with
// TreasuryFeeBPS set to zero.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{TreasuryFeeBPS: 0}
}

// GatewayConfig holds the budgets and timeout a real deployment reserves for
// each outbound token operation issued through the gateway.
type GatewayConfig struct {
	// ReplyTimeout bounds how long the gateway waits for a token contract's
	// reply before treating the request as failed.
	ReplyTimeout time.Duration `yaml:"reply_timeout"`

	// GasForTokenOps is the gas budget reserved for a single token call.
	GasForTokenOps uint64 `yaml:"gas_for_token_ops"`

	// GasForReplyDeposit is the gas budget reserved for the reply message
	// itself, separate from the call it answers.
	GasForReplyDeposit uint64 `yaml:"gas_for_reply_deposit"`

	// GasForFullTx is the gas budget reserved for a full multi-leg
	// operation (e.g. remove-liquidity's two payouts).
	GasForFullTx uint64 `yaml:"gas_for_full_tx"`
}

// DefaultGatewayConfig returns conservative defaults suitable for testnet.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		ReplyTimeout:       30 * time.Second,
		GasForTokenOps:     100_000,
		GasForReplyDeposit: 10_000,
		GasForFullTx:       300_000,
	}
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	// DataDir is the directory holding the pair's SQLite database.
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `yaml:"level"`

	// File is the log file path (empty for stdout).
	File string `yaml:"file"`
}

// RPCConfig holds the JSON-RPC and event-websocket bind address.
type RPCConfig struct {
	// ListenAddr is the address the RPC server listens on, e.g. ":8545".
	ListenAddr string `yaml:"listen_addr"`
}

// Config holds all configuration for the pair daemon.
type Config struct {
	NetworkType NetworkType    `yaml:"network_type"`
	Identity    IdentityConfig `yaml:"identity"`
	Fees        FeeConfig      `yaml:"fees"`
	Gateway     GatewayConfig  `yaml:"gateway"`
	Storage     StorageConfig  `yaml:"storage"`
	Logging     LoggingConfig  `yaml:"logging"`
	RPC         RPCConfig      `yaml:"rpc"`
}

// IsTestnet returns true if running on testnet.
func (c *Config) IsTestnet() bool {
	return c.NetworkType == Testnet
}

// DefaultConfig returns a Config with sensible defaults. Identity fields are
// left at the zero identity; a real deployment must fill them in before
// starting the pair, which LoadConfig enforces is the operator's job, not
// this package's.
func DefaultConfig() *Config {
	return &Config{
		NetworkType: Mainnet,
		Fees:        DefaultFeeConfig(),
		Gateway:     DefaultGatewayConfig(),
		Storage: StorageConfig{
			DataDir: "~/.klingon-pair",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		RPC: RPCConfig{
			ListenAddr: ":8545",
		},
	}
}

// ConfigFileName is the default config file name.
const ConfigFileName = "config.yaml"

// LoadConfig loads configuration from a YAML file under dataDir. If the
// file doesn't exist, it creates one with default values.
func LoadConfig(dataDir string) (*Config, error) {
	expandedDir := expandPath(dataDir)
	configPath := filepath.Join(expandedDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.Storage.DataDir = dataDir

		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# klingon-pair daemon configuration\n# Generated automatically on first run\n\n")
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPath returns the full path to the config file for the given data
// directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(expandPath(dataDir), ConfigFileName)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
