package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Multicall3Address is the canonical Multicall3 deployment shared by most EVM chains.
const Multicall3Address = "0xcA11bde05977b3631167028862bE2a173976CA11"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network         string
	RPCURL          string
	PrivateKey      string
	DataStore       common.Address
	ConfigContract  common.Address
	Multicall       common.Address
	Reader          common.Address
	Write           bool
	PlanOut         string
	AuditLog        string
	PGDSN           string
	MaxRetries      int
	RetryBackoff    time.Duration
	MarketsPageSize uint64
	LogLevel        string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CONFIGSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("write", "CONFIGSYNC_WRITE", "WRITE"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault("network", "./network.yaml")
	v.SetDefault("multicall", Multicall3Address)
	v.SetDefault("write", false)
	v.SetDefault("audit-log", "./data/runs.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("markets-page-size", uint64(1000))
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Network:         v.GetString("network"),
		RPCURL:          v.GetString("rpc"),
		PrivateKey:      v.GetString("private-key"),
		Write:           v.GetBool("write"),
		PlanOut:         v.GetString("plan-out"),
		AuditLog:        v.GetString("audit-log"),
		PGDSN:           v.GetString("pg-dsn"),
		MaxRetries:      v.GetInt("max-retries"),
		RetryBackoff:    v.GetDuration("retry-backoff"),
		MarketsPageSize: v.GetUint64("markets-page-size"),
		LogLevel:        v.GetString("log-level"),
	}

	addresses := []struct {
		key string
		dst *common.Address
	}{
		{"data-store", &cfg.DataStore},
		{"config-contract", &cfg.ConfigContract},
		{"multicall", &cfg.Multicall},
		{"reader", &cfg.Reader},
	}
	for _, a := range addresses {
		addr, err := parseAddress(v.GetString(a.key))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", a.key, err)
		}
		*a.dst = addr
	}

	return cfg, nil
}

// Validate checks the values every reconciliation needs. Write access
// additionally needs the Config contract and a signing key.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Network == "" {
		return fmt.Errorf("network file is required")
	}
	if c.DataStore == (common.Address{}) {
		return fmt.Errorf("data-store address is required")
	}
	if c.Multicall == (common.Address{}) {
		return fmt.Errorf("multicall address is required")
	}
	return nil
}

// ValidateWrite checks the values needed to submit transactions.
func (c Config) ValidateWrite() error {
	if c.ConfigContract == (common.Address{}) {
		return fmt.Errorf("config-contract address is required to submit")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key is required to submit")
	}
	return nil
}

func parseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}
