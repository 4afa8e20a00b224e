package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "configsync",
		Short:        "Reconcile on-chain protocol config against a network file",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	impactCmd := &cobra.Command{
		Use:   "impact",
		Short: "Reconcile position impact pool distribution per market",
		RunE:  runImpact,
	}
	addSharedFlags(impactCmd)
	impactCmd.Flags().String("reader", "", "Reader contract address")
	impactCmd.Flags().Uint64("markets-page-size", 1000, "markets per Reader.getMarkets call")
	root.AddCommand(impactCmd)

	generalCmd := &cobra.Command{
		Use:   "general",
		Short: "Reconcile protocol-wide settings",
		RunE:  runGeneral,
	}
	addSharedFlags(generalCmd)
	root.AddCommand(generalCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSharedFlags(cmd *cobra.Command) {
	cmd.Flags().String("network", "./network.yaml", "network file with tokens, markets and general settings")
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("private-key", "", "hex private key of the config keeper (only needed to submit)")
	cmd.Flags().String("data-store", "", "DataStore contract address")
	cmd.Flags().String("config-contract", "", "Config contract address")
	cmd.Flags().String("multicall", "", "Multicall3 contract address (default canonical deployment)")
	cmd.Flags().Bool("write", false, "submit without asking for confirmation (also WRITE=true)")
	cmd.Flags().String("plan-out", "", "write the plan as JSON to this path")
	cmd.Flags().String("audit-log", "./data/runs.jsonl", "append run records to this JSONL file (empty disables)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN for run records")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts for directory lookups")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
