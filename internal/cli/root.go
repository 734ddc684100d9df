// Package cli implements the chatpilot command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatpilot/internal/audit"
	"chatpilot/internal/security"
)

var (
	flagWorkspace string
	flagPolicy    string
	flagVerbose   bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatpilot",
	Short: "Chat assistant that turns model responses into safe workspace actions",
	Long: "Detects file and command actions in model responses, validates them,\n" +
		"gates them behind a security policy, and executes them against the\n" +
		"workspace with confirmation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if flagVerbose {
			cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagWorkspace, "workspace", "", "Workspace root directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Path to security policy YAML (default: ~/.chatpilot/policy.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func workspaceRoot() (string, error) {
	if flagWorkspace != "" {
		return filepath.Abs(flagWorkspace)
	}
	return os.Getwd()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".chatpilot")
}

// buildGate loads the policy and attaches the audit log when the level
// audits.
func buildGate() (*security.Gate, *audit.Log, error) {
	policy, hash, err := security.LoadPolicyWithHash(flagPolicy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load security policy: %w", err)
	}
	gate := security.NewGate(policy)

	var log *audit.Log
	if policy.AuditOn() {
		log, err = audit.Open(filepath.Join(configDir(), "audit.jsonl"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		gate.SetAuditLog(log)
		gate.Audit(audit.Entry{Event: audit.EventPolicyReloaded, PolicyHash: hash})
	}

	logger.Debug("security policy loaded",
		zap.String("level", string(policy.Level)),
		zap.String("hash", hash))
	return gate, log, nil
}
