// Command muse serves the ideation API and runs one-shot generation tasks.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/manthysbr/muse/internal/adapters/providers"
	appconfig "github.com/manthysbr/muse/internal/config"
	"github.com/manthysbr/muse/internal/core/domain"
	"github.com/manthysbr/muse/internal/core/services"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "muse"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Creative ideation service with multi-backend AI routing",
		Long: `muse turns seeds into ideas, merges concepts, critiques and titles them
using a local Ollama server and hosted models, falling back from one backend
to the next when a call fails.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (TOML); defaults to $MUSE_CONFIG")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")

	cmd.AddCommand(
		newServeCmd(flags),
		newGenerateCmd(flags),
		newPolicyCmd(flags),
		newSecretCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// loadConfig reads the config and returns it with a logger at the effective level.
func loadConfig(flags *globalFlags, jsonLogs bool) (*domain.AppConfig, *slog.Logger, error) {
	cfg, err := appconfig.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Server.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	opts := &slog.HandlerOptions{Level: appconfig.ParseLogLevel(level)}

	var handler slog.Handler
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return cfg, slog.New(handler), nil
}

// buildRegistry constructs the eligible backends and the routing policy.
func buildRegistry(cfg *domain.AppConfig, logger *slog.Logger) *services.BackendRegistry {
	return services.NewBackendRegistry(logger, cfg, providers.Build(cfg, logger))
}
