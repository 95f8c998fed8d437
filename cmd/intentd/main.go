// Package main is the entry point for the intentd CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/intentd/internal/config"
	"github.com/flemzord/intentd/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "intentd",
		Short:         "An intent resolution daemon that maps plain-text requests to shell commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), serveCmd(), callCmd(), toolsCmd(), configCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("intentd %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the daemon and serve the selected transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			transport, _ := cmd.Flags().GetString("transport")
			verbose, _ := cmd.Flags().GetBool("verbose")

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}

			return app.Run(app.RunParams{
				ConfigPath: cfgPath,
				Transport:  app.Transport(transport),
				Version:    version,
				Commit:     commit,
				Date:       date,
				LogLevel:   level,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().StringP("transport", "t", "http", "Transport to serve: http, stdio, or mcp")
	cmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			fmt.Printf("Configuration OK (descriptors: %s)\n", cfg.Descriptors.Dir)
			if cfg.Gateway != nil {
				fmt.Printf("  gateway: %s\n", cfg.Gateway.Bind)
			}
			if cfg.Telemetry != nil {
				fmt.Printf("  telemetry: %s\n", cfg.Telemetry.Endpoint)
			}
			return nil
		},
	})
	return cmd
}
