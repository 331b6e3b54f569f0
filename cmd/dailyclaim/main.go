// Package main is the entry point for the dailyclaim CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flemzord/dailyclaim/internal/core"
	"github.com/flemzord/dailyclaim/pkg/app"
	"github.com/spf13/cobra"

	// Compiled-in modules.
	_ "github.com/flemzord/dailyclaim/internal/checkin"
	_ "github.com/flemzord/dailyclaim/internal/gateway"
	_ "github.com/flemzord/dailyclaim/modules/channel/telegram"
	_ "github.com/flemzord/dailyclaim/modules/rewards/hoyolab"
	_ "github.com/flemzord/dailyclaim/modules/store/postgres"
	_ "github.com/flemzord/dailyclaim/modules/store/sqlite"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dataDir    string
}

func (g *globalFlags) params() app.RunParams {
	return app.RunParams{
		ConfigPath: g.configPath,
		DataDir:    g.dataDir,
		Version:    version,
		Commit:     commit,
		Date:       date,
	}
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "dailyclaim",
		Short:         "Claims daily rewards for every linked account and reports to the owner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "Override the data directory")

	root.AddCommand(
		versionCmd(),
		startCmd(g),
		runOnceCmd(g),
		accountsCmd(g),
		configCmd(g),
		serviceCmd(g),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("dailyclaim %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Println("\nCompiled modules:")
			for _, ns := range core.Namespaces() {
				fmt.Printf("  %s\n", ns)
				for _, mod := range core.GetModulesByNamespace(ns) {
					fmt.Printf("    %s\n", mod.ID)
				}
			}
		},
	}
}

func startCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler and every configured module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), g.params())
		},
	}
}

func runOnceCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single check-in sweep over every owner, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := app.RunOnce(ctx, g.params())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			_, err = fmt.Fprintf(out,
				"run %s: %d owners (%d failed), %d claimed, %d already claimed, %d handled, %d revoked, %d exhausted, %d messages in %s\n",
				summary.RunID, summary.Owners, summary.FailedOwners, summary.Claimed, summary.AlreadyClaimed,
				summary.Handled, summary.Revoked, summary.Exhausted, summary.Messages, summary.Duration)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration and provision every module",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := g.params()
			if len(args) == 1 {
				params.ConfigPath = args[0]
			}
			ctx := cmd.Context()
			rt, err := app.Bootstrap(ctx, params)
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx))

			mods := rt.App.Modules()
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s (%d modules)\n", rt.ConfigPath, len(mods))
			for _, m := range mods {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", m.ModuleInfo().ID)
			}
			return nil
		},
	})
	return cmd
}
