package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aescanero/skillstream/internal/application/realtime"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the CLI. Without a subcommand it runs the service.
func newRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "skillstream",
		Short: "Live-update stream client for the skill matcher",
		Long: `skillstream keeps a push connection to the skill matcher backend open,
turns its events into notifications, refreshes the recent uploads view when a
resume is uploaded and reconnects with capped exponential backoff.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before reading configuration (default .env when present)")
	rootCmd.SetVersionTemplate("skillstream {{.Version}}\n")

	rootCmd.AddCommand(
		newRunCommand(),
		newBackoffCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the stream client and its status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context())
		},
	}
}

func newBackoffCommand() *cobra.Command {
	var attempts int

	cmd := &cobra.Command{
		Use:   "backoff",
		Short: "Print the reconnect delay for each attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ATTEMPTS\tDELAY")
			for n := 0; n < attempts; n++ {
				fmt.Fprintf(w, "%d\t%s\n", n, realtime.Backoff(n))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&attempts, "attempts", "n", 8, "number of attempts to show")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skillstream %s (built %s)\n", Version, BuildTime)
		},
	}
}

// loadEnvFile loads an explicit dotenv file, or .env if one exists
func loadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load(".env")
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
