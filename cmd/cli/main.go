package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	baseURL string
	timeout time.Duration
	token   string
	devUser string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "bankcore-cli",
		Short:         "Finovo bankcore CLI tool",
		Long:          `A command line interface for operating the Finovo bankcore service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("BANKCORE_URL", "http://localhost:8080"), "Base URL of the bankcore API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("BANKCORE_TOKEN"), "Bearer token of a staff user")
	rootCmd.PersistentFlags().StringVar(&opts.devUser, "as", "", "Staff user id sent as X-User-ID when auth is disabled")

	rootCmd.AddCommand(
		ledgerCmd(opts),
		settleCmd(opts),
		paymentsCmd(),
		migrateCmd(),
		tokenCmd(),
		hashPasswordCmd(),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
