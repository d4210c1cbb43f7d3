package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vsinha/sellerscope/pkg/infrastructure/config"
	"github.com/vsinha/sellerscope/pkg/infrastructure/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sellerscope",
	Short: "Portfolio findings for marketplace sellers",
	Long: `sellerscope evaluates a seller's product portfolio for dead inventory,
thin margins and slow-moving stock, and ranks the findings by annual euro impact.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to sellerscope.yaml (default $SELLERSCOPE_CONFIG or ./sellerscope.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")

	rootCmd.AddCommand(newAnalyzeCmd(), newServeCmd(), newGenerateCmd(), versionCmd)
}

// loadSettings reads the configuration and builds the logger every subcommand uses
func loadSettings() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Pretty: cfg.Log.Pretty})
	return cfg, log, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
