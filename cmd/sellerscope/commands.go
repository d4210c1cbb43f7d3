package main

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/sellerscope/pkg/interfaces/cli/commands"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		portfolioFile string
		asOf          string
		country       string
		format        string
		outputDir     string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Evaluate a portfolio CSV and report ranked findings",
		Example: `  sellerscope analyze --portfolio products.csv
  sellerscope analyze --portfolio products.csv --as-of 2024-06-30 --format csv --output ./report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadSettings()
			if err != nil {
				return err
			}
			if country == "" {
				country = cfg.Country
			}

			return commands.NewAnalyzeCommand(commands.Config{
				PortfolioFile: portfolioFile,
				AsOf:          asOf,
				Country:       country,
				Format:        format,
				OutputDir:     outputDir,
				Verbose:       verbose,
				Workers:       cfg.Workers,
				Analysis:      cfg.AnalysisConfig(),
				FeeSchedule:   cfg.FeeSchedule(),
				Stdout:        cmd.OutOrStdout(),
			}, log).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&portfolioFile, "portfolio", "p", "", "Path to the portfolio CSV file")
	cmd.Flags().StringVar(&asOf, "as-of", "", "Reference date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().StringVar(&country, "country", "", "Destination country for VAT when fees are not supplied")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, csv")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory for results (required for csv)")
	_ = cmd.MarkFlagRequired("portfolio")

	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the findings API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadSettings()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTP.Addr
			}

			return commands.NewServeCommand(commands.ServeConfig{
				Addr:           addr,
				AllowedOrigins: cfg.HTTP.AllowedOrigins,
				Country:        cfg.Country,
				Workers:        cfg.Workers,
				Analysis:       cfg.AnalysisConfig(),
				FeeSchedule:    cfg.FeeSchedule(),
				Version:        version,
			}, log).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var config commands.GenerateConfig

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic portfolio CSV for demos and load tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.Verbose = verbose
			return commands.NewGenerateCommand(config).Execute(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&config.Products, "products", "n", 1000, "Number of products to generate")
	cmd.Flags().StringVar(&config.AsOf, "as-of", "", "Reference date YYYY-MM-DD the purchase dates are relative to")
	cmd.Flags().StringVarP(&config.OutputFile, "output", "o", "portfolio.csv", "Destination CSV file")
	cmd.Flags().Int64Var(&config.Seed, "seed", 0, "Random seed (default: time based)")
	cmd.Flags().Float64Var(&config.ErrorRate, "error-rate", 0, "Share of rows with a blank or malformed cell (0-1)")
	cmd.Flags().BoolVar(&config.WithFees, "with-fees", false, "Include the fees_and_vat column")

	return cmd
}
