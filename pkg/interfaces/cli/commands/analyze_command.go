package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/sellerscope/pkg/application/services/findings"
	"github.com/vsinha/sellerscope/pkg/application/services/orchestration"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/services/fees"
	"github.com/vsinha/sellerscope/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sellerscope/pkg/interfaces/cli/output"
)

// ErrBatchRejected is returned after the report is rendered when the whole portfolio was rejected
var ErrBatchRejected = errors.New("portfolio rejected")

// Config holds configuration for the analyze command
type Config struct {
	PortfolioFile string
	AsOf          string
	Country       string
	Format        string
	OutputDir     string
	Verbose       bool
	Workers       int
	Analysis      entities.AnalysisConfig
	FeeSchedule   fees.Schedule

	// Stdout receives the report; defaults to os.Stdout
	Stdout io.Writer
}

// AnalyzeCommand evaluates a portfolio file and renders the findings
type AnalyzeCommand struct {
	config Config
	log    zerolog.Logger
}

// NewAnalyzeCommand creates a new analyze command with the given configuration
func NewAnalyzeCommand(config Config, log zerolog.Logger) *AnalyzeCommand {
	return &AnalyzeCommand{
		config: config,
		log:    log.With().Str("component", "analyze_command").Logger(),
	}
}

// Execute runs the analyze command
func (c *AnalyzeCommand) Execute(ctx context.Context) error {
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	asOf, err := c.referenceDate()
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	orchestrator := orchestration.NewAnalysisOrchestrator(
		csv.NewLoader(c.log),
		fees.NewResolver(c.config.FeeSchedule),
		findings.NewAggregator(c.log, findings.AggregatorConfig{Workers: c.config.Workers}),
		c.log,
	)

	c.log.Info().
		Str("portfolio", c.config.PortfolioFile).
		Str("as_of", asOf.Format(dateLayout)).
		Str("country", c.config.Country).
		Msg("Analyzing portfolio")

	startTime := time.Now()
	result, err := orchestrator.AnalyzeFile(ctx, c.config.PortfolioFile, orchestration.AnalysisRequest{
		AsOf:    asOf,
		Country: c.config.Country,
		Config:  c.config.Analysis,
	})
	elapsed := time.Since(startTime)

	rejected := errors.Is(err, entities.ErrInvalidInput)
	if err != nil && !rejected {
		return fmt.Errorf("error analyzing portfolio: %w", err)
	}

	c.log.Info().
		Int("findings", result.Summary.TotalFindings).
		Int("row_errors", len(result.RowErrors)).
		Str("total_annual_opportunity_eur", result.Summary.TotalAnnualOpportunityEUR.StringFixed(2)).
		Dur("elapsed", elapsed).
		Msg("Analysis complete")

	if err := output.Generate(result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   elapsed,
		Stdout:    c.config.Stdout,
	}); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if rejected {
		return fmt.Errorf("%w: %s", ErrBatchRejected, result.BatchError.Message)
	}
	if result.Summary.Aborted {
		return fmt.Errorf("analysis interrupted: %w", ctx.Err())
	}
	return nil
}

const dateLayout = "2006-01-02"

// validateInputs validates the command inputs
func (c *AnalyzeCommand) validateInputs() error {
	if c.config.PortfolioFile == "" {
		return fmt.Errorf("a portfolio file is required")
	}
	if _, err := os.Stat(c.config.PortfolioFile); err != nil {
		return fmt.Errorf("portfolio file not found: %s", c.config.PortfolioFile)
	}

	switch strings.ToLower(c.config.Format) {
	case "text", "json":
	case "csv":
		if c.config.OutputDir == "" {
			return fmt.Errorf("--output is required for csv format")
		}
	default:
		return fmt.Errorf("unsupported format %q (expected text, json or csv)", c.config.Format)
	}
	c.config.Format = strings.ToLower(c.config.Format)

	if c.config.Workers < 1 {
		c.config.Workers = 1
	}
	return c.config.Analysis.Validate()
}

// referenceDate parses --as-of, defaulting to today's UTC date
func (c *AnalyzeCommand) referenceDate() (time.Time, error) {
	if c.config.AsOf == "" {
		y, m, d := time.Now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := time.Parse(dateLayout, c.config.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date %q (expected YYYY-MM-DD)", c.config.AsOf)
	}
	return asOf, nil
}
