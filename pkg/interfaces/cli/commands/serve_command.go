package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/sellerscope/pkg/application/services/findings"
	"github.com/vsinha/sellerscope/pkg/application/services/orchestration"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/services/fees"
	"github.com/vsinha/sellerscope/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/sellerscope/pkg/interfaces/api"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Addr            string
	AllowedOrigins  []string
	Country         string
	Workers         int
	Analysis        entities.AnalysisConfig
	FeeSchedule     fees.Schedule
	Version         string
	ShutdownTimeout time.Duration
}

// ServeCommand runs the findings API until its context is cancelled
type ServeCommand struct {
	config ServeConfig
	log    zerolog.Logger
}

// NewServeCommand creates a new serve command
func NewServeCommand(config ServeConfig, log zerolog.Logger) *ServeCommand {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	return &ServeCommand{config: config, log: log}
}

// Execute starts the server and shuts it down gracefully when ctx is done
func (c *ServeCommand) Execute(ctx context.Context) error {
	if err := c.config.Analysis.Validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	orchestrator := orchestration.NewAnalysisOrchestrator(
		csv.NewLoader(c.log),
		fees.NewResolver(c.config.FeeSchedule),
		findings.NewAggregator(c.log, findings.AggregatorConfig{Workers: c.config.Workers}),
		c.log,
	)

	server := api.New(api.Config{
		Addr:           c.config.Addr,
		AllowedOrigins: c.config.AllowedOrigins,
		Log:            c.log,
		Orchestrator:   orchestrator,
		Analysis:       c.config.Analysis,
		Country:        c.config.Country,
		Version:        c.config.Version,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
