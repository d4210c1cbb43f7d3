package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testinghelpers "github.com/vsinha/sellerscope/pkg/application/services/testing"
	"github.com/vsinha/sellerscope/pkg/domain/services/fees"
	"github.com/vsinha/sellerscope/pkg/interfaces/cli/output"
)

const samplePortfolio = `asin,cost,selling_price,quantity,annual_volume,purchase_date,fees_and_vat
B00DEAD001,10,30,100,50,2023-12-13,5
B00THIN002,20,48,10,400,2024-06-20,25
,20,48,10,400,2024-06-20,abc
`

func testAnalyzeConfig(t *testing.T, format, outputDir string, stdout *bytes.Buffer) Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte(samplePortfolio), 0o600))

	return Config{
		PortfolioFile: path,
		AsOf:          "2024-06-30",
		Country:       "DE",
		Format:        format,
		OutputDir:     outputDir,
		Workers:       2,
		Analysis:      testinghelpers.TestConfig(),
		FeeSchedule:   fees.DefaultSchedule(),
		Stdout:        stdout,
	}
}

func TestAnalyzeCommand_Text(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewAnalyzeCommand(testAnalyzeConfig(t, "text", "", &stdout), zerolog.Nop())

	require.NoError(t, cmd.Execute(context.Background()))

	report := stdout.String()
	assert.Contains(t, report, "Findings: 3")
	assert.Contains(t, report, "Annual Opportunity: €870.00")
	assert.Contains(t, report, "#2", "row without identifier is referenced by index")
}

func TestAnalyzeCommand_CSV(t *testing.T) {
	dir := t.TempDir()
	cmd := NewAnalyzeCommand(testAnalyzeConfig(t, "CSV", dir, nil), zerolog.Nop())

	require.NoError(t, cmd.Execute(context.Background()))

	for _, name := range []string{output.FindingsFile, output.RowErrorsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestAnalyzeCommand_InvalidInputs(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing portfolio", func(c *Config) { c.PortfolioFile = "" }},
		{"portfolio not found", func(c *Config) { c.PortfolioFile = filepath.Join(t.TempDir(), "nope.csv") }},
		{"unknown format", func(c *Config) { c.Format = "xml" }},
		{"csv without output", func(c *Config) { c.Format = "csv"; c.OutputDir = "" }},
		{"bad as-of", func(c *Config) { c.AsOf = "30/06/2024" }},
		{"bad thresholds", func(c *Config) { c.Analysis.TargetTurnoverRatio = c.Analysis.TargetTurnoverRatio.Neg() }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout bytes.Buffer
			config := testAnalyzeConfig(t, "text", "", &stdout)
			tc.mutate(&config)

			err := NewAnalyzeCommand(config, zerolog.Nop()).Execute(context.Background())
			require.Error(t, err)
			assert.Empty(t, stdout.String(), "nothing is rendered for invalid inputs")
		})
	}
}

func TestAnalyzeCommand_RejectedPortfolio(t *testing.T) {
	var stdout bytes.Buffer
	config := testAnalyzeConfig(t, "text", "", &stdout)
	require.NoError(t, os.WriteFile(config.PortfolioFile, []byte("asin,cost\nB00X,1\n"), 0o600))

	err := NewAnalyzeCommand(config, zerolog.Nop()).Execute(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchRejected))
	assert.Contains(t, stdout.String(), "Batch rejected")
}
