package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/sellerscope/pkg/infrastructure/repositories/csv"
)

func TestGenerateCommand_RoundTripsThroughLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.csv")
	cmd := NewGenerateCommand(GenerateConfig{
		Products:   250,
		AsOf:       "2024-06-30",
		OutputFile: path,
		Seed:       42,
		WithFees:   true,
	})

	require.NoError(t, cmd.Execute(context.Background()))

	portfolio, err := csv.NewLoader(zerolog.Nop()).LoadPortfolio(path)
	require.NoError(t, err)
	assert.Len(t, portfolio.Products, 250)
	assert.True(t, portfolio.HasFeeColumn)

	for _, p := range portfolio.Products {
		assert.NotEmpty(t, p.ID)
		assert.True(t, p.SellingPrice.Valid)
		assert.True(t, p.QuantityOnHand.Valid)
		assert.NotNil(t, p.InventoryPurchaseDate)
	}
}

func TestGenerateCommand_SeedIsReproducible(t *testing.T) {
	dir := t.TempDir()
	generate := func(name string) []byte {
		path := filepath.Join(dir, name)
		cmd := NewGenerateCommand(GenerateConfig{Products: 40, AsOf: "2024-06-30", OutputFile: path, Seed: 7, ErrorRate: 0.3})
		require.NoError(t, cmd.Execute(context.Background()))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return data
	}

	first := generate("a.csv")
	second := generate("b.csv")
	assert.True(t, bytes.Equal(first, second))
}

func TestGenerateCommand_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name   string
		config GenerateConfig
	}{
		{"no products", GenerateConfig{Products: 0, OutputFile: "x.csv"}},
		{"error rate above one", GenerateConfig{Products: 1, ErrorRate: 1.5, OutputFile: "x.csv"}},
		{"no output file", GenerateConfig{Products: 1}},
		{"bad date", GenerateConfig{Products: 1, AsOf: "June", OutputFile: "x.csv"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, NewGenerateCommand(tc.config).Execute(context.Background()))
		})
	}
}
