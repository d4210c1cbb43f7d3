package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// GenerateConfig holds configuration for synthetic portfolio generation
type GenerateConfig struct {
	Products   int     // Number of product rows to generate
	AsOf       string  // Reference date the purchase dates are relative to (YYYY-MM-DD, default today)
	OutputFile string  // Destination CSV file
	Seed       int64   // Random seed for reproducible generation
	ErrorRate  float64 // Share of rows with a blank or malformed cell (0-1)
	WithFees   bool    // Include the fees_and_vat column
	Verbose    bool    // Verbose output
}

// GenerateCommand writes a synthetic portfolio CSV for demos and load tests
type GenerateCommand struct {
	config GenerateConfig
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	config.Seed = seed

	return &GenerateCommand{
		config: config,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// productProfile shapes a generated row toward one kind of finding
type productProfile int

const (
	profileHealthy productProfile = iota
	profileDeadStock
	profileThinMargin
	profileSlowMover
)

var generatedCategories = []string{"electronics", "home", "toys", "beauty", "books", "garden"}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Products < 1 {
		return fmt.Errorf("products must be at least 1, got %d", cmd.config.Products)
	}
	if cmd.config.ErrorRate < 0 || cmd.config.ErrorRate > 1 {
		return fmt.Errorf("error rate must be between 0 and 1, got %.2f", cmd.config.ErrorRate)
	}
	if cmd.config.OutputFile == "" {
		return fmt.Errorf("an output file is required")
	}

	asOf := time.Now().UTC()
	if cmd.config.AsOf != "" {
		parsed, err := time.Parse(dateLayout, cmd.config.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q (expected YYYY-MM-DD)", cmd.config.AsOf)
		}
		asOf = parsed
	}

	if cmd.config.Verbose {
		fmt.Printf("🔧 Generating %d products (%.0f%% malformed rows)\n", cmd.config.Products, cmd.config.ErrorRate*100)
		fmt.Printf("📁 Output file: %s\n", cmd.config.OutputFile)
		fmt.Printf("🎲 Random seed: %d\n", cmd.config.Seed)
	}

	if dir := filepath.Dir(cmd.config.OutputFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(cmd.config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cmd.config.OutputFile, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"asin", "category", "cost", "selling_price", "quantity", "annual_volume", "inventory_purchase_date"}
	if cmd.config.WithFees {
		header = append(header, "fees_and_vat")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := 0; i < cmd.config.Products; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(cmd.generateRow(i, asOf)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.config.OutputFile, err)
	}

	if cmd.config.Verbose {
		fmt.Printf("✅ Portfolio generated successfully in %s\n", cmd.config.OutputFile)
	}
	return nil
}

// generateRow builds one CSV row. Roughly half the rows are healthy; the rest
// lean toward dead stock, thin margins or slow turnover.
func (cmd *GenerateCommand) generateRow(index int, asOf time.Time) []string {
	profile := profileHealthy
	if cmd.rand.Float64() < 0.5 {
		profile = productProfile(1 + cmd.rand.Intn(3))
	}

	cost := 2 + cmd.rand.Float64()*60
	markup := 1.8 + cmd.rand.Float64()*1.2
	quantity := 5 + cmd.rand.Intn(200)
	annualVolume := quantity * (5 + cmd.rand.Intn(20))
	ageDays := cmd.rand.Intn(60)

	switch profile {
	case profileDeadStock:
		ageDays = 120 + cmd.rand.Intn(400)
		quantity = 50 + cmd.rand.Intn(2000)
		annualVolume = cmd.rand.Intn(quantity)
	case profileThinMargin:
		markup = 1.15 + cmd.rand.Float64()*0.3
	case profileSlowMover:
		quantity = 100 + cmd.rand.Intn(1000)
		annualVolume = cmd.rand.Intn(quantity * 2)
	}

	sellingPrice := cost * markup
	category := generatedCategories[cmd.rand.Intn(len(generatedCategories))]
	purchaseDate := asOf.AddDate(0, 0, -ageDays).Format(dateLayout)

	row := []string{
		fmt.Sprintf("B%09d", index+1),
		category,
		money(cost),
		money(sellingPrice),
		strconv.Itoa(quantity),
		strconv.Itoa(annualVolume),
		purchaseDate,
	}
	if cmd.config.WithFees {
		row = append(row, money(sellingPrice*(0.15+cmd.rand.Float64()*0.25)))
	}

	if cmd.rand.Float64() < cmd.config.ErrorRate {
		// blank or garble one numeric cell
		col := 2 + cmd.rand.Intn(4)
		if cmd.rand.Intn(2) == 0 {
			row[col] = ""
		} else {
			row[col] = "n/a"
		}
	}
	return row
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
