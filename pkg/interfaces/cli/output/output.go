package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

// File names written to the output directory
const (
	TextFile      = "findings.txt"
	JSONFile      = "findings.json"
	FindingsFile  = "findings.csv"
	RowErrorsFile = "row_errors.csv"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	Elapsed   time.Duration

	// Stdout receives text and JSON output when no directory is set; defaults to os.Stdout
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

// Generate creates output in the specified format
func Generate(result *entities.FindingsResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput prints a human-readable report and mirrors it to findings.txt
// when an output directory is set
func generateTextOutput(result *entities.FindingsResult, config Config) error {
	var sb strings.Builder
	WriteText(&sb, result)
	if config.Verbose && config.Elapsed > 0 {
		fmt.Fprintf(&sb, "Evaluation Time: %v\n", config.Elapsed)
	}

	if _, err := io.WriteString(config.stdout(), sb.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if config.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, TextFile)
	if err := os.WriteFile(filename, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 Report saved to: %s\n", filename)
	}
	return nil
}

// WriteText renders the ranked findings, the summary and any row errors
func WriteText(w io.Writer, result *entities.FindingsResult) {
	summary := result.Summary

	fmt.Fprintf(w, "📊 Portfolio Findings\n")
	fmt.Fprintf(w, "=====================\n\n")

	if result.BatchError != nil {
		fmt.Fprintf(w, "❌ Batch rejected: %s\n\n", result.BatchError.Message)
	}

	fmt.Fprintf(w, "Findings: %d\n", summary.TotalFindings)
	fmt.Fprintf(w, "Annual Opportunity: %s\n", formatEUR(summary.TotalAnnualOpportunityEUR.StringFixed(2)))
	fmt.Fprintf(w, "By Priority: High %d, Medium %d, Low %d\n",
		summary.CountsByPriority[entities.High],
		summary.CountsByPriority[entities.Medium],
		summary.CountsByPriority[entities.Low])
	fmt.Fprintf(w, "By Engine: DeadInventory %d, LowMargin %d, SlowVelocity %d\n",
		summary.CountsByEngine[entities.DeadInventory],
		summary.CountsByEngine[entities.LowMargin],
		summary.CountsByEngine[entities.SlowVelocity])
	fmt.Fprintf(w, "Products: %d evaluated, %d skipped\n", summary.ProductsEvaluated, summary.ProductsSkipped)
	if summary.Aborted {
		fmt.Fprintf(w, "⚠️  Evaluation was aborted; results are partial\n")
	}
	fmt.Fprintln(w)

	if len(result.Findings) > 0 {
		fmt.Fprintf(w, "📋 Ranked Findings:\n")
		fmt.Fprintf(w, "%-4s %-8s %-8s %-14s %-15s %-14s %s\n",
			"#", "Priority", "Score", "Engine", "Product", "€/year", "Headline")
		fmt.Fprintf(w, "%-4s %-8s %-8s %-14s %-15s %-14s %s\n",
			"----", "--------", "--------", "--------------", "---------------", "--------------", "--------")

		for i, f := range result.Findings {
			fmt.Fprintf(w, "%-4d %-8s %-8.2f %-14s %-15s %-14s %s\n",
				i+1,
				f.Priority,
				f.PriorityScore,
				f.SourceEngine,
				f.ProductID,
				f.Impact.AnnualSavingsEUR.StringFixed(2),
				f.ProblemHeadline)
		}
		fmt.Fprintln(w)
	}

	if len(result.RowErrors) > 0 {
		fmt.Fprintf(w, "⚠️  Row Errors:\n")
		fmt.Fprintf(w, "%-15s %-6s %-6s %-14s %-18s %s\n", "Product", "Row", "Line", "Engine", "Kind", "Message")
		fmt.Fprintf(w, "%-15s %-6s %-6s %-14s %-18s %s\n",
			"---------------", "------", "------", "--------------", "------------------", "-------")

		for _, e := range result.RowErrors {
			engine := e.Engine
			if engine == "" {
				engine = "-"
			}
			fmt.Fprintf(w, "%-15s %-6d %-6s %-14s %-18s %s\n",
				e.ProductRef, e.RowIndex, sourceLine(e), engine, e.Kind, e.Message)
		}
		fmt.Fprintln(w)
	}
}

func sourceLine(e entities.RowError) string {
	if e.SourceLine == 0 {
		return "-"
	}
	return strconv.Itoa(e.SourceLine)
}

func formatEUR(amount string) string {
	return "€" + amount
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *entities.FindingsResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.stdout(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes findings.csv and row_errors.csv
func generateCSVOutput(result *entities.FindingsResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	findingsFile := filepath.Join(config.OutputDir, FindingsFile)
	if err := writeCSVFile(findingsFile, func(w io.Writer) error { return WriteFindingsCSV(w, result.Findings) }); err != nil {
		return fmt.Errorf("failed to write findings CSV: %w", err)
	}

	rowErrorsFile := filepath.Join(config.OutputDir, RowErrorsFile)
	if err := writeCSVFile(rowErrorsFile, func(w io.Writer) error { return WriteRowErrorsCSV(w, result.RowErrors) }); err != nil {
		return fmt.Errorf("failed to write row errors CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 CSV results saved to:\n")
		fmt.Fprintf(config.stdout(), "  Findings: %s\n", findingsFile)
		fmt.Fprintf(config.stdout(), "  Row Errors: %s\n", rowErrorsFile)
	}
	return nil
}

func writeCSVFile(filename string, write func(io.Writer) error) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

var findingsHeader = []string{
	"rank", "finding_id", "priority", "priority_score", "source_engine", "product_identifier",
	"annual_savings_eur", "problem_headline", "calculation_explanation", "actionable",
}

// WriteFindingsCSV writes findings in rank order
func WriteFindingsCSV(w io.Writer, findings []entities.Finding) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(findingsHeader); err != nil {
		return err
	}

	for i, f := range findings {
		record := []string{
			strconv.Itoa(i + 1),
			f.ID,
			f.Priority.String(),
			strconv.FormatFloat(f.PriorityScore, 'f', 4, 64),
			f.SourceEngine.String(),
			string(f.ProductID),
			f.Impact.AnnualSavingsEUR.StringFixed(2),
			f.ProblemHeadline,
			f.Impact.CalculationExplanation,
			f.Actionable,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

var rowErrorsHeader = []string{"product_identifier_or_index", "row_index", "source_line", "engine", "error_kind", "message"}

// WriteRowErrorsCSV writes one line per row error
func WriteRowErrorsCSV(w io.Writer, rowErrors []entities.RowError) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rowErrorsHeader); err != nil {
		return err
	}

	for _, e := range rowErrors {
		line := ""
		if e.SourceLine > 0 {
			line = strconv.Itoa(e.SourceLine)
		}
		record := []string{e.ProductRef, strconv.Itoa(e.RowIndex), line, e.Engine, string(e.Kind), e.Message}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
