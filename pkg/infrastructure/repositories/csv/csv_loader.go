package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/repositories"
)

// column identifies a logical portfolio column regardless of its header spelling
type column int

const (
	colIdentifier column = iota
	colBuyingPrice
	colSellingPrice
	colQuantity
	colAnnualVolume
	colCategory
	colPurchaseDate
	colFees
	colWeight
	colLength
	colWidth
	colHeight
)

// headerAliases maps accepted header names (lower case) to columns
var headerAliases = map[string]column{
	"asin":                    colIdentifier,
	"identifier":              colIdentifier,
	"sku":                     colIdentifier,
	"cost":                    colBuyingPrice,
	"buying_price":            colBuyingPrice,
	"selling_price":           colSellingPrice,
	"price":                   colSellingPrice,
	"quantity":                colQuantity,
	"quantity_on_hand":        colQuantity,
	"annual_volume":           colAnnualVolume,
	"annual_sales":            colAnnualVolume,
	"category":                colCategory,
	"inventory_purchase_date": colPurchaseDate,
	"purchase_date":           colPurchaseDate,
	"fees_and_vat":            colFees,
	"fees_per_unit":           colFees,
	"weight_kg":               colWeight,
	"length_cm":               colLength,
	"width_cm":                colWidth,
	"height_cm":               colHeight,
}

var requiredColumns = map[column]string{
	colIdentifier:   "asin/identifier",
	colBuyingPrice:  "cost",
	colSellingPrice: "selling_price",
	colQuantity:     "quantity",
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02.01.2006", "02/01/2006"}

// Loader handles loading portfolio data from CSV files
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "csv_loader").Logger()}
}

// Verify interface compliance
var _ repositories.PortfolioRepository = (*Loader)(nil)

// LoadPortfolio loads products from a CSV file
func (l *Loader) LoadPortfolio(filename string) (*entities.Portfolio, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadPortfolio(file)
}

// ReadPortfolio reads products from CSV data.
//
// Only a missing header or unreadable CSV fails the whole file. A cell that
// cannot be parsed is marked invalid on its product so that the detectors
// needing it report a row error while the others still run.
func (l *Loader) ReadPortfolio(r io.Reader) (*entities.Portfolio, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &entities.BatchError{
			Kind:    entities.ErrorKindInvalidInput,
			Message: "portfolio CSV must have a header row",
		}
	}
	if err != nil {
		return nil, readFailure(err)
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	_, hasFees := columns[colFees]
	portfolio := &entities.Portfolio{
		Products:     make([]entities.ProductInput, 0),
		HasFeeColumn: hasFees,
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readFailure(err)
		}
		if isBlank(record) {
			continue
		}

		product := parseProduct(record, columns)
		// the reader skips empty lines, so the line is taken from the reader itself
		product.SourceLine, _ = reader.FieldPos(0)
		portfolio.Products = append(portfolio.Products, product)
		l.log.Debug().Int("line", product.SourceLine).Str("product", string(product.ID)).Msg("Parsed portfolio row")
	}

	return portfolio, nil
}

func readFailure(err error) error {
	return &entities.BatchError{
		Kind:    entities.ErrorKindInvalidInput,
		Message: fmt.Sprintf("failed to read portfolio CSV: %v", err),
	}
}

// mapHeader resolves header cells to column positions
func mapHeader(header []string) (map[column]int, error) {
	columns := make(map[column]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		col, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, dup := columns[col]; dup {
			return nil, &entities.BatchError{
				Kind:    entities.ErrorKindInvalidInput,
				Message: fmt.Sprintf("portfolio CSV header maps %q to a column that is already present", name),
			}
		}
		columns[col] = i
	}

	var missing []string
	for _, col := range []column{colIdentifier, colBuyingPrice, colSellingPrice, colQuantity} {
		if _, ok := columns[col]; !ok {
			missing = append(missing, requiredColumns[col])
		}
	}
	if len(missing) > 0 {
		return nil, &entities.BatchError{
			Kind:    entities.ErrorKindInvalidInput,
			Message: fmt.Sprintf("portfolio CSV header is missing required columns: %s", strings.Join(missing, ", ")),
		}
	}

	return columns, nil
}

// Helper functions for parsing CSV records

func cell(record []string, columns map[column]int, col column) (string, bool) {
	idx, ok := columns[col]
	if !ok || idx >= len(record) {
		return "", false
	}
	value := strings.TrimSpace(record[idx])
	return value, value != ""
}

func isBlank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func parseProduct(record []string, columns map[column]int) entities.ProductInput {
	var product entities.ProductInput

	if id, ok := cell(record, columns, colIdentifier); ok {
		product.ID = entities.ProductID(id)
	}
	if category, ok := cell(record, columns, colCategory); ok {
		product.Category = category
	}

	product.BuyingPrice = parseMoneyCell(&product, record, columns, colBuyingPrice, entities.FieldBuyingPrice)
	product.SellingPrice = parseMoneyCell(&product, record, columns, colSellingPrice, entities.FieldSellingPrice)
	product.FeesAndVATPerUnit = parseMoneyCell(&product, record, columns, colFees, entities.FieldFeesAndVAT)
	product.QuantityOnHand = parseQuantityCell(&product, record, columns, colQuantity, entities.FieldQuantityOnHand)
	product.AnnualVolume = parseQuantityCell(&product, record, columns, colAnnualVolume, entities.FieldAnnualVolume)

	if raw, ok := cell(record, columns, colPurchaseDate); ok {
		if date, err := parseDate(raw); err == nil {
			product.InventoryPurchaseDate = &date
		} else {
			product.MarkInvalid(entities.FieldPurchaseDate, raw)
		}
	}

	product.Dimensions = parseDimensions(record, columns)
	return product
}

func parseMoneyCell(
	product *entities.ProductInput,
	record []string,
	columns map[column]int,
	col column,
	field entities.Field,
) decimal.NullDecimal {
	raw, ok := cell(record, columns, col)
	if !ok {
		return decimal.NullDecimal{}
	}
	value, err := parseDecimal(raw)
	if err != nil {
		product.MarkInvalid(field, raw)
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(value)
}

func parseQuantityCell(
	product *entities.ProductInput,
	record []string,
	columns map[column]int,
	col column,
	field entities.Field,
) entities.NullQuantity {
	raw, ok := cell(record, columns, col)
	if !ok {
		return entities.NullQuantity{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return entities.NewNullQuantity(entities.Quantity(n))
	}
	// spreadsheets often export whole numbers as "12.0"
	value, err := parseDecimal(raw)
	if err != nil || !value.Equal(value.Truncate(0)) {
		product.MarkInvalid(field, raw)
		return entities.NullQuantity{}
	}
	return entities.NewNullQuantity(entities.Quantity(value.IntPart()))
}

// parseDecimal accepts plain numbers, a leading or trailing € sign and a
// decimal comma when no dot is present
func parseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number: %s", raw)
	}
	return value, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", raw)
}

func parseDimensions(record []string, columns map[column]int) *entities.Dimensions {
	var (
		dims  entities.Dimensions
		found bool
	)
	for col, target := range map[column]*decimal.Decimal{
		colWeight: &dims.WeightKg,
		colLength: &dims.LengthCm,
		colWidth:  &dims.WidthCm,
		colHeight: &dims.HeightCm,
	} {
		raw, ok := cell(record, columns, col)
		if !ok {
			continue
		}
		if value, err := parseDecimal(raw); err == nil {
			*target = value
			found = true
		}
	}
	if !found {
		return nil
	}
	return &dims
}
