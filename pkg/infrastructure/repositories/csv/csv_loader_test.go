package csv

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

func newTestLoader() *Loader {
	return NewLoader(zerolog.Nop())
}

func TestLoader_ReadPortfolio(t *testing.T) {
	data := `ASIN,Cost,Selling_Price,Quantity,Annual_Volume,Category,Inventory_Purchase_Date,Fees_And_VAT,Weight_Kg
B00001,10.00,29.99,100,250,electronics,2024-01-15,6.50,0.4
B00002,"12,50",€24.00,40,,toys,,,

B00003,abc,19.99,12.0,80,books,15/13/2024,3,
`
	portfolio, err := newTestLoader().ReadPortfolio(strings.NewReader(data))
	require.NoError(t, err)
	require.True(t, portfolio.HasFeeColumn)
	require.Len(t, portfolio.Products, 3)

	first := portfolio.Products[0]
	assert.Equal(t, entities.ProductID("B00001"), first.ID)
	assert.Equal(t, "electronics", first.Category)
	assert.Equal(t, "29.99", first.SellingPrice.Decimal.String())
	assert.Equal(t, entities.NewNullQuantity(100), first.QuantityOnHand)
	assert.Equal(t, entities.NewNullQuantity(250), first.AnnualVolume)
	assert.Equal(t, "6.5", first.FeesAndVATPerUnit.Decimal.String())
	require.NotNil(t, first.InventoryPurchaseDate)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *first.InventoryPurchaseDate)
	require.NotNil(t, first.Dimensions)
	assert.Equal(t, "0.4", first.Dimensions.WeightKg.String())
	assert.NoError(t, first.Validate(entities.FieldSellingPrice, entities.FieldBuyingPrice, entities.FieldFeesAndVAT))

	second := portfolio.Products[1]
	assert.Equal(t, "12.5", second.BuyingPrice.Decimal.String())
	assert.Equal(t, "24", second.SellingPrice.Decimal.String())
	assert.False(t, second.AnnualVolume.Valid)
	assert.False(t, second.FeesAndVATPerUnit.Valid)
	assert.Nil(t, second.InventoryPurchaseDate)
	assert.Nil(t, second.Dimensions)
	assert.False(t, second.IsInvalid(entities.FieldFeesAndVAT))

	third := portfolio.Products[2]
	assert.Equal(t, entities.NewNullQuantity(12), third.QuantityOnHand)
	assert.True(t, third.IsInvalid(entities.FieldBuyingPrice))
	err = third.Validate(entities.FieldBuyingPrice)
	require.Error(t, err)
	assert.Equal(t, `buying_price is not a valid value: "abc"`, err.Error())
	err = third.Validate(entities.FieldPurchaseDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory_purchase_date")

	// the empty line 4 is not a product but still counts as a file line
	assert.Equal(t, 2, first.SourceLine)
	assert.Equal(t, 3, second.SourceLine)
	assert.Equal(t, 5, third.SourceLine)
}

func TestLoader_ReadPortfolio_SourceLines(t *testing.T) {
	data := "asin,cost,selling_price,quantity\n" +
		",,,\n" +
		"B00001,1,2,3\n" +
		"\n" +
		"\"B00\n002\",1,2,3\n" +
		"B00003,1,2,3\n"

	portfolio, err := newTestLoader().ReadPortfolio(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, portfolio.Products, 3)

	testCases := []struct {
		index    int
		expected int
	}{
		{0, 3},
		{1, 5}, // quoted identifier spans lines 5 and 6
		{2, 7},
	}
	for _, tc := range testCases {
		if got := portfolio.Products[tc.index].SourceLine; got != tc.expected {
			t.Errorf("Expected product %d on line %d, got %d", tc.index, tc.expected, got)
		}
	}
}

func TestLoader_ReadPortfolio_HeaderErrors(t *testing.T) {
	testCases := []struct {
		name        string
		data        string
		expectError string
	}{
		{"empty file", "", "portfolio CSV must have a header row"},
		{"missing columns", "sku,price\nA,10\n", "portfolio CSV header is missing required columns: cost, quantity"},
		{"ambiguous identifier", "asin,sku,cost,selling_price,quantity\n", `portfolio CSV header maps "sku" to a column that is already present`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestLoader().ReadPortfolio(strings.NewReader(tc.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, entities.ErrInvalidInput))

			var batchErr *entities.BatchError
			require.True(t, errors.As(err, &batchErr))
			assert.Equal(t, tc.expectError, batchErr.Message)
		})
	}
}

func TestLoader_ReadPortfolio_NoFeeColumn(t *testing.T) {
	portfolio, err := newTestLoader().ReadPortfolio(strings.NewReader("sku,cost,price,quantity\nA,1,2,3\n"))
	require.NoError(t, err)
	assert.False(t, portfolio.HasFeeColumn)
	require.Len(t, portfolio.Products, 1)
	assert.False(t, portfolio.Products[0].FeesAndVATPerUnit.Valid)
}

func TestLoader_LoadPortfolio_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte("identifier,cost,selling_price,quantity\nP1,5,9,10\n"), 0644))

	portfolio, err := newTestLoader().LoadPortfolio(path)
	require.NoError(t, err)
	require.Len(t, portfolio.Products, 1)
	assert.Equal(t, entities.ProductID("P1"), portfolio.Products[0].ID)

	_, err = newTestLoader().LoadPortfolio(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
