package findings

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/vsinha/sellerscope/pkg/application/services/testing"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(zerolog.Nop(), AggregatorConfig{Workers: 4})
}

func TestAggregator_Run_MixedPortfolio(t *testing.T) {
	result, err := newTestAggregator().Run(
		context.Background(),
		testhelpers.BuildMixedPortfolio(),
		testhelpers.ReferenceDate,
		testhelpers.TestConfig(),
	)
	require.NoError(t, err)
	require.Empty(t, result.RowErrors)

	type expectedFinding struct {
		product string
		engine  entities.Engine
		savings string
	}
	expected := []expectedFinding{
		{"B00BULK004", entities.DeadInventory, "1920"},
		{"B00SLOW005", entities.SlowVelocity, "660"},
		{"B00DEAD001", entities.DeadInventory, "80"},
		{"B00DEAD001", entities.SlowVelocity, "70"},
		{"B00THIN002", entities.LowMargin, "720"},
	}

	require.Len(t, result.Findings, len(expected))
	for i, want := range expected {
		got := result.Findings[i]
		assert.Equal(t, entities.ProductID(want.product), got.ProductID, "finding %d", i)
		assert.Equal(t, want.engine, got.SourceEngine, "finding %d", i)
		assert.True(t, got.Impact.AnnualSavingsEUR.Equal(testhelpers.Dec(want.savings)),
			"finding %d: expected savings %s, got %s", i, want.savings, got.Impact.AnnualSavingsEUR)
	}

	summary := result.Summary
	assert.Equal(t, 5, summary.TotalFindings)
	assert.True(t, summary.TotalAnnualOpportunityEUR.Equal(testhelpers.Dec("3450")),
		"Expected total 3450, got %s", summary.TotalAnnualOpportunityEUR)
	assert.Equal(t, map[entities.Priority]int{entities.High: 2, entities.Medium: 0, entities.Low: 3}, summary.CountsByPriority)
	assert.Equal(t, map[entities.Engine]int{entities.DeadInventory: 2, entities.LowMargin: 1, entities.SlowVelocity: 2}, summary.CountsByEngine)
	assert.Equal(t, 5, summary.ProductsEvaluated)
	assert.Equal(t, 0, summary.ProductsSkipped)
	assert.False(t, summary.Aborted)
}

func TestAggregator_Run_Deterministic(t *testing.T) {
	aggregator := newTestAggregator()
	products := testhelpers.BuildMixedPortfolio()

	first, err := aggregator.Run(context.Background(), products, testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.NoError(t, err)
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)

	// reversed input and a single worker must not change the output
	reversed := make([]entities.ProductInput, len(products))
	for i := range products {
		reversed[len(products)-1-i] = products[i]
	}
	serial := NewAggregator(zerolog.Nop(), AggregatorConfig{Workers: 1})

	for i := 0; i < 5; i++ {
		again, err := aggregator.Run(context.Background(), products, testhelpers.ReferenceDate, testhelpers.TestConfig())
		require.NoError(t, err)
		againJSON, err := json.Marshal(again)
		require.NoError(t, err)
		assert.JSONEq(t, string(firstJSON), string(againJSON))
		assert.Equal(t, firstJSON, againJSON)
	}

	fromReversed, err := serial.Run(context.Background(), reversed, testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.Equal(t, first.Findings, fromReversed.Findings)
}

func TestAggregator_Run_ResultProperties(t *testing.T) {
	result, err := newTestAggregator().Run(
		context.Background(),
		testhelpers.BuildMixedPortfolio(),
		testhelpers.ReferenceDate,
		entities.DefaultAnalysisConfig(),
	)
	require.NoError(t, err)
	require.NotEmpty(t, result.Findings)

	sum := decimal.Zero
	for _, f := range result.Findings {
		assert.False(t, f.Impact.AnnualSavingsEUR.IsNegative(), "negative savings on %s", f.ProductID)
		assert.Equal(t, f.Priority, entities.PriorityForScore(f.PriorityScore), "band mismatch on %s", f.ProductID)
		sum = sum.Add(f.Impact.AnnualSavingsEUR)
	}
	assert.True(t, sum.Equal(result.Summary.TotalAnnualOpportunityEUR))

	for i := 1; i < len(result.Findings); i++ {
		assert.LessOrEqual(t, compareFindings(result.Findings[i-1], result.Findings[i]), 0)
	}
}

func TestAggregator_Run_DuplicateProducts(t *testing.T) {
	ref := testhelpers.ReferenceDate
	products := []entities.ProductInput{
		testhelpers.MustCreateProduct("B00DUP", "30", "10", 100, 50, "5", testhelpers.DaysBefore(ref, 200)),
		testhelpers.MustCreateProduct("B00OTHER", "40", "15", 20, 500, "8", nil),
		// same identifier, different numbers: ignored
		testhelpers.MustCreateProduct("B00DUP", "30", "10", 900, 50, "5", testhelpers.DaysBefore(ref, 400)),
	}

	result, err := newTestAggregator().Run(context.Background(), products, ref, testhelpers.TestConfig())
	require.NoError(t, err)

	require.Len(t, result.RowErrors, 1)
	rowErr := result.RowErrors[0]
	assert.Equal(t, entities.ErrorKindDuplicateProduct, rowErr.Kind)
	assert.Equal(t, "B00DUP", rowErr.ProductRef)
	assert.Equal(t, 2, rowErr.RowIndex)

	// the first occurrence's dead inventory and slow velocity findings survive
	require.Len(t, result.Findings, 2)
	for _, f := range result.Findings {
		assert.Equal(t, entities.ProductID("B00DUP"), f.ProductID)
	}
	assert.True(t, result.Findings[0].Impact.AnnualSavingsEUR.Equal(testhelpers.Dec("80")))
	assert.Equal(t, 2, result.Summary.ProductsEvaluated)
	assert.Equal(t, 1, result.Summary.ProductsSkipped)
}

func TestAggregator_Run_RowErrorsDoNotAbortBatch(t *testing.T) {
	ref := testhelpers.ReferenceDate

	missingFees := testhelpers.MustCreateProduct("B00NOFEE", "48", "20", 100, 50, "0", testhelpers.DaysBefore(ref, 200))
	missingFees.FeesAndVATPerUnit = decimal.NullDecimal{}

	negativeQty := testhelpers.MustCreateProduct("B00NEG", "48", "20", 10, 400, "25", nil)
	negativeQty.QuantityOnHand.Quantity = -4

	anonymous := testhelpers.MustCreateProduct("X", "48", "20", 10, 400, "25", nil)
	anonymous.ID = ""

	products := []entities.ProductInput{missingFees, negativeQty, anonymous}

	result, err := newTestAggregator().Run(context.Background(), products, ref, testhelpers.TestConfig())
	require.NoError(t, err)

	// B00NOFEE: dead inventory and slow velocity still run; low margin is skipped
	engines := map[entities.Engine]bool{}
	for _, f := range result.Findings {
		if f.ProductID == "B00NOFEE" {
			engines[f.SourceEngine] = true
		}
	}
	assert.Equal(t, map[entities.Engine]bool{entities.DeadInventory: true, entities.SlowVelocity: true}, engines)

	// B00NEG: low margin still runs; slow velocity fails validation
	var negLowMargin bool
	for _, f := range result.Findings {
		if f.ProductID == "B00NEG" && f.SourceEngine == entities.LowMargin {
			negLowMargin = true
		}
	}
	assert.True(t, negLowMargin)

	require.Len(t, result.RowErrors, 3)
	assert.Equal(t, entities.RowError{
		ProductRef: "B00NOFEE",
		RowIndex:   0,
		Engine:     "LowMargin",
		Kind:       entities.ErrorKindValidation,
		Message:    "fees_and_vat_per_unit is required",
	}, result.RowErrors[0])
	assert.Equal(t, "B00NEG", result.RowErrors[1].ProductRef)
	assert.Equal(t, "SlowVelocity", result.RowErrors[1].Engine)
	assert.Equal(t, "quantity_on_hand cannot be negative, got -4", result.RowErrors[1].Message)
	assert.Equal(t, "#2", result.RowErrors[2].ProductRef)
	assert.Equal(t, entities.ErrorKindValidation, result.RowErrors[2].Kind)

	assert.Equal(t, 2, result.Summary.ProductsEvaluated)
	assert.Equal(t, 1, result.Summary.ProductsSkipped)
}

func TestAggregator_Run_GuardedDivision(t *testing.T) {
	products := []entities.ProductInput{
		testhelpers.MustCreateProduct("B00NOSALES", "30", "10", 5, 0, "5", nil),
		testhelpers.MustCreateProduct("B00FREE", "0", "10", 5, 10, "0", nil),
	}

	result, err := newTestAggregator().Run(context.Background(), products, testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.Empty(t, result.RowErrors)

	for _, f := range result.Findings {
		assert.NotEqual(t, entities.ProductID("B00NOSALES"), f.ProductID, "no finding expected for product without sales")
		assert.NotEqual(t, entities.LowMargin, f.SourceEngine, "zero selling price must not raise a low margin finding")
	}
}

func TestAggregator_Run_InvalidInput(t *testing.T) {
	result, err := newTestAggregator().Run(context.Background(), nil, testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrInvalidInput))

	require.NotNil(t, result)
	assert.Empty(t, result.Findings)
	assert.Empty(t, result.RowErrors)
	require.NotNil(t, result.BatchError)
	assert.Equal(t, entities.ErrorKindInvalidInput, result.BatchError.Kind)
	assert.True(t, result.Summary.TotalAnnualOpportunityEUR.IsZero())
}

func TestAggregator_Run_InvalidConfig(t *testing.T) {
	cfg := testhelpers.TestConfig()
	cfg.TargetTurnoverRatio = decimal.Zero

	result, err := newTestAggregator().Run(context.Background(), testhelpers.BuildMixedPortfolio(), testhelpers.ReferenceDate, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrInvalidInput))
	assert.Empty(t, result.Findings)
}

func TestAggregator_Run_EmptyPortfolio(t *testing.T) {
	result, err := newTestAggregator().Run(context.Background(), []entities.ProductInput{}, testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, 0, result.Summary.TotalFindings)
	assert.Nil(t, result.BatchError)
}

func TestAggregator_Run_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestAggregator().Run(ctx, testhelpers.BuildMixedPortfolio(), testhelpers.ReferenceDate, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.True(t, result.Summary.Aborted)
	assert.Equal(t, 0, result.Summary.ProductsEvaluated)
	assert.Empty(t, result.Findings)
}

func TestAggregator_Run_CancelledMidRun(t *testing.T) {
	ref := testhelpers.ReferenceDate
	products := make([]entities.ProductInput, 0, 20)
	for i := 0; i < 20; i++ {
		id := "B" + decimal.NewFromInt(int64(200000+i)).String()
		products = append(products, testhelpers.MustCreateProduct(id, "30", "10", 100, 50, "5", testhelpers.DaysBefore(ref, 100)))
	}
	products[1].SellingPrice = decimal.NullDecimal{}
	products[1].MarkInvalid(entities.FieldSellingPrice, "n/a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the second product's detector failures cancel the run while it is in flight
	log := zerolog.New(io.Discard).Level(zerolog.DebugLevel).Hook(
		zerolog.HookFunc(func(_ *zerolog.Event, _ zerolog.Level, msg string) {
			if msg == "Skipping detector for product" {
				cancel()
			}
		}),
	)
	aggregator := NewAggregator(log, AggregatorConfig{Workers: 1})

	result, err := aggregator.Run(ctx, products, ref, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.True(t, result.Summary.Aborted)

	// one worker: at most the product queued behind the failing one gets through
	counted := result.Summary.ProductsEvaluated + result.Summary.ProductsSkipped
	assert.GreaterOrEqual(t, counted, 2)
	assert.LessOrEqual(t, counted, 3)

	var first []entities.Engine
	for _, f := range result.Findings {
		if f.ProductID == products[0].ID {
			first = append(first, f.SourceEngine)
		}
	}
	assert.ElementsMatch(t, []entities.Engine{entities.DeadInventory, entities.SlowVelocity}, first)

	require.NotEmpty(t, result.RowErrors)
	for _, rowErr := range result.RowErrors {
		assert.Equal(t, 1, rowErr.RowIndex)
	}
}

func TestAggregator_Run_LargeBatch(t *testing.T) {
	ref := testhelpers.ReferenceDate
	products := make([]entities.ProductInput, 0, 500)
	for i := 0; i < 500; i++ {
		id := "B" + decimal.NewFromInt(int64(100000+i)).String()
		products = append(products, testhelpers.MustCreateProduct(id, "30", "10", 100, 50, "5", testhelpers.DaysBefore(ref, 100+i)))
	}

	result, err := newTestAggregator().Run(context.Background(), products, ref, testhelpers.TestConfig())
	require.NoError(t, err)
	assert.Equal(t, 1000, result.Summary.TotalFindings)
	// 500 × (80 + 70)
	assert.True(t, result.Summary.TotalAnnualOpportunityEUR.Equal(testhelpers.Dec("75000")))
	assert.Equal(t, entities.ProductID("B100000"), result.Findings[0].ProductID)
}
