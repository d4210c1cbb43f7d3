package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/sellerscope/pkg/application/services/findings"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/repositories"
	"github.com/vsinha/sellerscope/pkg/domain/services/fees"
)

// AnalysisOrchestrator coordinates portfolio loading, fee resolution and the findings aggregator
type AnalysisOrchestrator struct {
	portfolioRepo repositories.PortfolioRepository
	feeResolver   *fees.Resolver
	aggregator    *findings.Aggregator
	log           zerolog.Logger
}

// NewAnalysisOrchestrator creates a new analysis orchestrator
func NewAnalysisOrchestrator(
	portfolioRepo repositories.PortfolioRepository,
	feeResolver *fees.Resolver,
	aggregator *findings.Aggregator,
	log zerolog.Logger,
) *AnalysisOrchestrator {
	return &AnalysisOrchestrator{
		portfolioRepo: portfolioRepo,
		feeResolver:   feeResolver,
		aggregator:    aggregator,
		log:           log.With().Str("component", "analysis_orchestrator").Logger(),
	}
}

// AnalysisRequest describes one evaluation
type AnalysisRequest struct {
	AsOf    time.Time
	Country string
	Config  entities.AnalysisConfig
}

// AnalyzeFile loads a portfolio file and evaluates it
func (o *AnalysisOrchestrator) AnalyzeFile(
	ctx context.Context,
	filename string,
	req AnalysisRequest,
) (*entities.FindingsResult, error) {
	if o.portfolioRepo == nil {
		return nil, fmt.Errorf("no portfolio repository configured")
	}

	portfolio, err := o.portfolioRepo.LoadPortfolio(filename)
	if err != nil {
		result := entities.NewFindingsResult()
		var batchErr *entities.BatchError
		if errors.As(err, &batchErr) {
			result.BatchError = batchErr
			return result, batchErr
		}
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	o.log.Info().
		Str("file", filename).
		Int("products", len(portfolio.Products)).
		Bool("fees_supplied", portfolio.HasFeeColumn).
		Msg("Portfolio loaded")

	return o.Analyze(ctx, portfolio.Products, req)
}

// Analyze resolves missing fees and runs the aggregator
func (o *AnalysisOrchestrator) Analyze(
	ctx context.Context,
	products []entities.ProductInput,
	req AnalysisRequest,
) (*entities.FindingsResult, error) {
	return o.aggregator.Run(ctx, o.ResolveFees(products, req.Country), req.AsOf, req.Config)
}

// ResolveFees returns a copy of products in which every absent fee/VAT figure
// is filled from the fee schedule. Supplied or unparsable values are kept as
// they are, and the input slice is not modified.
func (o *AnalysisOrchestrator) ResolveFees(products []entities.ProductInput, country string) []entities.ProductInput {
	if products == nil || o.feeResolver == nil {
		return products
	}

	resolved := make([]entities.ProductInput, len(products))
	copy(resolved, products)

	var categoryFallbacks, countryFallbacks int
	for i := range resolved {
		p := &resolved[i]
		if p.FeesAndVATPerUnit.Valid || p.IsInvalid(entities.FieldFeesAndVAT) {
			continue
		}
		if err := p.Validate(entities.FieldSellingPrice); err != nil {
			continue
		}

		res := o.feeResolver.ResolvePerUnit(p.SellingPrice.Decimal, p.Category, country)
		p.FeesAndVATPerUnit.Decimal = res.Total()
		p.FeesAndVATPerUnit.Valid = true

		if res.CategoryDefaulted {
			categoryFallbacks++
		}
		if res.CountryDefaulted {
			countryFallbacks++
		}
	}

	if categoryFallbacks > 0 || countryFallbacks > 0 {
		o.log.Debug().
			Int("category_fallbacks", categoryFallbacks).
			Int("country_fallbacks", countryFallbacks).
			Str("country", country).
			Msg("Used default fee or VAT rates")
	}

	return resolved
}
