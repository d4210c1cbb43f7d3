// Package findings runs the detectors over a portfolio and turns their raw
// output into a ranked, summarized FindingsResult.
package findings

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/sellerscope/pkg/domain/entities"
	"github.com/vsinha/sellerscope/pkg/domain/services/detectors"
)

// AggregatorConfig holds execution settings for the aggregator
type AggregatorConfig struct {
	// Workers bounds concurrent product evaluations (0 = GOMAXPROCS)
	Workers int
}

// Aggregator evaluates every product with every detector and merges the results.
// It keeps no state between runs.
type Aggregator struct {
	detectors []detectors.Detector
	workers   int
	log       zerolog.Logger
}

// NewAggregator creates an aggregator over the full detector set
func NewAggregator(log zerolog.Logger, config AggregatorConfig) *Aggregator {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{
		detectors: detectors.All(),
		workers:   workers,
		log:       log.With().Str("component", "findings_aggregator").Logger(),
	}
}

// productOutcome is the per-product slot filled by exactly one worker
type productOutcome struct {
	evaluated bool
	findings  []entities.Finding
	rowErrors []entities.RowError
}

// Run evaluates products as of asOf under cfg.
//
// Row problems never fail the call; they are returned in RowErrors. A nil
// products slice or an invalid cfg is a batch error: the returned result is
// empty and carries the same *entities.BatchError that is returned.
//
// Cancelling ctx stops new products from being submitted. Products already
// evaluated are kept and the summary is flagged as aborted.
func (a *Aggregator) Run(
	ctx context.Context,
	products []entities.ProductInput,
	asOf time.Time,
	cfg entities.AnalysisConfig,
) (*entities.FindingsResult, error) {
	result := entities.NewFindingsResult()

	if products == nil {
		return batchFailure(result, "products must be a sequence of records, got null")
	}
	if err := cfg.Validate(); err != nil {
		return batchFailure(result, err.Error())
	}

	a.log.Debug().
		Int("products", len(products)).
		Str("as_of", asOf.Format("2006-01-02")).
		Int("workers", a.workers).
		Msg("Evaluating portfolio")

	startTime := time.Now()
	outcomes := make([]productOutcome, len(products))
	duplicateOf := findDuplicates(products)

	g := new(errgroup.Group)
	g.SetLimit(a.workers)

	submitted := 0
	aborted := false
	for i := range products {
		if ctx.Err() != nil {
			aborted = true
			break
		}
		submitted++

		if first, ok := duplicateOf[i]; ok {
			outcomes[i] = duplicateOutcome(&products[i], i, first)
			continue
		}

		i := i // per-iteration copy (go 1.21 loop semantics)
		g.Go(func() error {
			outcomes[i] = a.evaluateProduct(i, &products[i], asOf, cfg)
			return nil
		})
	}

	// barrier: ranking and the summary only see completed evaluations
	_ = g.Wait()

	result.Findings, result.RowErrors = merge(outcomes[:submitted])
	rankFindings(result.Findings)
	result.Summary = buildSummary(result.Findings, outcomes[:submitted], aborted)

	if aborted {
		a.log.Warn().
			Int("submitted", submitted).
			Int("products", len(products)).
			Msg("Evaluation aborted, returning partial results")
	}
	a.log.Debug().
		Int("findings", result.Summary.TotalFindings).
		Int("row_errors", len(result.RowErrors)).
		Str("total_annual_opportunity_eur", result.Summary.TotalAnnualOpportunityEUR.StringFixed(2)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Portfolio evaluated")

	return result, nil
}

func batchFailure(result *entities.FindingsResult, message string) (*entities.FindingsResult, error) {
	batchErr := &entities.BatchError{Kind: entities.ErrorKindInvalidInput, Message: message}
	result.BatchError = batchErr
	return result, batchErr
}

// evaluateProduct runs every detector against one product. A failing detector
// only removes its own finding.
func (a *Aggregator) evaluateProduct(
	index int,
	product *entities.ProductInput,
	asOf time.Time,
	cfg entities.AnalysisConfig,
) productOutcome {
	ref := entities.ProductRef(product.ID, index)

	if err := product.Validate(entities.FieldIdentifier); err != nil {
		return productOutcome{rowErrors: []entities.RowError{{
			ProductRef: ref,
			RowIndex:   index,
			SourceLine: product.SourceLine,
			Kind:       entities.ErrorKindValidation,
			Message:    err.Error(),
		}}}
	}

	outcome := productOutcome{evaluated: true}
	for _, detector := range a.detectors {
		finding, err := detector.Evaluate(product, asOf, cfg)
		if err != nil {
			a.log.Debug().
				Str("product", ref).
				Stringer("engine", detector.Engine()).
				Err(err).
				Msg("Skipping detector for product")
			rowErr := detectorRowError(ref, index, product.SourceLine, detector.Engine(), err)
			outcome.rowErrors = append(outcome.rowErrors, rowErr)
			continue
		}
		if finding != nil {
			outcome.findings = append(outcome.findings, *finding)
		}
	}
	return outcome
}

func detectorRowError(ref string, index, line int, engine entities.Engine, err error) entities.RowError {
	kind := entities.ErrorKindComputation
	var validationErr *entities.ValidationError
	if errors.As(err, &validationErr) {
		kind = entities.ErrorKindValidation
	}
	return entities.RowError{
		ProductRef: ref,
		RowIndex:   index,
		SourceLine: line,
		Engine:     engine.String(),
		Kind:       kind,
		Message:    err.Error(),
	}
}

// findDuplicates maps the index of every repeated identifier to the index of its first occurrence
func findDuplicates(products []entities.ProductInput) map[int]int {
	firstSeen := make(map[entities.ProductID]int, len(products))
	duplicateOf := make(map[int]int)
	for i := range products {
		id := products[i].ID
		if id == "" {
			continue
		}
		if first, ok := firstSeen[id]; ok {
			duplicateOf[i] = first
			continue
		}
		firstSeen[id] = i
	}
	return duplicateOf
}

func duplicateOutcome(product *entities.ProductInput, index, first int) productOutcome {
	return productOutcome{rowErrors: []entities.RowError{{
		ProductRef: string(product.ID),
		RowIndex:   index,
		SourceLine: product.SourceLine,
		Kind:       entities.ErrorKindDuplicateProduct,
		Message:    fmt.Sprintf("product %s already appears at row %d; this occurrence was ignored", product.ID, first),
	}}}
}
