package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	testhelpers "github.com/vsinha/sellerscope/pkg/application/services/testing"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

func testFinding(product string, engine entities.Engine, score float64, savings string) entities.Finding {
	return entities.Finding{
		ID:            entities.FindingID(engine, entities.ProductID(product)),
		SourceEngine:  engine,
		ProductID:     entities.ProductID(product),
		PriorityScore: score,
		Priority:      entities.PriorityForScore(score),
		Impact:        entities.Impact{AnnualSavingsEUR: testhelpers.Dec(savings)},
	}
}

func TestRankFindings(t *testing.T) {
	findings := []entities.Finding{
		testFinding("C", entities.LowMargin, 70, "500"),
		testFinding("B", entities.DeadInventory, 90, "100"),
		testFinding("A", entities.SlowVelocity, 90, "100"),
		testFinding("D", entities.DeadInventory, 90, "250"),
	}

	rankFindings(findings)

	var order []string
	for _, f := range findings {
		order = append(order, string(f.ProductID))
	}
	// score desc, then savings desc, then product asc
	assert.Equal(t, []string{"D", "A", "B", "C"}, order)
}

func TestRankFindings_SameProductTie(t *testing.T) {
	findings := []entities.Finding{
		testFinding("A", entities.SlowVelocity, 40, "80"),
		testFinding("A", entities.DeadInventory, 40, "80"),
	}

	rankFindings(findings)

	assert.Equal(t, entities.DeadInventory, findings[0].SourceEngine)
	assert.Equal(t, entities.SlowVelocity, findings[1].SourceEngine)
}

func TestMerge_DropsRepeatedKeys(t *testing.T) {
	outcomes := []productOutcome{
		{evaluated: true, findings: []entities.Finding{testFinding("A", entities.LowMargin, 10, "5")}},
		{evaluated: true, findings: []entities.Finding{testFinding("A", entities.LowMargin, 20, "9")}},
	}

	findings, rowErrors := merge(outcomes)

	assert.Len(t, findings, 1)
	assert.Equal(t, 10.0, findings[0].PriorityScore)
	assert.Empty(t, rowErrors)
}
