package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/workflow"
)

func TestBuildFacts(t *testing.T) {
	t.Parallel()

	t.Run("extracted fields are normalized and coerced", func(t *testing.T) {
		t.Parallel()

		doc := &domain.DocumentRecord{
			ProcessType: "vacation",
			ExtractedFields: []domain.ExtractedField{
				{Field: "Days Requested", Value: " 20 "},
				{Field: "start-date", Value: "2026-01-05"},
				{Field: "Name", Value: "Maria Souza"},
			},
		}

		facts := workflow.BuildFacts(doc)

		assert.Equal(t, "vacation", facts["process_type"])
		assert.Equal(t, float64(20), facts["days_requested"])
		assert.Equal(t, "2026-01-05", facts["start_date"])
		assert.Equal(t, "Maria Souza", facts["name"])
	})

	t.Run("enrichment contributes personnel facts", func(t *testing.T) {
		t.Parallel()

		doc := &domain.DocumentRecord{
			ProcessType: "vacation",
			EnrichedData: &domain.EnrichedData{
				Role:             "PROFESSOR DE MATEMATICA",
				Category:         "MAGISTERIO",
				Registration:     "123456",
				FunctionalStatus: "ATIVO",
				TenureYears:      8,
			},
		}

		facts := workflow.BuildFacts(doc)

		assert.Equal(t, "MAGISTERIO", facts["category"])
		assert.Equal(t, "PROFESSOR DE MATEMATICA", facts["role"])
		assert.Equal(t, "123456", facts["registration"])
		assert.Equal(t, "ATIVO", facts["functional_status"])
		assert.Equal(t, float64(8), facts["tenure_years"])
	})

	t.Run("failed enrichment contributes nothing", func(t *testing.T) {
		t.Parallel()

		doc := &domain.DocumentRecord{
			ProcessType: "vacation",
			EnrichedData: &domain.EnrichedData{
				Category: "MAGISTERIO",
				Error:    "employee not found",
			},
		}

		facts := workflow.BuildFacts(doc)

		assert.NotContains(t, facts, "category")
		assert.NotContains(t, facts, "tenure_years")
	})

	t.Run("declared category wins", func(t *testing.T) {
		t.Parallel()

		doc := &domain.DocumentRecord{
			ProcessType: "vacation",
			Category:    "ADMINISTRATIVO",
			EnrichedData: &domain.EnrichedData{
				Category: "MAGISTERIO",
			},
			ExtractedFields: []domain.ExtractedField{
				{Field: "category", Value: "OUTRO"},
			},
		}

		facts := workflow.BuildFacts(doc)

		assert.Equal(t, "ADMINISTRATIVO", facts["category"])
	})
}
