package workflow

import (
	"strconv"
	"strings"

	"github.com/gosuda/cortex/internal/domain"
)

// BuildFacts flattens a document record into the named value set the rule
// engine evaluates against. Extracted field names are normalized to
// lower_snake_case; numeric-looking values become numbers so rule authors
// can write "days_requested > 30". Enriched personnel data contributes
// role/category/tenure facts, with the caller-declared category taking
// precedence over the personnel system's.
func BuildFacts(doc *domain.DocumentRecord) domain.Facts {
	facts := domain.Facts{
		"process_type": doc.ProcessType,
	}

	if doc.EnrichedData != nil && doc.EnrichedData.Error == "" {
		e := doc.EnrichedData
		if e.Category != "" {
			facts["category"] = e.Category
		}
		if e.Role != "" {
			facts["role"] = e.Role
		}
		if e.Registration != "" {
			facts["registration"] = e.Registration
		}
		if e.FunctionalStatus != "" {
			facts["functional_status"] = e.FunctionalStatus
		}
		facts["tenure_years"] = float64(e.TenureYears)
	}

	for _, f := range doc.ExtractedFields {
		key := normalizeFactName(f.Field)
		if key == "" {
			continue
		}
		facts[key] = coerceValue(f.Value)
	}

	// The declared category wins over both extraction and enrichment; it is
	// immutable on the record and was chosen by the submitter.
	if doc.Category != "" {
		facts["category"] = doc.Category
	}

	return facts
}

func normalizeFactName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return name
}

func coerceValue(v string) any {
	trimmed := strings.TrimSpace(v)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	return trimmed
}
