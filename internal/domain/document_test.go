package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/cortex/internal/domain"
)

func TestDocumentStatus_ValidTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from domain.DocumentStatus
		to   domain.DocumentStatus
		want bool
	}{
		{"uploaded to extraction", domain.StatusUploaded, domain.StatusExtractionRunning, true},
		{"extraction to enrichment", domain.StatusExtractionRunning, domain.StatusEnrichmentPending, true},
		{"enrichment to validation", domain.StatusEnrichmentPending, domain.StatusValidationPending, true},
		{"validation to reasoning", domain.StatusValidationPending, domain.StatusReasoningPending, true},
		{"reasoning to approved", domain.StatusReasoningPending, domain.StatusApproved, true},
		{"reasoning to rejected", domain.StatusReasoningPending, domain.StatusRejected, true},

		{"no stage skipping", domain.StatusUploaded, domain.StatusEnrichmentPending, false},
		{"no going backwards", domain.StatusValidationPending, domain.StatusEnrichmentPending, false},
		{"uploaded cannot approve directly", domain.StatusUploaded, domain.StatusApproved, false},
		{"validation cannot approve directly", domain.StatusValidationPending, domain.StatusApproved, false},

		{"uploaded can fail", domain.StatusUploaded, domain.StatusFailed, true},
		{"extraction can fail", domain.StatusExtractionRunning, domain.StatusFailed, true},
		{"reasoning can fail", domain.StatusReasoningPending, domain.StatusFailed, true},

		{"approved is terminal", domain.StatusApproved, domain.StatusFailed, false},
		{"rejected is terminal", domain.StatusRejected, domain.StatusUploaded, false},
		{"failed is terminal", domain.StatusFailed, domain.StatusUploaded, false},
		{"failed cannot re-fail", domain.StatusFailed, domain.StatusFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.ValidTransition(tt.to))
		})
	}
}

func TestDocumentStatus_Terminal(t *testing.T) {
	t.Parallel()

	terminal := []domain.DocumentStatus{
		domain.StatusApproved, domain.StatusRejected, domain.StatusFailed,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "status %s", s)
	}

	active := []domain.DocumentStatus{
		domain.StatusUploaded, domain.StatusExtractionRunning,
		domain.StatusEnrichmentPending, domain.StatusValidationPending,
		domain.StatusReasoningPending,
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), "status %s", s)
	}
}

// Every allowed transition moves strictly forward through the pipeline.
func TestDocumentStatus_TransitionsAreMonotonic(t *testing.T) {
	t.Parallel()

	all := []domain.DocumentStatus{
		domain.StatusUploaded, domain.StatusExtractionRunning,
		domain.StatusEnrichmentPending, domain.StatusValidationPending,
		domain.StatusReasoningPending, domain.StatusApproved,
		domain.StatusRejected, domain.StatusFailed,
	}

	for _, from := range all {
		for _, to := range all {
			if from.ValidTransition(to) {
				assert.Greater(t, to.Rank(), from.Rank(),
					"transition %s -> %s must increase rank", from, to)
			}
		}
	}
}

func TestSeverity_Rank(t *testing.T) {
	t.Parallel()

	assert.Greater(t, domain.SeverityReject.Rank(), domain.SeverityReview.Rank())
	assert.Greater(t, domain.SeverityReview.Rank(), domain.SeverityApprove.Rank())
	assert.Zero(t, domain.Severity("escalate").Rank())
}

func TestOperator_Valid(t *testing.T) {
	t.Parallel()

	valid := []domain.Operator{
		domain.OpGT, domain.OpLT, domain.OpGTE, domain.OpLTE,
		domain.OpEQ, domain.OpNEQ, domain.OpContains,
	}
	for _, op := range valid {
		assert.True(t, op.Valid(), "operator %s", op)
	}

	assert.False(t, domain.Operator("=~").Valid())
	assert.False(t, domain.Operator("").Valid())
}
