package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operator is a comparison operator in a rule condition. The wire values are
// the symbols rule authors write in the admin UI.
type Operator string

const (
	OpGT       Operator = ">"
	OpLT       Operator = "<"
	OpGTE      Operator = ">="
	OpLTE      Operator = "<="
	OpEQ       Operator = "=="
	OpNEQ      Operator = "!="
	OpContains Operator = "contains"
)

// Valid reports whether the operator is one the engine knows how to apply.
func (o Operator) Valid() bool {
	switch o {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpNEQ, OpContains:
		return true
	default:
		return false
	}
}

// Severity classifies a rule action. Reject always overrides review, which
// overrides approve, regardless of rule order.
type Severity string

const (
	SeverityApprove Severity = "approve"
	SeverityReview  Severity = "review"
	SeverityReject  Severity = "reject"
)

// Rank orders severities for verdict aggregation. Unknown severities rank
// lowest so a malformed action can never force a rejection.
func (s Severity) Rank() int {
	switch s {
	case SeverityApprove:
		return 1
	case SeverityReview:
		return 2
	case SeverityReject:
		return 3
	default:
		return 0
	}
}

// Condition is one predicate over the fact set. All conditions of a rule
// must hold for the rule to fire. A fact name absent from the fact set makes
// the condition false, never an error.
type Condition struct {
	Fact     string   `json:"fact"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Action is applied when a rule fires.
type Action struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Rule is an externally authored eligibility check. Rules are data, never
// code: conditions are tagged structures evaluated by the engine.
type Rule struct {
	ID          uuid.UUID
	Name        string
	ProcessType string
	Active      bool
	Conditions  []Condition
	Action      Action
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type VerdictStatus string

const (
	VerdictApproved VerdictStatus = "approved"
	VerdictRejected VerdictStatus = "rejected"
)

// RuleResult records how one rule was applied during evaluation.
type RuleResult struct {
	RuleID   uuid.UUID `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Fired    bool      `json:"fired"`
	Skipped  bool      `json:"skipped,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Verdict is the rule engine's output: a status, a human-readable rationale,
// and the full evaluation trace. ReviewNotes carries messages from fired
// review-severity rules; they annotate the verdict without blocking the
// terminal transition.
type Verdict struct {
	Status      VerdictStatus `json:"status"`
	Rationale   string        `json:"rationale"`
	ReviewNotes []string      `json:"review_notes,omitempty"`
	Trace       []RuleResult  `json:"trace,omitempty"`
}

// RuleRepository loads and manages rule configuration. Rules are never
// deleted, only deactivated, so past decisions stay explainable.
type RuleRepository interface {
	Create(ctx context.Context, r *Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	List(ctx context.Context, processType string, activeOnly bool) ([]*Rule, error)
	ListActive(ctx context.Context, processType string) ([]*Rule, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}
