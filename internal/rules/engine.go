// Package rules implements the deterministic eligibility engine: a pure
// function from (facts, rules) to a verdict. No I/O, no hidden state; the
// verdict is hashed into the audit chain, so identical inputs must always
// produce identical output.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gosuda/cortex/internal/domain"
)

const defaultRationale = "no active rule raised an objection"

// Evaluate applies every active matching rule to the fact set and aggregates
// fired actions into one verdict.
//
// Aggregation policy: rules are evaluated in ascending ID order; the highest
// severity among fired rules wins (reject > review > approve) and the first
// fired rule of that severity supplies the rationale. Review-severity rules
// annotate the verdict via ReviewNotes but do not block approval. No fired
// rule means approved with no objections.
//
// A malformed rule (unknown operator, no conditions) is skipped and reported
// in the trace, never fatal to the batch.
//
// The store pre-filters rules by process type; the engine re-checks against
// the process_type fact so a mis-scoped rule can never fire.
func Evaluate(facts domain.Facts, rs []*domain.Rule) domain.Verdict {
	ordered := make([]*domain.Rule, len(rs))
	copy(ordered, rs)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID.String() < ordered[j].ID.String()
	})

	processType, _ := facts["process_type"].(string)

	verdict := domain.Verdict{
		Status:    domain.VerdictApproved,
		Rationale: defaultRationale,
	}

	// bestRank tracks the highest severity fired so far; a strict comparison
	// means the first fired rule of the winning severity supplies the
	// rationale.
	bestRank := 0

	for _, r := range ordered {
		if !r.Active {
			continue
		}
		if r.ProcessType != "" && processType != "" && r.ProcessType != processType {
			continue
		}

		if reason := malformed(r); reason != "" {
			verdict.Trace = append(verdict.Trace, domain.RuleResult{
				RuleID:   r.ID,
				RuleName: r.Name,
				Skipped:  true,
				Message:  reason,
			})
			continue
		}

		fired := true
		for _, c := range r.Conditions {
			if !evalCondition(facts, c) {
				fired = false
				break
			}
		}

		result := domain.RuleResult{RuleID: r.ID, RuleName: r.Name, Fired: fired}
		if fired {
			result.Message = r.Action.Message

			if r.Action.Severity == domain.SeverityReview {
				verdict.ReviewNotes = append(verdict.ReviewNotes, r.Action.Message)
			}

			if rank := r.Action.Severity.Rank(); rank > bestRank {
				bestRank = rank
				verdict.Rationale = r.Action.Message
			}
		}
		verdict.Trace = append(verdict.Trace, result)
	}

	if bestRank == domain.SeverityReject.Rank() {
		verdict.Status = domain.VerdictRejected
	}

	return verdict
}

func malformed(r *domain.Rule) string {
	if len(r.Conditions) == 0 {
		return "rule has no conditions"
	}
	for _, c := range r.Conditions {
		if c.Fact == "" {
			return "condition has empty fact name"
		}
		if !c.Operator.Valid() {
			return fmt.Sprintf("unknown operator %q", c.Operator)
		}
	}
	if r.Action.Severity.Rank() == 0 {
		return fmt.Sprintf("unknown action severity %q", r.Action.Severity)
	}
	return ""
}

// evalCondition fails closed: a missing fact or an incomparable value pair
// makes the condition false.
func evalCondition(facts domain.Facts, c domain.Condition) bool {
	fact, ok := facts[c.Fact]
	if !ok || fact == nil {
		return false
	}

	switch c.Operator {
	case domain.OpGT, domain.OpLT, domain.OpGTE, domain.OpLTE:
		a, aok := toNumber(fact)
		b, bok := toNumber(c.Value)
		if !aok || !bok {
			return false
		}
		switch c.Operator {
		case domain.OpGT:
			return a > b
		case domain.OpLT:
			return a < b
		case domain.OpGTE:
			return a >= b
		default:
			return a <= b
		}
	case domain.OpEQ, domain.OpNEQ:
		eq := looseEqual(fact, c.Value)
		if c.Operator == domain.OpNEQ {
			return !eq
		}
		return eq
	case domain.OpContains:
		return strings.Contains(
			strings.ToLower(toString(fact)),
			strings.ToLower(toString(c.Value)),
		)
	default:
		return false
	}
}

// looseEqual compares numerically when both sides are numeric, otherwise as
// strings. "30" == 30 holds, which matters because extracted field values
// arrive as strings.
func looseEqual(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	return toString(a) == toString(b)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return fmt.Sprintf("%v", s)
	}
}
