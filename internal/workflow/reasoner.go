package workflow

import (
	"context"

	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/rules"
)

// Reasoner turns facts and active rules into a verdict. The default
// implementation evaluates locally; an external delegate (an LLM analyst,
// for instance) can be substituted as long as it stays deterministic for
// identical inputs, since the verdict is hashed into the audit chain.
type Reasoner interface {
	Decide(ctx context.Context, facts domain.Facts, rs []*domain.Rule) (domain.Verdict, error)
}

// RuleReasoner computes the verdict with the in-process rule engine.
type RuleReasoner struct{}

func (RuleReasoner) Decide(_ context.Context, facts domain.Facts, rs []*domain.Rule) (domain.Verdict, error) {
	return rules.Evaluate(facts, rs), nil
}
