package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/cortex/internal/domain"
)

type CreateRuleInput struct {
	Body struct {
		Name        string             `json:"name" minLength:"1" maxLength:"200" doc:"Rule name"`
		ProcessType string             `json:"process_type" minLength:"1" maxLength:"100" doc:"Request kind the rule applies to"`
		Conditions  []domain.Condition `json:"conditions" minItems:"1" doc:"All conditions must hold for the rule to fire"`
		Action      domain.Action      `json:"action" doc:"Applied when the rule fires"`
	}
}

type CreateRuleOutput struct {
	Body *domain.Rule
}

type ListRulesInput struct {
	ProcessType string `query:"process_type" doc:"Filter by request kind"`
	ActiveOnly  bool   `query:"active" doc:"Only return active rules"`
}

type ListRulesOutput struct {
	Body []*domain.Rule
}

type GetRuleInput struct {
	ID uuid.UUID `path:"id" doc:"Rule ID"`
}

type GetRuleOutput struct {
	Body *domain.Rule
}

type DeactivateRuleInput struct {
	ID uuid.UUID `path:"id" doc:"Rule ID"`
}

type DeactivateRuleOutput struct {
	Body struct {
		Deactivated bool `json:"deactivated"`
	}
}

// RegisterRuleRoutes wires rule administration. Rules are data, authored
// here and evaluated by the engine; there is no delete, only deactivation,
// so every past decision stays explainable against the rule that made it.
func RegisterRuleRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-rule",
		Method:      http.MethodPost,
		Path:        "/rules",
		Summary:     "Create an eligibility rule",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *CreateRuleInput) (*CreateRuleOutput, error) {
		for i, c := range input.Body.Conditions {
			if !c.Operator.Valid() {
				return nil, huma.Error422UnprocessableEntity(
					fmt.Sprintf("condition %d: unknown operator %q", i, c.Operator))
			}
			if c.Fact == "" {
				return nil, huma.Error422UnprocessableEntity(
					fmt.Sprintf("condition %d: empty fact name", i))
			}
		}
		if input.Body.Action.Severity.Rank() == 0 {
			return nil, huma.Error422UnprocessableEntity(
				fmt.Sprintf("unknown action severity %q", input.Body.Action.Severity))
		}

		now := time.Now().UTC()
		rule := &domain.Rule{
			ID:          uuid.New(),
			Name:        input.Body.Name,
			ProcessType: input.Body.ProcessType,
			Active:      true,
			Conditions:  input.Body.Conditions,
			Action:      input.Body.Action,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Rules().Create(ctx, rule); err != nil {
			return nil, huma.Error500InternalServerError("failed to create rule")
		}

		return &CreateRuleOutput{Body: rule}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rules",
		Method:      http.MethodGet,
		Path:        "/rules",
		Summary:     "List eligibility rules",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *ListRulesInput) (*ListRulesOutput, error) {
		rules, err := store.Rules().List(ctx, input.ProcessType, input.ActiveOnly)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list rules")
		}

		return &ListRulesOutput{Body: rules}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-rule",
		Method:      http.MethodGet,
		Path:        "/rules/{id}",
		Summary:     "Get an eligibility rule",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *GetRuleInput) (*GetRuleOutput, error) {
		rule, err := store.Rules().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("rule not found")
			}
			return nil, huma.Error500InternalServerError("failed to load rule")
		}

		return &GetRuleOutput{Body: rule}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "deactivate-rule",
		Method:      http.MethodPost,
		Path:        "/rules/{id}/deactivate",
		Summary:     "Deactivate an eligibility rule",
		Tags:        []string{"Rules"},
	}, func(ctx context.Context, input *DeactivateRuleInput) (*DeactivateRuleOutput, error) {
		if err := store.Rules().Deactivate(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("rule not found")
			}
			return nil, huma.Error500InternalServerError("failed to deactivate rule")
		}

		out := &DeactivateRuleOutput{}
		out.Body.Deactivated = true
		return out, nil
	})
}
