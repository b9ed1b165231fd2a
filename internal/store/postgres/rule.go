package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/cortex/internal/domain"
)

type RuleRepo struct {
	pool *pgxpool.Pool
}

func NewRuleRepo(pool *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{pool: pool}
}

func (r *RuleRepo) Create(ctx context.Context, rule *domain.Rule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("ruleRepo.Create: marshal conditions: %w", err)
	}
	action, err := json.Marshal(rule.Action)
	if err != nil {
		return fmt.Errorf("ruleRepo.Create: marshal action: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO rules (id, name, process_type, active, conditions, action, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rule.ID, rule.Name, rule.ProcessType, rule.Active,
		conditions, action, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("ruleRepo.Create: %w", err)
	}

	return nil
}

func (r *RuleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rule, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, process_type, active, conditions, action, created_at, updated_at
		 FROM rules WHERE id = $1`,
		id,
	)

	rule, err := scanRule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ruleRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ruleRepo.GetByID: %w", err)
	}

	return rule, nil
}

func (r *RuleRepo) List(ctx context.Context, processType string, activeOnly bool) ([]*domain.Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, process_type, active, conditions, action, created_at, updated_at
		 FROM rules
		 WHERE ($1 = '' OR process_type = $1) AND (NOT $2 OR active)
		 ORDER BY id
		 LIMIT 1000`,
		processType, activeOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("ruleRepo.List: %w", err)
	}
	defer rows.Close()

	return collectRules(rows, "ruleRepo.List")
}

// ListActive returns the active rules for one process type in ascending ID
// order, the order the engine evaluates in.
func (r *RuleRepo) ListActive(ctx context.Context, processType string) ([]*domain.Rule, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, process_type, active, conditions, action, created_at, updated_at
		 FROM rules WHERE process_type = $1 AND active
		 ORDER BY id
		 LIMIT 1000`,
		processType,
	)
	if err != nil {
		return nil, fmt.Errorf("ruleRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return collectRules(rows, "ruleRepo.ListActive")
}

func (r *RuleRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rules SET active = false, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("ruleRepo.Deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ruleRepo.Deactivate: %w", domain.ErrNotFound)
	}

	return nil
}

func collectRules(rows pgx.Rows, caller string) ([]*domain.Rule, error) {
	var out []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", caller, err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}

func scanRule(row pgx.Row) (*domain.Rule, error) {
	var (
		rule       domain.Rule
		conditions []byte
		action     []byte
	)

	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.ProcessType, &rule.Active,
		&conditions, &action, &rule.CreatedAt, &rule.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(action, &rule.Action); err != nil {
		return nil, fmt.Errorf("unmarshal action: %w", err)
	}

	return &rule, nil
}
