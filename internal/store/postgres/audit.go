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

// AuditRepo is append-only by construction: there is no UPDATE or DELETE
// statement in this file, and the table should carry matching grants.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, e *domain.AuditEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Insert: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, doc_id, seq, action, actor, details, prev_hash, hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.DocID, e.Seq, e.Action, e.Actor, details, e.PrevHash, e.Hash, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Insert: %w", err)
	}

	return nil
}

func (r *AuditRepo) LastByDoc(ctx context.Context, docID uuid.UUID) (*domain.AuditEntry, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, doc_id, seq, action, actor, details, prev_hash, hash, created_at
		 FROM audit_log WHERE doc_id = $1
		 ORDER BY seq DESC
		 LIMIT 1`,
		docID,
	)

	entry, err := scanAuditEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("auditRepo.LastByDoc: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("auditRepo.LastByDoc: %w", err)
	}

	return entry, nil
}

func (r *AuditRepo) ListByDoc(ctx context.Context, docID uuid.UUID) ([]*domain.AuditEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, doc_id, seq, action, actor, details, prev_hash, hash, created_at
		 FROM audit_log WHERE doc_id = $1
		 ORDER BY seq`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByDoc: %w", err)
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		entry, scanErr := scanAuditEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("auditRepo.ListByDoc: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auditRepo.ListByDoc: rows: %w", err)
	}

	return entries, nil
}

func scanAuditEntry(row pgx.Row) (*domain.AuditEntry, error) {
	var (
		e       domain.AuditEntry
		details []byte
	)

	if err := row.Scan(
		&e.ID, &e.DocID, &e.Seq, &e.Action, &e.Actor,
		&details, &e.PrevHash, &e.Hash, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if details != nil {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}

	return &e, nil
}
