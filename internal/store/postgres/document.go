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

type DocumentRepo struct {
	pool *pgxpool.Pool
}

func NewDocumentRepo(pool *pgxpool.Pool) *DocumentRepo {
	return &DocumentRepo{pool: pool}
}

func (r *DocumentRepo) Create(ctx context.Context, d *domain.DocumentRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO documents (id, status, process_type, category, file_name, file_url, mime_type, submitted_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.Status, d.ProcessType, d.Category, d.FileName, d.FileURL,
		d.MimeType, d.SubmittedBy, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}

	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, status, process_type, category, file_name, file_url, mime_type, submitted_by,
		        extracted_fields, enriched_data, verdict, failure_reason, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}

	return doc, nil
}

func (r *DocumentRepo) List(ctx context.Context, limit, offset int) ([]*domain.DocumentRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, status, process_type, category, file_name, file_url, mime_type, submitted_by,
		        extracted_fields, enriched_data, verdict, failure_reason, created_at, updated_at
		 FROM documents
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.List: %w", err)
	}
	defer rows.Close()

	var docs []*domain.DocumentRecord
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("documentRepo.List: %w", scanErr)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("documentRepo.List: rows: %w", err)
	}

	return docs, nil
}

// UpdateStatus is a compare-and-swap on the stored status. Zero rows
// affected means the record is gone or another delivery got there first;
// both surface as ErrConflict for the caller to treat as a duplicate.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.DocumentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.UpdateStatus: %w", domain.ErrConflict)
	}

	return nil
}

// SetExtracted commits the extraction stage: fields and the status advance
// land in one statement, and the IS NULL guard keeps the field write-once.
func (r *DocumentRepo) SetExtracted(ctx context.Context, id uuid.UUID, fields []domain.ExtractedField, from, to domain.DocumentStatus) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("documentRepo.SetExtracted: marshal: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET extracted_fields = $1, status = $2, updated_at = now()
		 WHERE id = $3 AND status = $4 AND extracted_fields IS NULL`,
		payload, to, id, from,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.SetExtracted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.SetExtracted: %w", domain.ErrConflict)
	}

	return nil
}

func (r *DocumentRepo) SetEnriched(ctx context.Context, id uuid.UUID, data *domain.EnrichedData, from, to domain.DocumentStatus) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("documentRepo.SetEnriched: marshal: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET enriched_data = $1, status = $2, updated_at = now()
		 WHERE id = $3 AND status = $4 AND enriched_data IS NULL`,
		payload, to, id, from,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.SetEnriched: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.SetEnriched: %w", domain.ErrConflict)
	}

	return nil
}

func (r *DocumentRepo) SetVerdict(ctx context.Context, id uuid.UUID, v *domain.Verdict, from, to domain.DocumentStatus) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("documentRepo.SetVerdict: marshal: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET verdict = $1, status = $2, updated_at = now()
		 WHERE id = $3 AND status = $4 AND verdict IS NULL`,
		payload, to, id, from,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.SetVerdict: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.SetVerdict: %w", domain.ErrConflict)
	}

	return nil
}

// SetFailed is terminal from any non-terminal state.
func (r *DocumentRepo) SetFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = $1, failure_reason = $2, updated_at = now()
		 WHERE id = $3 AND status NOT IN ($4, $5, $6)`,
		domain.StatusFailed, reason, id,
		domain.StatusApproved, domain.StatusRejected, domain.StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.SetFailed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.SetFailed: %w", domain.ErrConflict)
	}

	return nil
}

func scanDocument(row pgx.Row) (*domain.DocumentRecord, error) {
	var (
		d             domain.DocumentRecord
		extracted     []byte
		enriched      []byte
		verdict       []byte
		failureReason *string
	)

	if err := row.Scan(
		&d.ID, &d.Status, &d.ProcessType, &d.Category, &d.FileName, &d.FileURL,
		&d.MimeType, &d.SubmittedBy, &extracted, &enriched, &verdict,
		&failureReason, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if extracted != nil {
		if err := json.Unmarshal(extracted, &d.ExtractedFields); err != nil {
			return nil, fmt.Errorf("unmarshal extracted_fields: %w", err)
		}
	}
	if enriched != nil {
		if err := json.Unmarshal(enriched, &d.EnrichedData); err != nil {
			return nil, fmt.Errorf("unmarshal enriched_data: %w", err)
		}
	}
	if verdict != nil {
		if err := json.Unmarshal(verdict, &d.Verdict); err != nil {
			return nil, fmt.Errorf("unmarshal verdict: %w", err)
		}
	}
	if failureReason != nil {
		d.FailureReason = *failureReason
	}

	return &d, nil
}
