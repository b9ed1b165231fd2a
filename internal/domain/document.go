package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusUploaded          DocumentStatus = "uploaded"
	StatusExtractionRunning DocumentStatus = "extraction_running"
	StatusEnrichmentPending DocumentStatus = "enrichment_pending"
	StatusValidationPending DocumentStatus = "validation_pending"
	StatusReasoningPending  DocumentStatus = "reasoning_pending"
	StatusApproved          DocumentStatus = "approved"
	StatusRejected          DocumentStatus = "rejected"
	StatusFailed            DocumentStatus = "failed"
)

// Terminal reports whether a document in this status can never move again.
func (s DocumentStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusFailed
}

// Rank orders the pipeline stages for monotonicity checks. Terminal states
// share the highest rank; an unknown status ranks below everything.
func (s DocumentStatus) Rank() int {
	switch s {
	case StatusUploaded:
		return 0
	case StatusExtractionRunning:
		return 1
	case StatusEnrichmentPending:
		return 2
	case StatusValidationPending:
		return 3
	case StatusReasoningPending:
		return 4
	case StatusApproved, StatusRejected, StatusFailed:
		return 5
	default:
		return -1
	}
}

// ValidTransition checks if a document state transition is allowed.
// The pipeline is linear: uploaded -> extraction_running -> enrichment_pending
// -> validation_pending -> reasoning_pending -> approved|rejected. Failed is
// reachable from every non-terminal state and is itself terminal.
func (s DocumentStatus) ValidTransition(to DocumentStatus) bool {
	if to == StatusFailed {
		return !s.Terminal()
	}
	switch s {
	case StatusUploaded:
		return to == StatusExtractionRunning
	case StatusExtractionRunning:
		return to == StatusEnrichmentPending
	case StatusEnrichmentPending:
		return to == StatusValidationPending
	case StatusValidationPending:
		return to == StatusReasoningPending
	case StatusReasoningPending:
		return to == StatusApproved || to == StatusRejected
	default:
		return false
	}
}

// ExtractedField is one named field produced by the extraction stage.
type ExtractedField struct {
	Field      string   `json:"field"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// EnrichedData holds personnel-system data resolved during enrichment.
// A non-empty Error marks a soft failure ("not found", connection error);
// the record still advances to human validation with the marker intact.
type EnrichedData struct {
	Name             string `json:"name,omitempty"`
	Role             string `json:"role,omitempty"`
	Category         string `json:"category,omitempty"`
	Registration     string `json:"registration,omitempty"`
	TenureYears      int    `json:"tenure_years,omitempty"`
	Assignment       string `json:"assignment,omitempty"`
	FunctionalStatus string `json:"functional_status,omitempty"`
	Error            string `json:"error,omitempty"`
}

// DocumentRecord is one workflow instance per submitted request.
// ExtractedFields, EnrichedData and Verdict are each written at most once
// and never mutated afterwards; only Status, FailureReason and UpdatedAt
// change after creation.
type DocumentRecord struct {
	ID              uuid.UUID
	Status          DocumentStatus
	ProcessType     string
	Category        string
	FileName        string
	FileURL         string
	MimeType        string
	SubmittedBy     string
	ExtractedFields []ExtractedField
	EnrichedData    *EnrichedData
	Verdict         *Verdict
	FailureReason   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var ErrInvalidTransition = errors.New("document: invalid state transition")

// DocumentRepository persists workflow instances. Status-changing methods
// take the expected current status and fail with ErrConflict when the stored
// value differs, so duplicate event deliveries become no-ops.
type DocumentRepository interface {
	Create(ctx context.Context, d *DocumentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*DocumentRecord, error)
	List(ctx context.Context, limit, offset int) ([]*DocumentRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to DocumentStatus) error
	SetExtracted(ctx context.Context, id uuid.UUID, fields []ExtractedField, from, to DocumentStatus) error
	SetEnriched(ctx context.Context, id uuid.UUID, data *EnrichedData, from, to DocumentStatus) error
	SetVerdict(ctx context.Context, id uuid.UUID, v *Verdict, from, to DocumentStatus) error
	SetFailed(ctx context.Context, id uuid.UUID, reason string) error
}
