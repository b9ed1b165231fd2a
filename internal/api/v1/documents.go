package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/ledger"
	"github.com/gosuda/cortex/internal/server/middleware"
	"github.com/gosuda/cortex/internal/workflow"
)

type SubmitDocumentInput struct {
	Body struct {
		ProcessType string `json:"process_type" minLength:"1" maxLength:"100" doc:"Request kind, e.g. vacation"`
		Category    string `json:"category,omitempty" maxLength:"100" doc:"Declared staff category"`
		FileName    string `json:"file_name" minLength:"1" maxLength:"500" doc:"Original file name"`
		FileURL     string `json:"file_url" minLength:"1" doc:"Location of the uploaded document"`
		MimeType    string `json:"mime_type,omitempty" maxLength:"100" doc:"Document MIME type"`
	}
}

type SubmitDocumentOutput struct {
	Body *domain.DocumentRecord
}

type GetDocumentInput struct {
	ID uuid.UUID `path:"id" doc:"Document ID"`
}

type GetDocumentOutput struct {
	Body *domain.DocumentRecord
}

type ListDocumentsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset int `query:"offset" minimum:"0" doc:"Page offset"`
}

type ListDocumentsOutput struct {
	Body []*domain.DocumentRecord
}

type ValidateDocumentInput struct {
	ID   uuid.UUID `path:"id" doc:"Document ID"`
	Body struct {
		Notes string `json:"notes,omitempty" maxLength:"2000" doc:"Reviewer notes"`
	}
}

type ValidateDocumentOutput struct {
	Body *domain.DocumentRecord
}

// RegisterDocumentRoutes wires submission, read and human-validation
// endpoints. Submission and validation publish lifecycle events; all stage
// work happens in the workflow controller, never here.
func RegisterDocumentRoutes(api huma.API, store DataStore, pub workflow.Publisher, auditLedger *ledger.Ledger) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-document",
		Method:      http.MethodPost,
		Path:        "/documents",
		Summary:     "Submit a benefit request document",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *SubmitDocumentInput) (*SubmitDocumentOutput, error) {
		actor, _ := middleware.ActorFromContext(ctx)

		now := time.Now().UTC()
		doc := &domain.DocumentRecord{
			ID:          uuid.New(),
			Status:      domain.StatusUploaded,
			ProcessType: input.Body.ProcessType,
			Category:    input.Body.Category,
			FileName:    input.Body.FileName,
			FileURL:     input.Body.FileURL,
			MimeType:    input.Body.MimeType,
			SubmittedBy: actor.String(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Documents().Create(ctx, doc); err != nil {
			return nil, huma.Error500InternalServerError("failed to create document")
		}

		if err := workflow.PublishEvent(ctx, pub, workflow.Event{
			Type:  workflow.EventDocumentCreated,
			DocID: doc.ID,
		}); err != nil {
			return nil, huma.Error500InternalServerError("failed to publish creation event")
		}

		return &SubmitDocumentOutput{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/documents/{id}",
		Summary:     "Get a document record",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *GetDocumentInput) (*GetDocumentOutput, error) {
		doc, err := store.Documents().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to load document")
		}

		return &GetDocumentOutput{Body: doc}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/documents",
		Summary:     "List document records",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *ListDocumentsInput) (*ListDocumentsOutput, error) {
		docs, err := store.Documents().List(ctx, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list documents")
		}

		return &ListDocumentsOutput{Body: docs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-document",
		Method:      http.MethodPost,
		Path:        "/documents/{id}/validate",
		Summary:     "Confirm extracted and enriched data",
		Description: "The human checkpoint: moves a document from validation_pending to reasoning_pending and records who confirmed it.",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *ValidateDocumentInput) (*ValidateDocumentOutput, error) {
		actor, ok := middleware.ActorFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing actor context")
		}

		doc, err := store.Documents().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to load document")
		}

		if doc.Status != domain.StatusValidationPending {
			// An earlier confirmation may have moved the record and then
			// lost its update event; re-publishing here makes a retry
			// restart the reasoning stage instead of stranding the record.
			if doc.Status == domain.StatusReasoningPending {
				if pubErr := workflow.PublishEvent(ctx, pub, workflow.Event{
					Type:  workflow.EventDocumentUpdated,
					DocID: input.ID,
					Prev:  domain.StatusValidationPending,
					Next:  domain.StatusReasoningPending,
				}); pubErr != nil {
					log.Warn().Err(pubErr).Str("doc_id", input.ID.String()).Msg("api: failed to re-publish update event")
				}
			}
			return nil, huma.Error409Conflict("document is not awaiting validation")
		}

		// Recorded before the status moves: a confirmation that cannot be
		// written to the ledger does not advance the pipeline, and a failed
		// write leaves the record still awaiting validation for a retry.
		if _, err := auditLedger.Append(ctx, input.ID, "HUMAN_VALIDATION", actor.String(), map[string]any{
			"notes": input.Body.Notes,
		}); err != nil {
			return nil, huma.Error500InternalServerError("failed to record validation")
		}

		err = store.Documents().UpdateStatus(ctx, input.ID,
			domain.StatusValidationPending, domain.StatusReasoningPending)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("document is not awaiting validation")
			}
			return nil, huma.Error500InternalServerError("failed to update status")
		}

		if err := workflow.PublishEvent(ctx, pub, workflow.Event{
			Type:  workflow.EventDocumentUpdated,
			DocID: input.ID,
			Prev:  domain.StatusValidationPending,
			Next:  domain.StatusReasoningPending,
		}); err != nil {
			return nil, huma.Error500InternalServerError("failed to publish update event")
		}

		doc, err = store.Documents().GetByID(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load document")
		}

		return &ValidateDocumentOutput{Body: doc}, nil
	})
}
