package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/ledger"
)

type ListAuditInput struct {
	ID uuid.UUID `path:"id" doc:"Document ID"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

type VerifyAuditInput struct {
	ID uuid.UUID `path:"id" doc:"Document ID"`
}

type VerifyAuditOutput struct {
	Body struct {
		Valid bool `json:"valid" doc:"Whether the stored hash chain matches recomputation"`
	}
}

// RegisterAuditRoutes exposes the per-document audit chain for display and
// tamper detection. Read-only: the ledger has no mutating endpoints.
func RegisterAuditRoutes(api huma.API, store DataStore, auditLedger *ledger.Ledger) {
	huma.Register(api, huma.Operation{
		OperationID: "list-document-audit",
		Method:      http.MethodGet,
		Path:        "/documents/{id}/audit",
		Summary:     "List a document's audit chain",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		entries, err := store.Audit().ListByDoc(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries")
		}

		return &ListAuditOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "verify-document-audit",
		Method:      http.MethodGet,
		Path:        "/documents/{id}/audit/verify",
		Summary:     "Verify a document's hash chain",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *VerifyAuditInput) (*VerifyAuditOutput, error) {
		valid, err := auditLedger.Verify(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to verify audit chain")
		}

		out := &VerifyAuditOutput{}
		out.Body.Valid = valid
		return out, nil
	})
}
