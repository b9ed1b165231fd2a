package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one link in a document's hash chain. Hash covers a canonical
// serialization of (action, actor, details, doc id, prev hash, timestamp);
// PrevHash references the preceding entry's Hash, or the genesis constant
// for the first entry of a chain. Entries are never updated or deleted.
type AuditEntry struct {
	ID        uuid.UUID
	DocID     uuid.UUID
	Seq       int64
	Action    string
	Actor     string
	Details   map[string]any
	PrevHash  string
	Hash      string
	CreatedAt time.Time
}

// AuditRepository is append-only storage for audit entries. LastByDoc
// returns ErrNotFound for a document with no entries yet.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	LastByDoc(ctx context.Context, docID uuid.UUID) (*AuditEntry, error)
	ListByDoc(ctx context.Context, docID uuid.UUID) ([]*AuditEntry, error)
}
