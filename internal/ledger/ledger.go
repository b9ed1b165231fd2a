// Package ledger implements the append-only, hash-chained audit trail.
// Every automated decision is appended as an entry whose hash covers the
// previous entry's hash, so retroactive tampering is detectable by a full
// chain walk.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/keylock"
)

// GenesisHash is the fixed previous-hash of the first entry in a chain.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ActionAutoDecision tags the entry written when the reasoning stage
// completes, successfully or not.
const ActionAutoDecision = "AUTO_DECISION"

// ActorSystem identifies the pipeline itself as the acting party.
const ActorSystem = "system"

// Ledger appends and verifies per-document hash chains on top of an
// append-only repository. Appends for the same document are serialized
// internally; without that the read-last-then-insert sequence could fork
// the chain under concurrent deliveries.
type Ledger struct {
	repo  domain.AuditRepository
	locks *keylock.KeyedMutex
}

func New(repo domain.AuditRepository) *Ledger {
	return &Ledger{repo: repo, locks: keylock.New()}
}

// Append records one decision event for docID and returns the stored entry.
func (l *Ledger) Append(ctx context.Context, docID uuid.UUID, action, actor string, details map[string]any) (*domain.AuditEntry, error) {
	unlock := l.locks.Lock(docID)
	defer unlock()

	prevHash := GenesisHash
	var seq int64 = 1

	last, err := l.repo.LastByDoc(ctx, docID)
	switch {
	case err == nil:
		prevHash = last.Hash
		seq = last.Seq + 1
	case errors.Is(err, domain.ErrNotFound):
		// First entry of this document's chain.
	default:
		return nil, fmt.Errorf("ledger.Append: read last: %w", err)
	}

	normalized, err := normalizeDetails(details)
	if err != nil {
		return nil, fmt.Errorf("ledger.Append: %w", err)
	}

	// timestamptz keeps microseconds; hash the value a later read will
	// return, or Verify recomputes a different hash for every entry.
	now := time.Now().UTC().Truncate(time.Microsecond)

	entry := &domain.AuditEntry{
		ID:        uuid.New(),
		DocID:     docID,
		Seq:       seq,
		Action:    action,
		Actor:     actor,
		Details:   normalized,
		PrevHash:  prevHash,
		CreatedAt: now,
	}

	hash, err := entryHash(entry)
	if err != nil {
		return nil, fmt.Errorf("ledger.Append: hash: %w", err)
	}
	entry.Hash = hash

	if err := l.repo.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("ledger.Append: insert: %w", err)
	}

	return entry, nil
}

// Verify recomputes the hash chain for docID from genesis. It returns false
// when any stored hash does not match its recomputed value or any entry's
// previous-hash does not match its predecessor. A document with no entries
// verifies trivially.
func (l *Ledger) Verify(ctx context.Context, docID uuid.UUID) (bool, error) {
	entries, err := l.repo.ListByDoc(ctx, docID)
	if err != nil {
		return false, fmt.Errorf("ledger.Verify: list: %w", err)
	}

	prev := GenesisHash
	for _, e := range entries {
		if e.PrevHash != prev {
			return false, nil
		}
		recomputed, hashErr := entryHash(e)
		if hashErr != nil {
			return false, fmt.Errorf("ledger.Verify: hash entry %d: %w", e.Seq, hashErr)
		}
		if recomputed != e.Hash {
			return false, nil
		}
		prev = e.Hash
	}

	return true, nil
}
