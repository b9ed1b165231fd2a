package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosuda/cortex/internal/domain"
)

// hashPayload is the canonical serialization input. Fixed struct fields give
// a deterministic field order under encoding/json, and map keys inside
// Details are marshalled sorted, so the same entry always hashes the same.
type hashPayload struct {
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Details   map[string]any `json:"details"`
	DocID     string         `json:"doc_id"`
	PrevHash  string         `json:"prev_hash"`
	Timestamp string         `json:"ts"`
}

// normalizeDetails round-trips the details through JSON so that what gets
// hashed is exactly what a later read from jsonb storage will yield (typed
// structs become maps, ints become float64). Without this, Verify would
// recompute a different hash than Append did.
func normalizeDetails(d map[string]any) (map[string]any, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("normalize details: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize details: %w", err)
	}
	return out, nil
}

func entryHash(e *domain.AuditEntry) (string, error) {
	payload := hashPayload{
		Action:    e.Action,
		Actor:     e.Actor,
		Details:   e.Details,
		DocID:     e.DocID.String(),
		PrevHash:  e.PrevHash,
		Timestamp: e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
