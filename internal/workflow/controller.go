// Package workflow owns the document state machine. The Controller is the
// only component allowed to move a DocumentRecord between states; it reacts
// to created/updated events, invokes the external adapters, runs the
// reasoner and finalizes every decision through the audit ledger.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/cortex/internal/adapter"
	"github.com/gosuda/cortex/internal/domain"
	"github.com/gosuda/cortex/internal/keylock"
	"github.com/gosuda/cortex/internal/ledger"
)

// Extractor converts a raw document into named fields.
type Extractor interface {
	Extract(ctx context.Context, req adapter.ExtractionRequest) (*adapter.ExtractionResult, error)
}

// Enricher resolves an identity token to personnel data.
type Enricher interface {
	Lookup(ctx context.Context, searchTerm string) (*domain.EnrichedData, error)
}

// Publisher abstracts the pub/sub publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Notifier tells human reviewers a document is waiting on them.
type Notifier interface {
	DocumentAwaitingValidation(ctx context.Context, doc *domain.DocumentRecord) error
}

// Controller drives documents through
// uploaded -> extraction_running -> enrichment_pending -> validation_pending
// -> reasoning_pending -> approved|rejected, with failed reachable from any
// non-terminal state.
//
// All work for one document runs under a per-document lock, and every status
// write is a compare-and-swap on the stored status, so handlers are safe
// under at-least-once event delivery: a duplicate delivery re-reads the
// record, finds the stage already done and becomes a no-op.
type Controller struct {
	docs    domain.DocumentRepository
	rules   domain.RuleRepository
	ledger  *ledger.Ledger
	extract Extractor
	enrich  Enricher
	reason  Reasoner
	pubsub  Publisher
	notify  Notifier // nil when no notifier is configured

	locks *keylock.KeyedMutex

	extractTimeout time.Duration
	enrichTimeout  time.Duration
}

func NewController(
	docs domain.DocumentRepository,
	rules domain.RuleRepository,
	auditLedger *ledger.Ledger,
	extract Extractor,
	enrich Enricher,
	reason Reasoner,
	pubsub Publisher,
	notify Notifier,
	extractTimeout, enrichTimeout time.Duration,
) *Controller {
	return &Controller{
		docs:           docs,
		rules:          rules,
		ledger:         auditLedger,
		extract:        extract,
		enrich:         enrich,
		reason:         reason,
		pubsub:         pubsub,
		notify:         notify,
		locks:          keylock.New(),
		extractTimeout: extractTimeout,
		enrichTimeout:  enrichTimeout,
	}
}

// HandleCreated runs the extraction stage for a freshly submitted document.
// Extraction failures are hard: the record goes to failed and operators must
// resubmit. There is no automatic retry.
func (c *Controller) HandleCreated(ctx context.Context, docID uuid.UUID) error {
	unlock := c.locks.Lock(docID)
	defer unlock()

	doc, err := c.docs.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("workflow.Controller.HandleCreated: %w", err)
	}

	// A record already past uploaded means a duplicate creation event. A
	// committed extraction whose update event was lost would otherwise
	// strand the record here, so the redelivery re-publishes it.
	if doc.Status != domain.StatusUploaded {
		if doc.Status == domain.StatusEnrichmentPending {
			c.publishUpdated(ctx, docID, domain.StatusExtractionRunning, domain.StatusEnrichmentPending)
		}
		return nil
	}

	err = c.docs.UpdateStatus(ctx, docID, domain.StatusUploaded, domain.StatusExtractionRunning)
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("workflow.Controller.HandleCreated: start extraction: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.extractTimeout)
	defer cancel()

	result, err := c.extract.Extract(callCtx, adapter.ExtractionRequest{
		FileURL:  doc.FileURL,
		MimeType: doc.MimeType,
	})
	if err != nil {
		c.fail(ctx, docID, "extraction: "+err.Error())
		return nil
	}

	err = c.docs.SetExtracted(ctx, docID, result.KeyFields, domain.StatusExtractionRunning, domain.StatusEnrichmentPending)
	if err != nil {
		return fmt.Errorf("workflow.Controller.HandleCreated: commit extraction: %w", err)
	}

	c.publishUpdated(ctx, docID, domain.StatusExtractionRunning, domain.StatusEnrichmentPending)
	return nil
}

// HandleUpdated reacts to a status write. Only transitions into
// enrichment_pending and reasoning_pending carry controller work; the
// validation_pending -> reasoning_pending write itself belongs to the human
// reviewer and arrives here as an event like any other.
func (c *Controller) HandleUpdated(ctx context.Context, docID uuid.UUID, prev, next domain.DocumentStatus) error {
	if prev == next {
		return nil
	}
	if !prev.ValidTransition(next) {
		return fmt.Errorf("workflow.Controller.HandleUpdated: %s -> %s: %w", prev, next, domain.ErrInvalidTransition)
	}

	switch next {
	case domain.StatusEnrichmentPending:
		return c.runEnrichment(ctx, docID)
	case domain.StatusReasoningPending:
		return c.runReasoning(ctx, docID)
	default:
		return nil
	}
}

// runEnrichment looks up personnel data for the document. Enrichment never
// blocks the pipeline: adapter errors degrade to an error marker in
// EnrichedData because a human reviews everything at the next stage anyway.
func (c *Controller) runEnrichment(ctx context.Context, docID uuid.UUID) error {
	unlock := c.locks.Lock(docID)
	defer unlock()

	doc, err := c.docs.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("workflow.Controller.runEnrichment: %w", err)
	}
	if doc.Status != domain.StatusEnrichmentPending {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.enrichTimeout)
	defer cancel()

	data, err := c.enrich.Lookup(callCtx, searchTerm(doc.ExtractedFields))
	if err != nil {
		data = &domain.EnrichedData{Error: err.Error()}
	}

	err = c.docs.SetEnriched(ctx, docID, data, domain.StatusEnrichmentPending, domain.StatusValidationPending)
	if errors.Is(err, domain.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("workflow.Controller.runEnrichment: commit: %w", err)
	}

	c.publishUpdated(ctx, docID, domain.StatusEnrichmentPending, domain.StatusValidationPending)

	if c.notify != nil {
		doc.Status = domain.StatusValidationPending
		doc.EnrichedData = data
		if notifyErr := c.notify.DocumentAwaitingValidation(ctx, doc); notifyErr != nil {
			log.Warn().Err(notifyErr).Str("doc_id", docID.String()).Msg("workflow: reviewer notification failed")
		}
	}

	return nil
}

// runReasoning evaluates the active rules and finalizes the decision. The
// audit entry is appended before the terminal status is committed: a
// decision that cannot be recorded in the ledger is not a decision, so an
// append failure sends the record to failed instead.
func (c *Controller) runReasoning(ctx context.Context, docID uuid.UUID) error {
	unlock := c.locks.Lock(docID)
	defer unlock()

	doc, err := c.docs.GetByID(ctx, docID)
	if err != nil {
		return fmt.Errorf("workflow.Controller.runReasoning: %w", err)
	}
	if doc.Status != domain.StatusReasoningPending {
		return nil
	}

	activeRules, err := c.rules.ListActive(ctx, doc.ProcessType)
	if err != nil {
		c.fail(ctx, docID, "reasoning: load rules: "+err.Error())
		return nil
	}

	facts := BuildFacts(doc)

	verdict, err := c.reason.Decide(ctx, facts, activeRules)
	if err != nil {
		c.recordDecisionFailure(ctx, docID, facts, err)
		c.fail(ctx, docID, "reasoning: "+err.Error())
		return nil
	}

	_, err = c.ledger.Append(ctx, docID, ledger.ActionAutoDecision, ledger.ActorSystem, map[string]any{
		"decision":     string(verdict.Status),
		"rationale":    verdict.Rationale,
		"review_notes": verdict.ReviewNotes,
		"trace":        verdict.Trace,
		"facts":        map[string]any(facts),
	})
	if err != nil {
		c.fail(ctx, docID, "audit write: "+err.Error())
		return nil
	}

	target := domain.StatusApproved
	if verdict.Status == domain.VerdictRejected {
		target = domain.StatusRejected
	}

	err = c.docs.SetVerdict(ctx, docID, &verdict, domain.StatusReasoningPending, target)
	if err != nil {
		c.fail(ctx, docID, "commit verdict: "+err.Error())
		return nil
	}

	c.publishUpdated(ctx, docID, domain.StatusReasoningPending, target)
	return nil
}

// recordDecisionFailure writes the reasoning-failure audit entry. Every
// reasoning-stage completion gets exactly one entry, success or not.
func (c *Controller) recordDecisionFailure(ctx context.Context, docID uuid.UUID, facts domain.Facts, cause error) {
	_, err := c.ledger.Append(ctx, docID, ledger.ActionAutoDecision, ledger.ActorSystem, map[string]any{
		"decision": "failed",
		"error":    cause.Error(),
		"facts":    map[string]any(facts),
	})
	if err != nil {
		log.Error().Err(err).Str("doc_id", docID.String()).Msg("workflow: failed to record decision failure")
	}
}

func (c *Controller) fail(ctx context.Context, docID uuid.UUID, reason string) {
	if err := c.docs.SetFailed(ctx, docID, reason); err != nil {
		log.Error().Err(err).Str("doc_id", docID.String()).Str("reason", reason).Msg("workflow: failed to mark document failed")
		return
	}
	log.Info().Str("doc_id", docID.String()).Str("reason", reason).Msg("workflow: document failed")
}

func (c *Controller) publishUpdated(ctx context.Context, docID uuid.UUID, prev, next domain.DocumentStatus) {
	if err := PublishEvent(ctx, c.pubsub, Event{
		Type:  EventDocumentUpdated,
		DocID: docID,
		Prev:  prev,
		Next:  next,
	}); err != nil {
		log.Error().Err(err).Str("doc_id", docID.String()).Msg("workflow: failed to publish update event")
	}
}

// searchTerm picks the identity token for the personnel lookup: the
// registration number when extraction found one, the name otherwise.
func searchTerm(fields []domain.ExtractedField) string {
	var name string
	for _, f := range fields {
		switch normalizeFactName(f.Field) {
		case "registration":
			if f.Value != "" {
				return f.Value
			}
		case "name":
			name = f.Value
		}
	}
	return name
}
