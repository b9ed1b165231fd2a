package v1

import "github.com/gosuda/cortex/internal/domain"

// DataStore is the subset of the persistence layer the API handlers need.
// *postgres.Store satisfies it; tests plug in in-memory fakes.
type DataStore interface {
	Documents() domain.DocumentRepository
	Rules() domain.RuleRepository
	Audit() domain.AuditRepository
}
