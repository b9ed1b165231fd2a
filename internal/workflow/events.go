package workflow

import (
	"github.com/google/uuid"

	"github.com/gosuda/cortex/internal/domain"
)

// DocumentsChannel is the pub/sub channel carrying document lifecycle
// events. Every record creation and status write is published here and
// consumed by the Dispatcher.
const DocumentsChannel = "documents"

type EventType string

const (
	EventDocumentCreated EventType = "document.created"
	EventDocumentUpdated EventType = "document.updated"
)

// Event is one document lifecycle notification. Prev/Next carry the status
// transition for updated events so handlers can ignore no-op redeliveries.
type Event struct {
	Type  EventType             `json:"type"`
	DocID uuid.UUID             `json:"doc_id"`
	Prev  domain.DocumentStatus `json:"prev,omitempty"`
	Next  domain.DocumentStatus `json:"next,omitempty"`
}
