// Package ws streams document lifecycle events to connected clients so
// operator dashboards can follow a request live without polling.
package ws

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/cortex/internal/workflow"
)

// Hub fans document events out to WebSocket connections. Each connection
// holds its own subscription to the documents channel and filters for the
// requested document ID, so slow clients never block the workflow.
type Hub struct {
	pubsub workflow.Subscriber
}

// NewHub creates a new WebSocket hub over the given pub/sub subscriber.
func NewHub(sub workflow.Subscriber) *Hub {
	return &Hub{pubsub: sub}
}

// ServeDocument handles WebSocket connections streaming one document's
// lifecycle events.
func (h *Hub) ServeDocument(w http.ResponseWriter, r *http.Request) {
	docIDStr := chi.URLParam(r, "docID")
	docID, err := uuid.Parse(docIDStr)
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, workflow.DocumentsChannel)
	if err != nil {
		log.Error().Err(err).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			var evt workflow.Event
			if unmarshalErr := json.Unmarshal(msg, &evt); unmarshalErr != nil {
				continue
			}
			if evt.DocID != docID {
				continue
			}

			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
