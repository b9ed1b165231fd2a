package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/cortex/internal/api/v1"
	"github.com/gosuda/cortex/internal/api/ws"
	"github.com/gosuda/cortex/internal/ledger"
	"github.com/gosuda/cortex/internal/store/postgres"
	"github.com/gosuda/cortex/internal/workflow"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, pub workflow.Publisher, auditLedger *ledger.Ledger) {
	v1.RegisterDocumentRoutes(api, store, pub, auditLedger)
	v1.RegisterRuleRoutes(api, store)
	v1.RegisterAuditRoutes(api, store, auditLedger)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/documents/{docID}", hub.ServeDocument)
}
