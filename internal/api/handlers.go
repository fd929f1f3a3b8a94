/**
 * @description
 * This file defines the handler set for the gateway's API endpoints and the
 * shared response helpers. Handlers parse incoming requests, call the
 * appropriate service or store method, and write the HTTP response. They act
 * as the bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, net/http: Standard Go libraries.
 * - internal/app, internal/cluster, internal/domain, internal/users: Service
 *   logic, cluster operations, models, and the user store.
 */

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/walinzi/tps-gateway/internal/cluster"
	"github.com/walinzi/tps-gateway/internal/domain"
	"github.com/walinzi/tps-gateway/internal/iso20022"
	"github.com/walinzi/tps-gateway/internal/users"
)

// Submitter runs the entry-path orchestration. Satisfied by *app.Service.
type Submitter interface {
	Submit(ctx context.Context, req domain.SimpleTransactionRequest) domain.SubmitOutcome
	SubmitRaw(ctx context.Context, payload iso20022.Pacs002Document, tenantID string) domain.SubmitOutcome
}

// EvaluationReader is the exit-path read surface over evaluation results.
type EvaluationReader interface {
	GetByMsgID(ctx context.Context, msgID, tenantID string) (json.RawMessage, error)
	List(ctx context.Context, tenantID string, opts domain.ListOptions) []domain.EvaluationRecord
	Counts(ctx context.Context, tenantID, statusFilter string) domain.EvaluationCounts
	InvalidateSchemaCache()
}

// TransactionCounter counts pipeline event-history rows.
type TransactionCounter interface {
	CountTransactions(ctx context.Context, tenantID string) int64
	InvalidateSchemaCache()
}

// Pinger is a health-checkable database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds everything the HTTP layer needs.
type Handlers struct {
	service       Submitter
	evals         EvaluationReader
	events        TransactionCounter
	cluster       *cluster.Client
	users         *users.Store
	tokens        *users.TokenManager
	apiKeys       []string
	defaultTenant string
	databases     map[string]Pinger
}

// NewHandlers creates the handler set. cluster may be nil when no Kubernetes
// credentials are available; the system endpoints then answer 503.
func NewHandlers(
	service Submitter,
	evals EvaluationReader,
	events TransactionCounter,
	clusterClient *cluster.Client,
	userStore *users.Store,
	tokens *users.TokenManager,
	apiKeys []string,
	defaultTenant string,
	databases map[string]Pinger,
) *Handlers {
	return &Handlers{
		service:       service,
		evals:         evals,
		events:        events,
		cluster:       clusterClient,
		users:         userStore,
		tokens:        tokens,
		apiKeys:       apiKeys,
		defaultTenant: defaultTenant,
		databases:     databases,
	}
}

// tenantFromRequest resolves the effective tenant for a read request.
func (h *Handlers) tenantFromRequest(r *http.Request) string {
	tenant := strings.TrimSpace(r.URL.Query().Get("tenant_id"))
	if tenant == "" {
		return h.defaultTenant
	}
	return tenant
}

// writeJSON is a helper for writing JSON responses.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
