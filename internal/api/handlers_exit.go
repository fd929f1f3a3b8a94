/**
 * @description
 * Exit-path handlers: paginated evaluation listings, aggregate stats, and
 * point lookup by message id. All reads are tenant-scoped and inherit the
 * stores' degrade-to-empty behavior, so a cold pipeline yields empty pages
 * rather than errors.
 *
 * @dependencies
 * - net/http, strconv: Standard Go libraries.
 * - internal/domain: Read-side models.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 */

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/walinzi/tps-gateway/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type resultsPageResponse struct {
	TenantID string                    `json:"tenant_id"`
	Total    int64                     `json:"total"`
	Page     int                       `json:"page"`
	PerPage  int                       `json:"per_page"`
	Results  []domain.EvaluationRecord `json:"results"`
}

type statsSummaryResponse struct {
	TenantID                 string `json:"tenant_id"`
	EvaluationsTotal         int64  `json:"evaluations_total"`
	Alerts                   int64  `json:"alerts"`
	NoAlerts                 int64  `json:"no_alerts"`
	EventHistoryTransactions int64  `json:"event_history_transactions"`
}

func intQueryParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// ListResultsHandler handles GET /api/v1/results.
func (h *Handlers) ListResultsHandler(w http.ResponseWriter, r *http.Request) {
	tenant := h.tenantFromRequest(r)

	page := intQueryParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := intQueryParam(r, "per_page", defaultPerPage)
	if perPage < 1 || perPage > maxPerPage {
		perPage = defaultPerPage
	}
	status := r.URL.Query().Get("status")

	opts := domain.ListOptions{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
		Status: status,
	}
	results := h.evals.List(r.Context(), tenant, opts)
	if results == nil {
		results = []domain.EvaluationRecord{}
	}
	counts := h.evals.Counts(r.Context(), tenant, status)

	h.writeJSON(w, http.StatusOK, resultsPageResponse{
		TenantID: tenant,
		Total:    counts.Total,
		Page:     page,
		PerPage:  perPage,
		Results:  results,
	})
}

// StatsSummaryHandler handles GET /api/v1/results/stats/summary.
func (h *Handlers) StatsSummaryHandler(w http.ResponseWriter, r *http.Request) {
	tenant := h.tenantFromRequest(r)

	counts := h.evals.Counts(r.Context(), tenant, "")
	txCount := h.events.CountTransactions(r.Context(), tenant)

	h.writeJSON(w, http.StatusOK, statsSummaryResponse{
		TenantID:                 tenant,
		EvaluationsTotal:         counts.Total,
		Alerts:                   counts.Alerts,
		NoAlerts:                 counts.NoAlerts,
		EventHistoryTransactions: txCount,
	})
}

// GetResultHandler handles GET /api/v1/results/{msgID}.
func (h *Handlers) GetResultHandler(w http.ResponseWriter, r *http.Request) {
	tenant := h.tenantFromRequest(r)
	msgID := chi.URLParam(r, "msgID")

	evaluation, err := h.evals.GetByMsgID(r.Context(), msgID, tenant)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "No evaluation found for message id "+msgID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id":  tenant,
		"msg_id":     msgID,
		"evaluation": evaluation,
	})
}
