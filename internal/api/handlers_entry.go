/**
 * @description
 * Entry-path handlers: accept a simplified transaction, run the two-phase
 * submission, and return the orchestrator's outcome verbatim. Upstream
 * failures are not HTTP errors here; the outcome body carries success=false
 * with whatever the pipeline reported.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/domain, internal/iso20022: Request models and payload types.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/walinzi/tps-gateway/internal/domain"
	"github.com/walinzi/tps-gateway/internal/iso20022"
)

// EvaluateTransactionHandler handles POST /api/v1/transactions/evaluate.
func (h *Handlers) EvaluateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SimpleTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=evaluate outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) || errors.Is(err, domain.ErrInvalidStatus) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.service.Submit(r.Context(), req)
	h.writeJSON(w, http.StatusOK, outcome)
}

type rawEvaluateRequest struct {
	Payload  iso20022.Pacs002Document `json:"payload"`
	TenantID string                   `json:"tenant_id"`
}

// EvaluateRawHandler handles POST /api/v1/transactions/evaluate/raw: a
// caller-built pacs.002 forwarded without transformation.
func (h *Handlers) EvaluateRawHandler(w http.ResponseWriter, r *http.Request) {
	var req rawEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=evaluate_raw outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Payload.MsgID() == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "payload must be a pacs.002 document with a MsgId")
		return
	}

	outcome := h.service.SubmitRaw(r.Context(), req.Payload, req.TenantID)
	h.writeJSON(w, http.StatusOK, outcome)
}
