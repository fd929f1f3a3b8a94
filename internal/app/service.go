/**
 * @description
 * This file contains the submission orchestrator: the core business logic of
 * the entry path. It sequences the two chained forwards to the upstream
 * evaluation service (pacs.008 first to seed accounts and entities, then
 * pacs.002 carrying the same EndToEndId to trigger the evaluation) and
 * folds every failure mode into a single SubmitOutcome instead of returning
 * Go errors to the HTTP layer.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt, log: Standard Go libraries.
 * - internal/domain, internal/iso20022: Models and payload builders.
 * - pkg/tmsclient: The concrete Evaluator implementation.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/walinzi/tps-gateway/internal/domain"
	"github.com/walinzi/tps-gateway/internal/iso20022"
	"github.com/walinzi/tps-gateway/pkg/tmsclient"
)

// Evaluator forwards one ISO 20022 payload to the upstream evaluation
// service. Satisfied by *tmsclient.Client.
type Evaluator interface {
	Evaluate(ctx context.Context, msgType, tenantID string, payload any) (json.RawMessage, error)
}

// Service orchestrates transaction submissions.
type Service struct {
	tms           Evaluator
	defaultTenant string
}

// NewService creates a new submission orchestrator.
func NewService(tms Evaluator, defaultTenant string) *Service {
	return &Service{tms: tms, defaultTenant: defaultTenant}
}

// Submit runs the two-phase submission. The pacs.008 forward must complete
// successfully before the pacs.002 is even built; a phase-one failure means
// nothing reached the pipeline, while a phase-two failure leaves the
// pacs.008 already accepted upstream (partial success, reported as such).
// Each call generates a fresh EndToEndId; resubmitting is not idempotent.
func (s *Service) Submit(ctx context.Context, req domain.SimpleTransactionRequest) domain.SubmitOutcome {
	tenant := req.ResolvedTenant(s.defaultTenant)
	endToEndID := iso20022.NewEndToEndID()

	pacs008 := iso20022.BuildCreditTransfer(req, endToEndID)
	pacs008MsgID := pacs008.FIToFICstmrCdtTrf.GrpHdr.MsgID
	log.Printf("level=info component=orchestrator phase=pacs008 msg_id=%s tenant_id=%s e2e_id=%s msg=\"forwarding credit transfer\"", pacs008MsgID, tenant, endToEndID)

	if _, err := s.tms.Evaluate(ctx, iso20022.MsgTypePacs008, tenant, pacs008); err != nil {
		return failureOutcome("pacs.008", pacs008MsgID, pacs008MsgID, "", err)
	}

	pacs002 := iso20022.BuildPaymentStatus(req, endToEndID)
	pacs002MsgID := pacs002.MsgID()
	log.Printf("level=info component=orchestrator phase=pacs002 msg_id=%s tenant_id=%s e2e_id=%s msg=\"forwarding payment status\"", pacs002MsgID, tenant, endToEndID)

	resp, err := s.tms.Evaluate(ctx, iso20022.MsgTypePacs002, tenant, pacs002)
	if err != nil {
		// The pacs.008 already landed upstream; report the partial state.
		return failureOutcome("pacs.002", pacs002MsgID, pacs008MsgID, endToEndID, err)
	}

	return domain.SubmitOutcome{
		Success:      true,
		Message:      "Transaction submitted to evaluation pipeline",
		MsgID:        pacs002MsgID,
		EndToEndID:   endToEndID,
		Pacs008MsgID: pacs008MsgID,
		TMSResponse:  resp,
	}
}

// SubmitRaw forwards a caller-supplied pacs.002 without transformation. No
// pacs.008 is sent and no EndToEndId is generated; linkage is the caller's
// responsibility.
func (s *Service) SubmitRaw(ctx context.Context, payload iso20022.Pacs002Document, tenantID string) domain.SubmitOutcome {
	tenant := tenantID
	if tenant == "" {
		tenant = s.defaultTenant
	}
	msgID := payload.MsgID()
	log.Printf("level=info component=orchestrator phase=raw msg_id=%s tenant_id=%s msg=\"forwarding raw payment status\"", msgID, tenant)

	resp, err := s.tms.Evaluate(ctx, iso20022.MsgTypePacs002, tenant, payload)
	if err != nil {
		return failureOutcome("pacs.002", msgID, "", "", err)
	}

	return domain.SubmitOutcome{
		Success:     true,
		Message:     "Raw pacs.002 submitted to evaluation pipeline",
		MsgID:       msgID,
		TMSResponse: resp,
	}
}

// failureOutcome maps an Evaluator error onto the outcome shape, keeping the
// upstream's status and body visible to the caller. Transport errors and
// rejections are distinguished only by the message; neither is retried here.
func failureOutcome(phase, msgID, pacs008MsgID, endToEndID string, err error) domain.SubmitOutcome {
	outcome := domain.SubmitOutcome{
		Success:      false,
		MsgID:        msgID,
		EndToEndID:   endToEndID,
		Pacs008MsgID: pacs008MsgID,
	}

	var statusErr *tmsclient.StatusError
	if errors.As(err, &statusErr) {
		log.Printf("level=error component=orchestrator phase=%s msg_id=%s status=%d msg=\"tms rejected document\"", phase, msgID, statusErr.StatusCode)
		outcome.Message = fmt.Sprintf("TMS %s error: %d", phase, statusErr.StatusCode)
		if body, marshalErr := json.Marshal(map[string]string{"error": statusErr.Body}); marshalErr == nil {
			outcome.TMSResponse = body
		}
		return outcome
	}

	log.Printf("level=error component=orchestrator phase=%s msg_id=%s err=%v msg=\"tms unreachable\"", phase, msgID, err)
	outcome.Message = fmt.Sprintf("Cannot reach TMS for %s: %v", phase, err)
	return outcome
}
