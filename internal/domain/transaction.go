/**
 * @description
 * This file defines the domain models for the transaction entry path: the
 * simplified request accepted by the gateway and the outcome of a two-phase
 * submission to the upstream evaluation pipeline.
 *
 * @dependencies
 * - encoding/json, errors, fmt, strings: Standard Go libraries.
 */

package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Transaction status codes accepted on the wire. These are the ISO 20022
// TxSts codes the upstream validator understands.
const (
	StatusAccepted = "ACCC"
	StatusRejected = "RJCT"
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidStatus = errors.New("status must be ACCC or RJCT")
)

// SimpleTransactionRequest is the friendly entry payload. The gateway
// transforms it into the full ISO 20022 documents before forwarding; it is
// never persisted.
type SimpleTransactionRequest struct {
	DebtorMember   string  `json:"debtor_member"`
	CreditorMember string  `json:"creditor_member"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Status         string  `json:"status"`
	TenantID       string  `json:"tenant_id,omitempty"`
}

// Validate normalizes defaults and rejects malformed input before the
// request reaches the transformer.
func (r *SimpleTransactionRequest) Validate() error {
	r.DebtorMember = strings.TrimSpace(r.DebtorMember)
	r.CreditorMember = strings.TrimSpace(r.CreditorMember)
	if r.DebtorMember == "" {
		return fmt.Errorf("debtor_member is required")
	}
	if r.CreditorMember == "" {
		return fmt.Errorf("creditor_member is required")
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(r.Currency) == "" {
		r.Currency = "USD"
	}
	if strings.TrimSpace(r.Status) == "" {
		r.Status = StatusAccepted
	}
	if r.Status != StatusAccepted && r.Status != StatusRejected {
		return ErrInvalidStatus
	}
	return nil
}

// ResolvedTenant returns the request tenant or the configured fallback.
func (r *SimpleTransactionRequest) ResolvedTenant(fallback string) string {
	if strings.TrimSpace(r.TenantID) != "" {
		return r.TenantID
	}
	return fallback
}

// SubmitOutcome is the unified result of a submission. Constructed once per
// request and returned immediately; upstream failures are folded in here
// rather than raised as errors.
type SubmitOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// MsgID identifies the last document sent (or attempted). On a phase-one
	// failure this is the pacs.008 MsgId; otherwise the pacs.002 MsgId.
	MsgID        string          `json:"msg_id"`
	EndToEndID   string          `json:"end_to_end_id,omitempty"`
	Pacs008MsgID string          `json:"pacs008_msg_id,omitempty"`
	TMSResponse  json.RawMessage `json:"tms_response,omitempty"`
}
