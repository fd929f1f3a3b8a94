/**
 * @description
 * Read-side domain models: projections over the evaluation documents the
 * fraud pipeline writes to its results database. The gateway only reads
 * these; the pipeline owns the data.
 *
 * @dependencies
 * - encoding/json: Standard Go library.
 */

package domain

import "encoding/json"

// Evaluation report statuses produced by the pipeline.
const (
	EvaluationStatusAlert   = "ALRT"
	EvaluationStatusNoAlert = "NALT"
)

// EvaluationRecord is one row of the paginated results listing. Fields other
// than ID and MsgID are extracted from the stored evaluation JSON and may be
// absent when the pipeline wrote a partial document.
type EvaluationRecord struct {
	ID               int64           `json:"id"`
	MsgID            string          `json:"msg_id"`
	TransactionID    *string         `json:"transaction_id"`
	Status           *string         `json:"status"`
	EvaluationID     *string         `json:"evaluation_id"`
	EvaluatedAt      *string         `json:"evaluated_at"`
	ProcessingTimeNs *string         `json:"processing_time_ns"`
	TypologyResults  json.RawMessage `json:"typology_results"`
}

// EvaluationCounts aggregates per-tenant result counters.
type EvaluationCounts struct {
	Total    int64 `json:"total"`
	Alerts   int64 `json:"alerts"`
	NoAlerts int64 `json:"no_alerts"`
}

// ListOptions controls evaluation listing. Limit/Offset are applied after
// the optional status filter.
type ListOptions struct {
	Limit  int
	Offset int
	Status string
}
