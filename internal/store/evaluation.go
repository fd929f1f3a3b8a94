/**
 * @description
 * This file provides the Postgres read path over the pipeline's evaluation
 * database: point lookup by message id, filtered pagination, and aggregate
 * counts. Queries target the table resolved by the schema cache; because
 * "no data yet" is a normal state for this system, an unresolved table or a
 * failed query degrades to an empty result rather than an error.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt, log: Standard Go libraries.
 * - github.com/jackc/pgx/v5 (+ pgxpool): The PostgreSQL driver.
 * - internal/domain: Read-side models.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walinzi/tps-gateway/internal/domain"
)

// ErrEvaluationNotFound is returned by GetByMsgID for a missing row. It also
// covers query failures: at this API boundary "confirmed absent" and "could
// not confirm" are deliberately indistinguishable.
var ErrEvaluationNotFound = errors.New("evaluation not found")

const listTablesSQL = `
	SELECT table_name FROM information_schema.tables
	 WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	 ORDER BY table_name`

// EvaluationStore reads evaluation results written by the pipeline.
type EvaluationStore struct {
	pool   *pgxpool.Pool
	tables *SchemaCache
}

// NewEvaluationStore creates a store with a fresh schema cache for the
// evaluation dataset.
func NewEvaluationStore(pool *pgxpool.Pool) *EvaluationStore {
	return &EvaluationStore{pool: pool, tables: NewSchemaCache(EvaluationDataset)}
}

// ListTables implements TableLister against the evaluation database.
func (s *EvaluationStore) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, listTablesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// InvalidateSchemaCache forces table re-discovery on the next read.
func (s *EvaluationStore) InvalidateSchemaCache() {
	s.tables.Invalidate()
}

func (s *EvaluationStore) resolveTable(ctx context.Context) (string, bool) {
	table, ok, err := s.tables.Resolve(ctx, s)
	if err != nil {
		log.Printf("level=warn component=evaluation_store msg=\"table discovery failed\" err=%v", err)
		return "", false
	}
	return table, ok
}

// GetByMsgID fetches the full stored evaluation document for one message id
// and tenant.
func (s *EvaluationStore) GetByMsgID(ctx context.Context, msgID, tenantID string) (json.RawMessage, error) {
	table, ok := s.resolveTable(ctx)
	if !ok {
		return nil, ErrEvaluationNotFound
	}

	sql := fmt.Sprintf(
		`SELECT evaluation FROM %s WHERE "messageid" = $1 AND "tenantid" = $2 LIMIT 1`,
		pgx.Identifier{table}.Sanitize(),
	)

	var doc []byte
	err := s.pool.QueryRow(ctx, sql, msgID, tenantID).Scan(&doc)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("level=warn component=evaluation_store op=get msg_id=%s err=%v", msgID, err)
		}
		return nil, ErrEvaluationNotFound
	}
	return json.RawMessage(doc), nil
}

// List returns a page of evaluations for a tenant, most recent row first.
func (s *EvaluationStore) List(ctx context.Context, tenantID string, opts domain.ListOptions) []domain.EvaluationRecord {
	table, ok := s.resolveTable(ctx)
	if !ok {
		return nil
	}

	sql, args := buildListQuery(table, tenantID, opts)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		log.Printf("level=warn component=evaluation_store op=list tenant_id=%s err=%v", tenantID, err)
		return nil
	}
	defer rows.Close()

	var records []domain.EvaluationRecord
	for rows.Next() {
		var rec domain.EvaluationRecord
		var typology []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.MsgID,
			&rec.TransactionID,
			&rec.Status,
			&rec.EvaluationID,
			&rec.EvaluatedAt,
			&rec.ProcessingTimeNs,
			&typology,
		); err != nil {
			log.Printf("level=warn component=evaluation_store op=list tenant_id=%s err=%v msg=\"row scan failed\"", tenantID, err)
			return nil
		}
		rec.TypologyResults = json.RawMessage(typology)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		log.Printf("level=warn component=evaluation_store op=list tenant_id=%s err=%v", tenantID, err)
		return nil
	}
	return records
}

// Counts returns total/alert/no-alert counters for a tenant. A status filter
// restricts which rows are counted at all.
func (s *EvaluationStore) Counts(ctx context.Context, tenantID, statusFilter string) domain.EvaluationCounts {
	table, ok := s.resolveTable(ctx)
	if !ok {
		return domain.EvaluationCounts{}
	}

	sql, args := buildCountQuery(table, tenantID, statusFilter)
	var counts domain.EvaluationCounts
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&counts.Total, &counts.Alerts, &counts.NoAlerts); err != nil {
		log.Printf("level=warn component=evaluation_store op=count tenant_id=%s err=%v", tenantID, err)
		return domain.EvaluationCounts{}
	}
	return counts
}

// statusExpr extracts the report status from the stored document.
const statusExpr = `evaluation->'report'->>'status'`

// buildListQuery assembles the paginated projection over the discovered
// table. The table name is catalog-sourced and identifier-quoted; all
// request-supplied values travel as bind parameters.
func buildListQuery(table, tenantID string, opts domain.ListOptions) (string, []any) {
	args := []any{tenantID}
	where := `"tenantid" = $1`
	if opts.Status == domain.EvaluationStatusAlert || opts.Status == domain.EvaluationStatusNoAlert {
		args = append(args, opts.Status)
		where += fmt.Sprintf(" AND %s = $2", statusExpr)
	}
	args = append(args, opts.Limit, opts.Offset)

	sql := fmt.Sprintf(`
		SELECT id,
		       "messageid",
		       evaluation->>'transactionID',
		       %[1]s,
		       evaluation->'report'->>'evaluationID',
		       evaluation->'report'->>'timestamp',
		       evaluation->'report'->'tadpResult'->>'prcgTm',
		       evaluation->'report'->'tadpResult'->'typologyResult'
		  FROM %[2]s
		 WHERE %[3]s
		 ORDER BY id DESC
		 LIMIT $%[4]d OFFSET $%[5]d`,
		statusExpr, pgx.Identifier{table}.Sanitize(), where, len(args)-1, len(args))
	return sql, args
}

// buildCountQuery assembles the aggregate counters query.
func buildCountQuery(table, tenantID, statusFilter string) (string, []any) {
	args := []any{tenantID}
	where := `"tenantid" = $1`
	if statusFilter == domain.EvaluationStatusAlert || statusFilter == domain.EvaluationStatusNoAlert {
		args = append(args, statusFilter)
		where += fmt.Sprintf(" AND %s = $2", statusExpr)
	}

	sql := fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE %[1]s = 'ALRT'),
		       COUNT(*) FILTER (WHERE %[1]s = 'NALT')
		  FROM %[2]s
		 WHERE %[3]s`,
		statusExpr, pgx.Identifier{table}.Sanitize(), where)
	return sql, args
}
