/**
 * @description
 * Read path over the pipeline's event-history database: a single per-tenant
 * transaction counter, with the same lazy table discovery and degrade-to-
 * zero policy as the evaluation store.
 *
 * @dependencies
 * - context, fmt, log: Standard Go libraries.
 * - github.com/jackc/pgx/v5 (+ pgxpool): The PostgreSQL driver.
 */

package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventHistoryStore counts transactions recorded by the pipeline.
type EventHistoryStore struct {
	pool   *pgxpool.Pool
	tables *SchemaCache
}

// NewEventHistoryStore creates a store with a fresh schema cache for the
// event-history dataset.
func NewEventHistoryStore(pool *pgxpool.Pool) *EventHistoryStore {
	return &EventHistoryStore{pool: pool, tables: NewSchemaCache(EventHistoryDataset)}
}

// ListTables implements TableLister against the event-history database.
func (s *EventHistoryStore) ListTables(ctx context.Context) ([]string, error) {
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
func (s *EventHistoryStore) InvalidateSchemaCache() {
	s.tables.Invalidate()
}

// CountTransactions returns the number of event-history rows for a tenant,
// zero when the dataset is unresolved or the query fails.
func (s *EventHistoryStore) CountTransactions(ctx context.Context, tenantID string) int64 {
	table, ok, err := s.tables.Resolve(ctx, s)
	if err != nil {
		log.Printf("level=warn component=event_history_store msg=\"table discovery failed\" err=%v", err)
		return 0
	}
	if !ok {
		return 0
	}

	sql := fmt.Sprintf(
		`SELECT COUNT(*)::bigint FROM %s WHERE tenantid = $1`,
		pgx.Identifier{table}.Sanitize(),
	)

	var count int64
	if err := s.pool.QueryRow(ctx, sql, tenantID).Scan(&count); err != nil {
		log.Printf("level=warn component=event_history_store op=count tenant_id=%s err=%v", tenantID, err)
		return 0
	}
	return count
}
