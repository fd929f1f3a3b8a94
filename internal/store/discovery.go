/**
 * @description
 * Schema discovery for the pipeline databases. The fraud pipeline creates
 * its result tables lazily and their names are not guaranteed at deploy
 * time, so instead of a migration step the gateway probes the catalog once
 * per dataset and memoizes what it finds for the life of the process.
 *
 * The cache distinguishes "not yet checked" from "checked, found nothing":
 * an empty database is the normal state before the pipeline has processed
 * anything, and is remembered as such. Invalidate() is the operational
 * escape hatch when tables appear later in a long-running process.
 *
 * @dependencies
 * - context, log, regexp, sync: Standard Go libraries.
 */

package store

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"
)

// TableLister enumerates the base tables of a database's public schema.
// Implemented by the Postgres stores; faked in tests.
type TableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

// DatasetSpec names a logical dataset and the physical table names it may
// live under, in probe order.
type DatasetSpec struct {
	Name       string
	Candidates []string
	Fallback   string
}

// EvaluationDataset and EventHistoryDataset describe the two discovered
// datasets. Candidate lists cover the table names the pipeline is known to
// create across versions.
var (
	EvaluationDataset = DatasetSpec{
		Name:       "evaluation",
		Candidates: []string{"evaluationresult", "evaluationresults", "evaluation", "evaluations", "results"},
		Fallback:   "evaluation",
	}

	EventHistoryDataset = DatasetSpec{
		Name:       "event_history",
		Candidates: []string{"transactionhistory", "transaction_history", "transaction", "transactions"},
		Fallback:   "transaction",
	}
)

// identPattern restricts discovered names to plain SQL identifiers. Names
// come from the system catalog, never from request input, but the check
// holds the line if that ever changes.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// SchemaCache memoizes the resolved table name for one dataset. Shared by
// concurrent request handlers; the mutex also serializes the first probe so
// discovery runs at most once per process barring Invalidate.
type SchemaCache struct {
	spec DatasetSpec

	mu      sync.Mutex
	checked bool
	table   string
}

// NewSchemaCache creates an unchecked cache for a dataset.
func NewSchemaCache(spec DatasetSpec) *SchemaCache {
	return &SchemaCache{spec: spec}
}

// Resolve returns the physical table for the dataset. ok is false when the
// database had no tables at check time, a normal "pipeline idle" result
// that is cached like any other. A listing error leaves the cache unchecked
// so the next call probes again.
func (c *SchemaCache) Resolve(ctx context.Context, lister TableLister) (table string, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.checked {
		return c.table, c.table != "", nil
	}

	tables, err := lister.ListTables(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list tables for %s: %w", c.spec.Name, err)
	}
	log.Printf("level=info component=schema_cache dataset=%s tables=%d msg=\"probing catalog\"", c.spec.Name, len(tables))

	c.table = pickTable(c.spec, tables)
	c.checked = true
	if c.table == "" {
		log.Printf("level=info component=schema_cache dataset=%s msg=\"no tables yet; pipeline has not processed anything\"", c.spec.Name)
		return "", false, nil
	}
	if !identPattern.MatchString(c.table) {
		log.Printf("level=warn component=schema_cache dataset=%s table=%q msg=\"discovered name rejected by identifier check\"", c.spec.Name, c.table)
		c.table = ""
		return "", false, nil
	}
	log.Printf("level=info component=schema_cache dataset=%s table=%s msg=\"resolved\"", c.spec.Name, c.table)
	return c.table, true, nil
}

// Invalidate resets the cache to unchecked, forcing a fresh probe on the
// next Resolve. Exposed through the admin API for operational recovery.
func (c *SchemaCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checked = false
	c.table = ""
	log.Printf("level=info component=schema_cache dataset=%s msg=\"cache invalidated\"", c.spec.Name)
}

// pickTable applies the resolution order: candidate list, then a lone table,
// then the fallback guess. An empty database resolves to nothing.
func pickTable(spec DatasetSpec, tables []string) string {
	if len(tables) == 0 {
		return ""
	}
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}
	for _, candidate := range spec.Candidates {
		if present[candidate] {
			return candidate
		}
	}
	if len(tables) == 1 {
		return tables[0]
	}
	return spec.Fallback
}
