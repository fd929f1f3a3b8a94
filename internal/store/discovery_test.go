package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// fakeLister returns a scripted table list and counts probes.
type fakeLister struct {
	mu     sync.Mutex
	tables []string
	err    error
	probes int
}

func (f *fakeLister) ListTables(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeLister) set(tables []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables, f.err = tables, err
}

func (f *fakeLister) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

func TestResolvePicksFirstCandidateMatch(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{tables: []string{"evaluations", "evaluationresult", "other"}}

	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !ok || table != "evaluationresult" {
		t.Fatalf("resolved %q ok=%t, want evaluationresult", table, ok)
	}
}

func TestResolveSingleTableWinsOverFallback(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{tables: []string{"pipeline_output"}}

	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !ok || table != "pipeline_output" {
		t.Fatalf("resolved %q ok=%t, want pipeline_output", table, ok)
	}
}

func TestResolveFallsBackToDefaultGuess(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{tables: []string{"alpha", "beta", "gamma"}}

	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !ok || table != "evaluation" {
		t.Fatalf("resolved %q ok=%t, want fallback evaluation", table, ok)
	}
}

func TestEmptyDatabaseIsCachedAsCheckedEmpty(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{}

	_, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil || ok {
		t.Fatalf("expected checked-empty, got ok=%t err=%v", ok, err)
	}

	// Tables appearing later in the process are not seen until an explicit
	// invalidation; the empty result stays cached.
	lister.set([]string{"evaluationresult"}, nil)
	_, ok, err = cache.Resolve(context.Background(), lister)
	if err != nil || ok {
		t.Fatalf("cached empty result must persist, got ok=%t err=%v", ok, err)
	}
	if lister.probeCount() != 1 {
		t.Fatalf("expected a single probe, got %d", lister.probeCount())
	}
}

func TestListingErrorLeavesCacheUnchecked(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{err: errors.New("connection refused")}

	if _, _, err := cache.Resolve(context.Background(), lister); err == nil {
		t.Fatal("expected error from failed probe")
	}

	// A later successful probe must still be attempted.
	lister.set([]string{"evaluationresult"}, nil)
	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !ok || table != "evaluationresult" {
		t.Fatalf("resolved %q ok=%t after recovery", table, ok)
	}
}

func TestInvalidateForcesReprobe(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{}

	if _, ok, _ := cache.Resolve(context.Background(), lister); ok {
		t.Fatal("expected checked-empty first")
	}

	lister.set([]string{"evaluationresult"}, nil)
	cache.Invalidate()

	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !ok || table != "evaluationresult" {
		t.Fatalf("expected fresh probe after Invalidate, got %q ok=%t", table, ok)
	}
	if lister.probeCount() != 2 {
		t.Fatalf("expected exactly 2 probes, got %d", lister.probeCount())
	}
}

func TestResolveRejectsUnsafeIdentifier(t *testing.T) {
	cache := NewSchemaCache(EvaluationDataset)
	lister := &fakeLister{tables: []string{`bad"name; DROP TABLE x`}}

	table, ok, err := cache.Resolve(context.Background(), lister)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if ok || table != "" {
		t.Fatalf("unsafe identifier must not resolve, got %q ok=%t", table, ok)
	}
}

func TestResolveIsMemoizedUnderConcurrency(t *testing.T) {
	cache := NewSchemaCache(EventHistoryDataset)
	lister := &fakeLister{tables: []string{"transaction_history"}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, ok, err := cache.Resolve(context.Background(), lister)
			if err != nil || !ok || table != "transaction_history" {
				t.Errorf("resolved %q ok=%t err=%v", table, ok, err)
			}
		}()
	}
	wg.Wait()

	if lister.probeCount() != 1 {
		t.Fatalf("discovery ran %d times, want 1", lister.probeCount())
	}
}
