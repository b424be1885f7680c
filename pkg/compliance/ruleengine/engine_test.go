package ruleengine

import (
	"sync"
	"testing"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/bundle"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/execcontext"
)

type fakeMetricsRecorder struct {
	mu          sync.Mutex
	executions  []string // "ruleID:result"
	cacheHits   int
	cacheMisses int
	lastSize    int
}

func (f *fakeMetricsRecorder) RecordRuleExecution(ruleID, result string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executions = append(f.executions, ruleID+":"+result)
}

func (f *fakeMetricsRecorder) RecordCacheHit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cacheHits++
}

func (f *fakeMetricsRecorder) RecordCacheMiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cacheMisses++
}

func (f *fakeMetricsRecorder) UpdateCacheSize(size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSize = size
}

func gdprRule() bundle.Rule {
	return bundle.Rule{
		ID:   "gdpr-1",
		Name: "GDPR consent",
		Type: "dsl",
		Definition: map[string]interface{}{
			"dsl": `WHEN consent.processing_data THEN MUST consent.given = TRUE AND consent.specific = TRUE AND consent.informed = TRUE`,
		},
	}
}

func TestExecute_DSLRulePasses(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{gdprRule()}}
	ctx := execcontext.New(map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true,
			"given":            true,
			"specific":         true,
			"informed":         true,
		},
	}, "2024-01-01T00:00:00Z")

	engine := New(nil)
	result := engine.Execute(b, ctx)

	if result.RulesExecuted != 1 || result.RulesPassed != 1 || result.RulesFailed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if !result.OverallResult {
		t.Fatalf("expected overall result true, got %+v", result)
	}
}

func TestExecute_CachesSecondCall(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{gdprRule()}}
	data := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true,
			"given":            true,
			"specific":         true,
			"informed":         true,
		},
	}
	engine := New(nil)

	first := engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))
	if first.RuleResults[0].Cached {
		t.Fatalf("expected first execution to miss cache")
	}

	second := engine.Execute(b, execcontext.New(data, "2024-01-02T00:00:00Z"))
	if !second.RuleResults[0].Cached {
		t.Fatalf("expected second execution with identical visible data to hit cache")
	}
	if second.RuleResults[0].Result != first.RuleResults[0].Result {
		t.Fatalf("cached result diverged from original")
	}
}

func TestExecute_UnsupportedRuleTypeFailsWithoutAborting(t *testing.T) {
	b := &bundle.Bundle{
		Rules: []bundle.Rule{
			{ID: "bad-1", Type: "mystery", Definition: map[string]interface{}{}},
			gdprRule(),
		},
	}
	data := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true, "given": true, "specific": true, "informed": true,
		},
	}
	engine := New(nil)
	result := engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))

	if result.RulesExecuted != 2 {
		t.Fatalf("expected both rules to run, got %+v", result)
	}
	if result.RuleResults[0].Error == "" {
		t.Fatalf("expected first rule to fail with an error, got %+v", result.RuleResults[0])
	}
	if result.OverallResult {
		t.Fatalf("expected overall result false due to one failed rule")
	}
}

func TestExecute_CustomHandler(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{{ID: "custom-1", Type: "custom_score", Definition: map[string]interface{}{}}}}
	engine := New(nil)
	engine.RegisterHandler("custom_score", func(rule bundle.Rule, context map[string]interface{}) (Outcome, error) {
		return Outcome{Result: true, Reason: "handled"}, nil
	})
	result := engine.Execute(b, execcontext.New(map[string]interface{}{}, "2024-01-01T00:00:00Z"))
	if !result.OverallResult || result.RuleResults[0].Reason != "handled" {
		t.Fatalf("expected custom handler outcome, got %+v", result)
	}
}

func TestExecute_ExpressionRule(t *testing.T) {
	b := &bundle.Bundle{
		Rules: []bundle.Rule{{
			ID:   "expr-1",
			Type: "expression",
			Definition: map[string]interface{}{
				"expression": "amount > 10000",
				"variables":  map[string]interface{}{"amount": "transaction.amount"},
			},
		}},
	}
	ctx := execcontext.New(map[string]interface{}{
		"transaction": map[string]interface{}{"amount": 25000.0},
	}, "2024-01-01T00:00:00Z")
	engine := New(nil)
	result := engine.Execute(b, ctx)
	if !result.OverallResult {
		t.Fatalf("expected expression rule to pass, got %+v", result)
	}
}

func TestClearCache_ResetsSize(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{gdprRule()}}
	data := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true, "given": true, "specific": true, "informed": true,
		},
	}
	engine := New(nil)
	engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))
	if engine.CacheStats()["size"].(int) == 0 {
		t.Fatalf("expected non-empty cache after execution")
	}
	engine.ClearCache()
	if engine.CacheStats()["size"].(int) != 0 {
		t.Fatalf("expected empty cache after ClearCache")
	}
}

func TestExecute_RecordsMetricsOnMissAndHit(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{gdprRule()}}
	data := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true, "given": true, "specific": true, "informed": true,
		},
	}
	recorder := &fakeMetricsRecorder{}
	engine := New(nil)
	engine.SetMetrics(recorder)

	engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))
	engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))

	if recorder.cacheMisses != 1 {
		t.Fatalf("expected 1 cache miss, got %d", recorder.cacheMisses)
	}
	if recorder.cacheHits != 1 {
		t.Fatalf("expected 1 cache hit, got %d", recorder.cacheHits)
	}
	if len(recorder.executions) != 1 || recorder.executions[0] != "gdpr-1:pass" {
		t.Fatalf("expected one pass execution recorded, got %v", recorder.executions)
	}
	if recorder.lastSize != 1 {
		t.Fatalf("expected cache size 1 after first execution, got %d", recorder.lastSize)
	}
}

func TestClearCache_ResetsMetricGauge(t *testing.T) {
	b := &bundle.Bundle{Rules: []bundle.Rule{gdprRule()}}
	data := map[string]interface{}{
		"consent": map[string]interface{}{
			"processing_data": true, "given": true, "specific": true, "informed": true,
		},
	}
	recorder := &fakeMetricsRecorder{}
	engine := New(nil)
	engine.SetMetrics(recorder)
	engine.Execute(b, execcontext.New(data, "2024-01-01T00:00:00Z"))

	engine.ClearCache()

	if recorder.lastSize != 0 {
		t.Fatalf("expected cache size gauge reset to 0, got %d", recorder.lastSize)
	}
}
