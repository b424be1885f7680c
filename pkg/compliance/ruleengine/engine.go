// Package ruleengine dispatches the four rule representations (dsl,
// expression, decision_table, decision_tree) under one contract, with
// memoization keyed on (rule, visible context data).
package ruleengine

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glassbox-labs/compliance-engine/pkg/compliance/bundle"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/dsl"
	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/execcontext"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/expression"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/hashutil"
	"github.com/glassbox-labs/compliance-engine/pkg/compliance/tabletree"
)

// MetricsRecorder is the narrow interface the engine needs to report rule
// execution and cache activity; *metrics.Collector satisfies it.
type MetricsRecorder interface {
	RecordRuleExecution(ruleID, result string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	UpdateCacheSize(size int)
}

// Outcome is the uniform result shape every evaluator (built-in or custom)
// must return.
type Outcome struct {
	Result  bool        `json:"result"`
	Reason  string      `json:"reason,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// RuleResult records the outcome of dispatching a single rule, including
// failure and cache-hit bookkeeping.
type RuleResult struct {
	RuleID  string      `json:"rule_id"`
	Result  bool        `json:"result"`
	Reason  string      `json:"reason,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error,omitempty"`
	Cached  bool        `json:"cached"`
}

// Result aggregates a full bundle execution.
type Result struct {
	RulesExecuted int          `json:"rules_executed"`
	RulesPassed   int          `json:"rules_passed"`
	RulesFailed   int          `json:"rules_failed"`
	RuleResults   []RuleResult `json:"rule_results"`
	OverallResult bool         `json:"overall_result"`
}

// Handler is a registered custom evaluator for a rule type tag.
type Handler func(rule bundle.Rule, context map[string]interface{}) (Outcome, error)

// Engine dispatches rules to the matching evaluator and memoizes outcomes.
type Engine struct {
	mu       sync.RWMutex
	cache    map[string]Outcome
	handlers map[string]Handler
	logger   *slog.Logger
	metrics  MetricsRecorder
}

// New creates an Engine. A nil logger falls back to slog.Default(), matching
// the rest of this module's components.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cache:    make(map[string]Outcome),
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// SetMetrics attaches a metrics recorder. Nil disables metrics recording.
func (e *Engine) SetMetrics(m MetricsRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = m
}

// RegisterHandler associates a custom rule-type tag with an evaluator
// function, overriding any built-in evaluator for that tag.
func (e *Engine) RegisterHandler(ruleType string, handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[ruleType] = handler
}

// ClearCache drops all memoized outcomes.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]Outcome)
	metrics := e.metrics
	e.mu.Unlock()
	if metrics != nil {
		metrics.UpdateCacheSize(0)
	}
}

// CacheStats exposes cache size for introspection.
func (e *Engine) CacheStats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return map[string]interface{}{"size": len(e.cache)}
}

func cacheKey(ruleID string, visibleData map[string]interface{}) (string, error) {
	canonical, err := hashutil.CanonicalJSON(visibleData)
	if err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(ruleID + "||" + string(canonical)))
	return hex.EncodeToString(sum[:]), nil
}

// Execute dispatches every rule in bundle.Rules, in declaration order,
// against ctx. Per-rule failures never abort the run; they are recorded as
// failed RuleResults and drive OverallResult to false.
func (e *Engine) Execute(b *bundle.Bundle, ctx *execcontext.ExecutionContext) *Result {
	result := &Result{
		RuleResults:   make([]RuleResult, 0, len(b.Rules)),
		OverallResult: true,
	}
	visible := ctx.VisibleData()

	for _, rule := range b.Rules {
		rr := e.executeRule(rule, visible)
		result.RulesExecuted++
		if rr.Error != "" || !rr.Result {
			result.RulesFailed++
			result.OverallResult = false
		} else {
			result.RulesPassed++
		}
		result.RuleResults = append(result.RuleResults, rr)
	}

	return result
}

func (e *Engine) executeRule(rule bundle.Rule, visible map[string]interface{}) RuleResult {
	key, keyErr := cacheKey(rule.ID, visible)
	if keyErr == nil {
		e.mu.RLock()
		cached, ok := e.cache[key]
		e.mu.RUnlock()
		if ok {
			if e.metrics != nil {
				e.metrics.RecordCacheHit()
			}
			return RuleResult{RuleID: rule.ID, Result: cached.Result, Reason: cached.Reason, Details: cached.Details, Cached: true}
		}
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
	}

	start := time.Now()
	outcome, err := e.dispatch(rule, visible)
	duration := time.Since(start)

	if err != nil {
		e.logger.Warn("rule execution failed", "rule_id", rule.ID, "rule_type", rule.Type, "error", err)
		if e.metrics != nil {
			e.metrics.RecordRuleExecution(rule.ID, "error", duration)
		}
		return RuleResult{RuleID: rule.ID, Result: false, Error: err.Error()}
	}

	if e.metrics != nil {
		if outcome.Result {
			e.metrics.RecordRuleExecution(rule.ID, "pass", duration)
		} else {
			e.metrics.RecordRuleExecution(rule.ID, "fail", duration)
		}
	}

	if keyErr == nil {
		e.mu.Lock()
		e.cache[key] = outcome
		size := len(e.cache)
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.UpdateCacheSize(size)
		}
	}

	return RuleResult{RuleID: rule.ID, Result: outcome.Result, Reason: outcome.Reason, Details: outcome.Details}
}

func (e *Engine) dispatch(rule bundle.Rule, context map[string]interface{}) (Outcome, error) {
	e.mu.RLock()
	handler, hasCustom := e.handlers[rule.Type]
	e.mu.RUnlock()
	if hasCustom {
		return handler(rule, context)
	}

	switch rule.Type {
	case "dsl":
		return e.runDSL(rule, context)
	case "expression":
		return e.runExpression(rule, context)
	case "decision_table":
		out := tabletree.EvaluateTable(rule.Definition, context)
		return Outcome{Result: out.Result, Reason: out.Reason, Details: out.Details}, nil
	case "decision_tree":
		out := tabletree.EvaluateTree(rule.Definition, context)
		return Outcome{Result: out.Result, Reason: out.Reason, Details: out.Details}, nil
	default:
		return Outcome{}, cerrors.RuleExecution(
			fmt.Sprintf("unsupported rule type %q", rule.Type), rule.ID, "")
	}
}

func (e *Engine) runDSL(rule bundle.Rule, context map[string]interface{}) (Outcome, error) {
	source, _ := rule.Definition["dsl"].(string)
	if source == "" {
		return Outcome{}, cerrors.RuleExecution("dsl rule missing definition.dsl", rule.ID, "")
	}
	parsed, err := dsl.Parse(source)
	if err != nil {
		return Outcome{}, cerrors.RuleExecution(err.Error(), rule.ID, source)
	}
	out := dsl.Evaluate(parsed, context)
	return Outcome{Result: out.Result, Reason: out.Reason, Details: out.Details}, nil
}

func (e *Engine) runExpression(rule bundle.Rule, context map[string]interface{}) (Outcome, error) {
	expr, _ := rule.Definition["expression"].(string)
	if expr == "" {
		return Outcome{}, cerrors.RuleExecution("expression rule missing definition.expression", rule.ID, "")
	}
	variables := map[string]string{}
	if raw, ok := rule.Definition["variables"].(map[string]interface{}); ok {
		for k, v := range raw {
			if path, ok := v.(string); ok {
				variables[k] = path
			}
		}
	}
	ok, err := expression.Evaluate(expr, variables, context)
	if err != nil {
		return Outcome{}, cerrors.RuleExecution(err.Error(), rule.ID, expr)
	}
	return Outcome{Result: ok}, nil
}
