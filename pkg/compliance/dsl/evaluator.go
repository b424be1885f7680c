package dsl

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Outcome is the result record produced by evaluating a Rule against a
// context. It is a pure computation: Evaluate must never mutate context.
type Outcome struct {
	Result  bool        `json:"result"`
	Reason  string      `json:"reason,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Evaluate runs rule against context and returns its outcome. Any internal
// panic (there should be none in well-formed ASTs, but defensive coding
// mirrors the source behavior) is converted into a failed outcome rather
// than propagated.
func Evaluate(rule *Rule, context map[string]interface{}) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Result: false, Reason: fmt.Sprintf("Evaluation error: %v", r)}
		}
	}()

	if !evaluateCondition(rule.Condition, context) {
		return Outcome{Result: true, Reason: "Condition not met"}
	}

	if rule.Action != nil {
		return Outcome{
			Result: true,
			Details: map[string]interface{}{
				"action_type": rule.Action.Keyword,
				"target":      variableName(rule.Action.Var),
				"value":       resolveVariable(rule.Action.Var, context),
			},
		}
	}

	return Outcome{Result: evaluateConsequence(rule.Consequence, context)}
}

func variableName(v Variable) string {
	return strings.Join(v.Parts, ".")
}

func resolveVariable(v Variable, context map[string]interface{}) interface{} {
	var current interface{} = context
	for _, part := range v.Parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		val, ok := m[part]
		if !ok {
			return nil
		}
		current = val
	}
	return current
}

func resolveValue(v Value, context map[string]interface{}) interface{} {
	switch n := v.(type) {
	case *StringValue:
		return n.Val
	case *NumberValue:
		return n.Val
	case *BooleanValue:
		return n.Val
	case *DatetimeValue:
		return n.Val
	case *VariableValue:
		return resolveVariable(n.Var, context)
	}
	return nil
}

func resolveValues(vs []Value, context map[string]interface{}) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = resolveValue(v, context)
	}
	return out
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func valuesEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return as == bs
	}
	ab, abok := a.(bool)
	bb, bbok := b.(bool)
	if abok && bbok {
		return ab == bb
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

func toDisplayString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
	default:
		return fmt.Sprintf("%v", t)
	}
}

// compareOrdered returns (-1|0|1, true) when a and b are comparable (both
// numeric or both strings), or (0, false) on any type mismatch or error per
// spec: ordered comparisons never raise, they just fail to apply.
func compareOrdered(a, b interface{}) (int, bool) {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1, true
			case af > bf:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	as, asok := a.(string)
	bs, bsok := b.(string)
	if asok && bsok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func likeToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func applyComparisonOperator(op string, left, right interface{}) bool {
	switch op {
	case "=":
		return valuesEqual(left, right)
	case "!=":
		return !valuesEqual(left, right)
	case "<", "<=", ">", ">=":
		cmp, ok := compareOrdered(left, right)
		if !ok {
			return false
		}
		switch op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		}
	case "LIKE":
		re, err := regexp.Compile(likeToRegexp(toDisplayString(right)))
		if err != nil {
			return false
		}
		return re.MatchString(toDisplayString(left))
	}
	return false
}

func valueInList(v interface{}, list []interface{}) bool {
	for _, item := range list {
		if valuesEqual(v, item) {
			return true
		}
	}
	return false
}

// parseTimestamp attempts to interpret v as a UTC ISO-8601 timestamp.
func parseTimestamp(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func evaluateTemporal(n *TemporalCondition, context map[string]interface{}) bool {
	left := resolveVariable(n.Var, context)
	leftTime, leftOK := parseTimestamp(left)

	switch n.Op {
	case "BEFORE", "AFTER":
		right := resolveValue(n.Value, context)
		rightTime, rightOK := parseTimestamp(right)
		if leftOK && rightOK {
			if n.Op == "BEFORE" {
				return leftTime.Before(rightTime)
			}
			return leftTime.After(rightTime)
		}
		cmp, ok := compareOrdered(left, right)
		if !ok {
			return false
		}
		if n.Op == "BEFORE" {
			return cmp < 0
		}
		return cmp > 0
	case "WITHIN":
		seconds, ok := toFloat(resolveValue(n.Value, context))
		if !ok || !leftOK {
			return false
		}
		return time.Now().UTC().Sub(leftTime) <= time.Duration(seconds*float64(time.Second))
	case "EXPIRES_AFTER":
		seconds, ok := toFloat(resolveValue(n.Value, context))
		if !ok || !leftOK {
			return false
		}
		return leftTime.After(time.Now().UTC().Add(time.Duration(seconds * float64(time.Second))))
	}
	return false
}

func evaluateCondition(c Condition, context map[string]interface{}) bool {
	switch n := c.(type) {
	case *SimpleCondition:
		left := resolveVariable(n.Var, context)
		right := resolveValue(n.Value, context)
		return applyComparisonOperator(n.Op, left, right)
	case *ListCondition:
		left := resolveVariable(n.Var, context)
		return valueInList(left, resolveValues(n.List, context))
	case *PatternCondition:
		left := toDisplayString(resolveVariable(n.Var, context))
		right := toDisplayString(resolveValue(n.Value, context))
		switch n.Op {
		case "CONTAINS":
			return strings.Contains(left, right)
		case "MATCHES":
			re, err := regexp.Compile(right)
			if err != nil {
				return false
			}
			return re.MatchString(left)
		}
		return false
	case *TemporalCondition:
		return evaluateTemporal(n, context)
	case *NotCondition:
		return !evaluateCondition(n.Inner, context)
	case *CompoundCondition:
		if n.Op == "AND" {
			return evaluateCondition(n.Left, context) && evaluateCondition(n.Right, context)
		}
		return evaluateCondition(n.Left, context) || evaluateCondition(n.Right, context)
	case *VariableCondition:
		return truthy(resolveVariable(n.Var, context))
	}
	return false
}

func evaluateConsequence(c Consequence, context map[string]interface{}) bool {
	switch n := c.(type) {
	case *Requirement:
		return truthy(resolveVariable(n.Var, context))
	case *Constraint:
		left := resolveVariable(n.Var, context)
		right := resolveValue(n.Value, context)
		return applyComparisonOperator(n.Op, left, right)
	case *InConstraint:
		left := resolveVariable(n.Var, context)
		in := valueInList(left, resolveValues(n.List, context))
		if n.Negate {
			return !in
		}
		return in
	case *BetweenConstraint:
		left := resolveVariable(n.Var, context)
		low := resolveValue(n.Low, context)
		high := resolveValue(n.High, context)
		cmpLow, okLow := compareOrdered(left, low)
		cmpHigh, okHigh := compareOrdered(left, high)
		if !okLow || !okHigh {
			return false
		}
		return cmpLow >= 0 && cmpHigh <= 0
	case *BoolLiteral:
		return n.Val
	case *BoolVariable:
		return truthy(resolveVariable(n.Var, context))
	case *BoolNot:
		return !evaluateConsequence(n.Inner, context)
	case *BoolBinary:
		if n.Op == "AND" {
			return evaluateConsequence(n.Left, context) && evaluateConsequence(n.Right, context)
		}
		return evaluateConsequence(n.Left, context) || evaluateConsequence(n.Right, context)
	}
	return false
}
