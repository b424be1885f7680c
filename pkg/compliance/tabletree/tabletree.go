// Package tabletree evaluates the decision_table and decision_tree rule
// types: a table of AND-ed conditions with associated actions, and a
// recursive binary decision tree of condition nodes and result leaves.
package tabletree

import (
	"fmt"
	"regexp"
	"strings"
)

// Outcome mirrors the shape produced by the DSL and expression evaluators
// so the rule engine can treat every rule type uniformly.
type Outcome struct {
	Result  bool        `json:"result"`
	Reason  string      `json:"reason,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func resolvePath(path string, context map[string]interface{}) interface{} {
	var current interface{} = context
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		v, ok := m[part]
		if !ok {
			return nil
		}
		current = v
	}
	return current
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
	default:
		return fmt.Sprintf("%v", t)
	}
}

func equalValues(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return toDisplayString(a) == toDisplayString(b) && (a != nil) == (b != nil)
}

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

// applyOperator implements the decision table/tree operator set: =, !=, <,
// <=, >, >=, contains, matches, exceeds. "exceeds" is a synonym for > and,
// like it, compares strings as well as numbers.
func applyOperator(op string, left, right interface{}) bool {
	switch op {
	case "=":
		return equalValues(left, right)
	case "!=":
		return !equalValues(left, right)
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
	case "contains":
		return strings.Contains(toDisplayString(left), toDisplayString(right))
	case "matches":
		re, err := regexp.Compile(toDisplayString(right))
		if err != nil {
			return false
		}
		return re.MatchString(toDisplayString(left))
	case "exceeds":
		cmp, ok := compareOrdered(left, right)
		if !ok {
			return false
		}
		return cmp > 0
	}
	return false
}

// EvaluateTable evaluates a definition of the shape:
//
//	{"table": {"conditions": [{"field","operator","value"}, ...], "actions": [...]}}
//
// All conditions are AND-ed; the table matches only if every condition
// matches, in which case its actions are surfaced in Details.
func EvaluateTable(definition map[string]interface{}, context map[string]interface{}) Outcome {
	table, _ := definition["table"].(map[string]interface{})
	if table == nil {
		return Outcome{Result: false, Reason: "decision table definition missing 'table'"}
	}
	condsRaw, _ := table["conditions"].([]interface{})

	for _, raw := range condsRaw {
		cond, ok := raw.(map[string]interface{})
		if !ok {
			return Outcome{Result: false, Reason: "malformed table condition"}
		}
		field, _ := cond["field"].(string)
		op, _ := cond["operator"].(string)
		value := cond["value"]
		left := resolvePath(field, context)
		if !applyOperator(op, left, value) {
			return Outcome{Result: false, Reason: fmt.Sprintf("condition on %q did not match", field)}
		}
	}

	out := Outcome{Result: true}
	if actions, ok := table["actions"].([]interface{}); ok && len(actions) > 0 {
		out.Details = map[string]interface{}{"actions": actions}
	}
	return out
}

// EvaluateTree walks a definition of the shape:
//
//	{"tree": {"condition": {...}, "true_branch": {...}, "false_branch": {...}}}
//
// terminating at a leaf {"result": bool, "reason": string}. A missing
// branch at an interior node evaluates to false with a reason naming the
// absent branch, per the spec's explicit handling of incomplete trees.
func EvaluateTree(definition map[string]interface{}, context map[string]interface{}) Outcome {
	tree, _ := definition["tree"].(map[string]interface{})
	if tree == nil {
		return Outcome{Result: false, Reason: "decision tree definition missing 'tree'"}
	}
	var path []string
	out := traverseTree(tree, context, &path)
	if out.Details == nil {
		out.Details = map[string]interface{}{"path": path}
	}
	return out
}

func traverseTree(node map[string]interface{}, context map[string]interface{}, path *[]string) Outcome {
	if node == nil {
		return Outcome{Result: false, Reason: "empty tree node"}
	}
	if resultRaw, ok := node["result"]; ok {
		reason, _ := node["reason"].(string)
		return Outcome{Result: truthy(resultRaw), Reason: reason}
	}

	condRaw, _ := node["condition"].(map[string]interface{})
	if condRaw == nil {
		return Outcome{Result: false, Reason: "interior tree node missing condition"}
	}
	field, _ := condRaw["field"].(string)
	op, _ := condRaw["operator"].(string)
	value := condRaw["value"]
	left := resolvePath(field, context)

	branchKey := "false_branch"
	if applyOperator(op, left, value) {
		branchKey = "true_branch"
	}
	*path = append(*path, branchKey)

	branch, ok := node[branchKey].(map[string]interface{})
	if !ok {
		return Outcome{Result: false, Reason: fmt.Sprintf("No %s found at node", branchKey)}
	}
	return traverseTree(branch, context, path)
}
