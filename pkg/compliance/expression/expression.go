// Package expression evaluates infix boolean/comparison expressions over a
// context after textual variable substitution. It never hosts a general
// purpose eval: after substitution, any identifier other than and/or/not/
// true/false/null is rejected before the expression is evaluated.
package expression

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
)

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// stringLiteralRe matches a double-quoted literal the way the lexer reads
// one, so the sandbox check does not mistake literal text for identifiers.
var stringLiteralRe = regexp.MustCompile(`"[^"]*"`)

var reservedWords = map[string]bool{
	"and": true, "or": true, "not": true,
	"true": true, "false": true, "null": true,
}

// resolvePath walks a dotted path through a nested map context, returning
// nil on any missing segment (the same null-sentinel behavior as the DSL
// evaluator).
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

func literal(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case string:
		return strconv.Quote(t)
	default:
		return strconv.Quote(fmt.Sprintf("%v", t))
	}
}

func replaceIdentifier(src, name, replacement string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.ReplaceAllString(src, replacement)
}

// Substitute replaces every declared variable name in expr with the literal
// form of its resolved value, longest names first so that a shorter name
// can never clobber part of a longer one.
func Substitute(expr string, variables map[string]string, context map[string]interface{}) string {
	names := make([]string, 0, len(variables))
	for name := range variables {
		names = append(names, name)
	}
	// stable longest-first ordering avoids "amount" matching inside
	// "total_amount" before the longer name is substituted.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if len(names[j]) > len(names[i]) {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	out := expr
	for _, name := range names {
		val := resolvePath(variables[name], context)
		out = replaceIdentifier(out, name, literal(val))
	}
	return out
}

func checkSandbox(s string) error {
	for _, m := range identifierRe.FindAllString(stringLiteralRe.ReplaceAllString(s, `""`), -1) {
		if !reservedWords[strings.ToLower(m)] {
			return cerrors.RuleExecution(
				fmt.Sprintf("unresolved identifier %q in expression (not pre-substituted)", m),
				"", s)
		}
	}
	return nil
}

// Evaluate substitutes variables into expr, rejects anything left
// unresolved, then evaluates the boolean/comparison expression.
func Evaluate(expr string, variables map[string]string, context map[string]interface{}) (bool, error) {
	substituted := Substitute(expr, variables, context)
	if err := checkSandbox(substituted); err != nil {
		return false, err
	}

	p := &exprParser{tokens: tokenize(substituted)}
	val, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if !p.atEnd() {
		return false, cerrors.RuleExecution("unexpected trailing tokens in expression", "", substituted)
	}
	return toBool(val), nil
}
