package expression

import (
	"strings"

	cerrors "github.com/glassbox-labs/compliance-engine/pkg/compliance/errors"
)

// exprParser is a small recursive-descent evaluator: each rule returns the
// already-computed Go value rather than building an AST, since expressions
// are evaluated exactly once and never reused.
type exprParser struct {
	tokens []exprToken
	pos    int
}

func (p *exprParser) peek() exprToken { return p.tokens[p.pos] }

func (p *exprParser) advance() exprToken {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) atEnd() bool { return p.peek().kind == etEOF }

func (p *exprParser) identIs(word string) bool {
	t := p.peek()
	return t.kind == etIdent && strings.EqualFold(t.text, word)
}

func (p *exprParser) parseOr() (interface{}, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.identIs("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = toBool(left) || toBool(right)
	}
	return left, nil
}

func (p *exprParser) parseAnd() (interface{}, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.identIs("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = toBool(left) && toBool(right)
	}
	return left, nil
}

func (p *exprParser) parseNot() (interface{}, error) {
	if p.identIs("not") {
		p.advance()
		v, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return !toBool(v), nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (interface{}, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == etOp {
		op := p.advance().text
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return compareExprValues(op, left, right), nil
	}
	return left, nil
}

func (p *exprParser) parseOperand() (interface{}, error) {
	t := p.peek()
	switch t.kind {
	case etNumber:
		p.advance()
		return t.num, nil
	case etString:
		p.advance()
		return t.text, nil
	case etLParen:
		p.advance()
		v, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != etRParen {
			return nil, cerrors.RuleExecution("expected ')' in expression", "", "")
		}
		p.advance()
		return v, nil
	case etIdent:
		switch strings.ToLower(t.text) {
		case "true":
			p.advance()
			return true, nil
		case "false":
			p.advance()
			return false, nil
		case "null":
			p.advance()
			return nil, nil
		}
		return nil, cerrors.RuleExecution("unexpected identifier in expression: "+t.text, "", "")
	}
	return nil, cerrors.RuleExecution("unexpected token in expression", "", "")
}

func toBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	}
	return false
}

func compareExprValues(op string, a, b interface{}) bool {
	switch op {
	case "==":
		return exprEqual(a, b)
	case "!=":
		return !exprEqual(a, b)
	case "<", "<=", ">", ">=":
		af, aok := a.(float64)
		bf, bok := b.(float64)
		if !aok || !bok {
			return false
		}
		switch op {
		case "<":
			return af < bf
		case "<=":
			return af <= bf
		case ">":
			return af > bf
		case ">=":
			return af >= bf
		}
	}
	return false
}

func exprEqual(a, b interface{}) bool {
	if af, aok := a.(float64); aok {
		if bf, bok := b.(float64); bok {
			return af == bf
		}
		return false
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as == bs
		}
		return false
	}
	if ab, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			return ab == bb
		}
		return false
	}
	return a == nil && b == nil
}
