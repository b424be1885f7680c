package expression

import "strconv"

type exprTokenKind int

const (
	etNumber exprTokenKind = iota
	etString
	etIdent
	etOp
	etLParen
	etRParen
	etEOF
)

type exprToken struct {
	kind exprTokenKind
	text string
	num  float64
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// tokenize assumes the sandbox check has already run over the substituted
// source, so any bare identifier reaching here is one of the reserved
// boolean keywords.
func tokenize(s string) []exprToken {
	var toks []exprToken
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, exprToken{kind: etLParen})
			i++
		case c == ')':
			toks = append(toks, exprToken{kind: etRParen})
			i++
		case c == '"':
			j := i + 1
			var b []byte
			for j < n && s[j] != '"' {
				if s[j] == '\\' && j+1 < n {
					b = append(b, s[j+1])
					j += 2
					continue
				}
				b = append(b, s[j])
				j++
			}
			toks = append(toks, exprToken{kind: etString, text: string(b)})
			i = j + 1
		case c == '=' && i+1 < n && s[i+1] == '=':
			toks = append(toks, exprToken{kind: etOp, text: "=="})
			i += 2
		case c == '!' && i+1 < n && s[i+1] == '=':
			toks = append(toks, exprToken{kind: etOp, text: "!="})
			i += 2
		case c == '<' && i+1 < n && s[i+1] == '=':
			toks = append(toks, exprToken{kind: etOp, text: "<="})
			i += 2
		case c == '>' && i+1 < n && s[i+1] == '=':
			toks = append(toks, exprToken{kind: etOp, text: ">="})
			i += 2
		case c == '<':
			toks = append(toks, exprToken{kind: etOp, text: "<"})
			i++
		case c == '>':
			toks = append(toks, exprToken{kind: etOp, text: ">"})
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < n && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				j++
			}
			f, _ := strconv.ParseFloat(s[i:j], 64)
			toks = append(toks, exprToken{kind: etNumber, num: f})
			i = j
		case isIdentStart(c):
			j := i
			for j < n && isIdentPart(s[j]) {
				j++
			}
			toks = append(toks, exprToken{kind: etIdent, text: s[i:j]})
			i = j
		default:
			i++
		}
	}
	toks = append(toks, exprToken{kind: etEOF})
	return toks
}
