package dsl

// Kind tags the lexical category of a Token.
type Kind string

const (
	KindNumber     Kind = "number"
	KindString     Kind = "string"
	KindIdentifier Kind = "identifier"
	KindKeyword    Kind = "keyword"
	KindTimeUnit   Kind = "time_unit"
	KindOperator   Kind = "operator"
	KindSymbol     Kind = "symbol"
	KindEOF        Kind = "eof"
)

// Token is one lexical unit produced by the tokenizer: a kind, its lexeme,
// and its byte position in the source along with line/column for
// diagnostics.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    int
	Line   int
	Column int
}

// keywords is the fixed, case-insensitive keyword set. The canonical stored
// form is upper-case.
var keywords = map[string]bool{
	"WHEN": true, "IF": true, "THEN": true, "MUST": true, "SHOULD": true,
	"DO": true, "AND": true, "OR": true, "NOT": true, "IN": true,
	"CONTAINS": true, "MATCHES": true, "BEFORE": true, "AFTER": true,
	"WITHIN": true, "EXPIRES": true, "BETWEEN": true, "REQUIRE": true,
	"ENSURE": true, "VALIDATE": true, "FLAG": true, "ALERT": true,
	"BLOCK": true, "ALLOW": true, "LOG": true, "NOTIFY": true,
	"TRUE": true, "FALSE": true,
}

// timeUnits is the fixed time-unit set: singular and plural forms of
// SECOND, MINUTE, HOUR, DAY, WEEK, MONTH, YEAR.
var timeUnits = map[string]bool{
	"SECOND": true, "SECONDS": true,
	"MINUTE": true, "MINUTES": true,
	"HOUR": true, "HOURS": true,
	"DAY": true, "DAYS": true,
	"WEEK": true, "WEEKS": true,
	"MONTH": true, "MONTHS": true,
	"YEAR": true, "YEARS": true,
}

// twoCharOperators lists the two-character forms, tried before their
// one-character prefixes so that e.g. ">=" is not mis-lexed as ">" then "=".
var twoCharOperators = []string{">=", "<=", "!="}

const oneCharOperators = "=><"

const symbolChars = "()[],.@"
